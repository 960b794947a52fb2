package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cibil-store/internal/domain/entity"
	"cibil-store/internal/domain/repository"
	"cibil-store/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstream710 = "```json\n" + `{"predicted_score":710,"factors":[{"name":"Payment History","impact":80,"positive":true},{"name":"Credit Utilization","impact":55,"positive":false},{"name":"Credit Age","impact":60,"positive":true},{"name":"Recent Inquiries","impact":30,"positive":true}],"suggestions":["a","b","c","d"]}` + "\n```"

const scenarioBody = `{"income":50000,"existingLoans":2,"paymentHistory":"good","creditUtilization":40,"recentInquiries":1}`

type stubPredictor struct {
	text string
	err  error
}

func (s stubPredictor) Complete(context.Context, string, repository.GenerationParams) (string, error) {
	return s.text, s.err
}

type stubIdentity struct{}

func (stubIdentity) ResolveUser(_ context.Context, token string) (*entity.Identity, error) {
	if token != "valid" {
		return nil, errors.New("bad jwt")
	}
	return &entity.Identity{UserID: "user-1", Email: "asha@example.com"}, nil
}

type memoryPredictions struct {
	records []entity.PredictionRecord
}

func (m *memoryPredictions) Insert(_ context.Context, rec *entity.PredictionRecord) error {
	rec.ID = fmt.Sprintf("p%d", len(m.records)+1)
	rec.CreatedAt = time.Date(2026, 10, 1, 9, 0, len(m.records), 0, time.UTC)
	m.records = append(m.records, *rec)
	return nil
}

func (m *memoryPredictions) ListByUser(_ context.Context, userID string, limit int) ([]entity.PredictionRecord, error) {
	var out []entity.PredictionRecord
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if m.records[i].UserID == userID {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

type memoryProfiles struct {
	profiles map[string]*entity.Profile
}

func (m *memoryProfiles) UpdateCurrentScore(_ context.Context, userID string, score int) error {
	p, ok := m.profiles[userID]
	if !ok {
		return entity.ErrResourceNotFound
	}
	p.CurrentCibilScore = &score
	return nil
}

func (m *memoryProfiles) Get(_ context.Context, userID string) (*entity.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, entity.ErrResourceNotFound
	}
	return p, nil
}

func (m *memoryProfiles) Update(_ context.Context, userID string, upd entity.ProfileUpdate) (*entity.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, entity.ErrResourceNotFound
	}
	if upd.FullName != nil {
		p.FullName = *upd.FullName
	}
	if upd.Phone != nil {
		p.Phone = upd.Phone
	}
	if upd.Address != nil {
		p.Address = upd.Address
	}
	return p, nil
}

type testApp struct {
	app         *fiber.App
	predictions *memoryPredictions
	profiles    *memoryProfiles
}

func newTestApp(predictor repository.Predictor, strict bool) *testApp {
	preds := &memoryPredictions{}
	profs := &memoryProfiles{profiles: map[string]*entity.Profile{
		"user-1": {ID: "user-1", Email: "asha@example.com", FullName: "Asha Rao"},
	}}
	orch := usecase.NewOrchestrator(predictor, stubIdentity{}, preds, profs, time.Second, nil)

	app := fiber.New()
	SetupRouter(app, Handlers{
		Prediction: NewPredictionHandler(orch, StatusMapper{Strict: strict}),
		Account:    NewAccountHandler(preds, profs),
		Identity:   stubIdentity{},
		Version:    "test",
		Env:        "test",
	})
	return &testApp{app: app, predictions: preds, profiles: profs}
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func predictRequest(body, auth string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/predict-cibil", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://app.example.com")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func TestPredict_Success(t *testing.T) {
	ta := newTestApp(stubPredictor{text: upstream710}, false)

	resp, body := do(t, ta.app, predictRequest(scenarioBody, "Bearer valid"))

	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var got entity.Prediction
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 710, got.PredictedScore)
	assert.Equal(t, []string{"a", "b", "c", "d"}, got.Suggestions)

	require.Len(t, ta.predictions.records, 1)
	assert.Equal(t, 40, ta.predictions.records[0].CreditUtilization)
	assert.Equal(t, 710, *ta.profiles.profiles["user-1"].CurrentCibilScore)
}

func TestPredict_UpstreamRateLimited(t *testing.T) {
	ta := newTestApp(stubPredictor{err: &entity.UpstreamError{Status: 429}}, false)

	resp, body := do(t, ta.app, predictRequest(scenarioBody, "Bearer valid"))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Gemini API error: 429"}`, string(body))
	assert.Empty(t, ta.predictions.records)
}

func TestPredict_MissingAuthorization(t *testing.T) {
	ta := newTestApp(stubPredictor{text: upstream710}, false)

	resp, body := do(t, ta.app, predictRequest(scenarioBody, ""))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Missing authorization header"}`, string(body))
	assert.Empty(t, ta.predictions.records)
}

func TestPredict_InvalidBody(t *testing.T) {
	ta := newTestApp(stubPredictor{text: upstream710}, false)

	resp, _ := do(t, ta.app, predictRequest(`{not json`, "Bearer valid"))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, ta.predictions.records)
}

func TestPredict_StrictStatuses(t *testing.T) {
	tests := []struct {
		name      string
		predictor stubPredictor
		auth      string
		want      int
	}{
		{"missing auth", stubPredictor{text: upstream710}, "", http.StatusUnauthorized},
		{"bad token", stubPredictor{text: upstream710}, "Bearer nope", http.StatusUnauthorized},
		{"upstream", stubPredictor{err: &entity.UpstreamError{Status: 503}}, "Bearer valid", http.StatusBadGateway},
		{"malformed", stubPredictor{text: "no json here"}, "Bearer valid", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(tt.predictor, true)
			resp, _ := do(t, ta.app, predictRequest(scenarioBody, tt.auth))
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestPredict_MissingAPIKey(t *testing.T) {
	ta := newTestApp(nil, false)

	resp, body := do(t, ta.app, predictRequest(scenarioBody, "Bearer valid"))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "GEMINI_API_KEY is not configured")
}

func TestPreflight_AlwaysAnswered(t *testing.T) {
	ta := newTestApp(stubPredictor{text: upstream710}, false)

	for _, path := range []string{"/predict-cibil", "/v1/profile", "/anything"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")

		resp, body := do(t, ta.app, req)

		assert.Less(t, resp.StatusCode, 300, path)
		assert.Empty(t, body, path)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), path)
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "x-client-info", path)
	}
	assert.Empty(t, ta.predictions.records)
}

func TestPreflight_WithoutCORSHeaders(t *testing.T) {
	ta := newTestApp(stubPredictor{text: upstream710}, false)

	resp, body := do(t, ta.app, httptest.NewRequest(http.MethodOptions, "/predict-cibil", nil))

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHistoryAndProfile(t *testing.T) {
	ta := newTestApp(stubPredictor{text: upstream710}, false)
	for i := 0; i < 2; i++ {
		resp, _ := do(t, ta.app, predictRequest(scenarioBody, "Bearer valid"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/predictions?limit=5", nil)
	req.Header.Set("Authorization", "Bearer valid")
	resp, body := do(t, ta.app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history struct {
		Predictions []entity.PredictionRecord `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history.Predictions, 2)
	assert.Equal(t, "p2", history.Predictions[0].ID)

	req = httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer valid")
	resp, body = do(t, ta.app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile entity.Profile
	require.NoError(t, json.Unmarshal(body, &profile))
	require.NotNil(t, profile.CurrentCibilScore)
	assert.Equal(t, 710, *profile.CurrentCibilScore)
}

func TestUpdateProfile(t *testing.T) {
	ta := newTestApp(stubPredictor{text: upstream710}, false)

	req := httptest.NewRequest(http.MethodPatch, "/v1/profile", strings.NewReader(`{"phone":"+91 98765 43210"}`))
	req.Header.Set("Authorization", "Bearer valid")
	req.Header.Set("Content-Type", "application/json")
	resp, body := do(t, ta.app, req)

	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "+91 98765 43210", *ta.profiles.profiles["user-1"].Phone)

	req = httptest.NewRequest(http.MethodPatch, "/v1/profile", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer valid")
	req.Header.Set("Content-Type", "application/json")
	resp, _ = do(t, ta.app, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestV1_RequiresAuth(t *testing.T) {
	ta := newTestApp(stubPredictor{text: upstream710}, false)

	resp, _ := do(t, ta.app, httptest.NewRequest(http.MethodGet, "/v1/predictions", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer forged")
	resp, _ = do(t, ta.app, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHistory_BadLimit(t *testing.T) {
	ta := newTestApp(stubPredictor{text: upstream710}, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/predictions?limit=zero", nil)
	req.Header.Set("Authorization", "Bearer valid")
	resp, _ := do(t, ta.app, req)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ta := newTestApp(stubPredictor{}, false)

	resp, body := do(t, ta.app, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy","version":"test","env":"test"}`, string(body))
}
