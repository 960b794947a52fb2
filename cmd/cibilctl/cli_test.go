package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cibil-store/internal/adapter/auth"
	"cibil-store/internal/config"
	"cibil-store/internal/dispatch"
	"cibil-store/internal/domain/entity"
	"cibil-store/internal/session"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupCLI points the globals at a temp session file and the given API.
func setupCLI(t *testing.T, api string) *session.FileStore {
	t.Helper()
	logger = zap.NewNop()
	timeout = 5 * time.Second
	cfg = config.Config{
		APIURL:      api,
		SessionFile: filepath.Join(t.TempDir(), "session.yaml"),
	}
	store, err := sessionStore()
	require.NoError(t, err)
	return store
}

func testCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetContext(context.Background())
	return cmd, out, errOut
}

func TestSessionFromTokens(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	tok := &auth.Tokens{AccessToken: "a", RefreshToken: "r", ExpiresIn: 3600}
	tok.User.ID = "u-1"
	tok.User.Email = "asha@example.com"

	s := sessionFromTokens(tok, now)
	assert.Equal(t, "a", s.AccessToken)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)
}

func TestPredict_WithoutSessionRedirects(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls.Add(1) }))
	defer srv.Close()
	setupCLI(t, srv.URL)

	cmd, _, errOut := testCommand()
	err := guarded(runPredict)(cmd, nil)

	assert.ErrorIs(t, err, session.ErrUnauthenticated)
	assert.Contains(t, errOut.String(), "cibilctl login")
	assert.Zero(t, calls.Load())
}

func TestPredict_PrintsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer live-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"predicted_score":765,"factors":[{"name":"Payment History","impact":35,"positive":true}],"suggestions":["Keep utilization under 30%"]}`))
	}))
	defer srv.Close()
	store := setupCLI(t, srv.URL)
	require.NoError(t, store.Save(&session.Session{AccessToken: "live-token", ExpiresAt: time.Now().Add(time.Hour)}))

	predictForm = dispatch.Form{Income: "50000", ExistingLoans: "1", PaymentHistory: "excellent", CreditUtilization: "20", RecentInquiries: "0"}
	cmd, out, _ := testCommand()
	require.NoError(t, guarded(runPredict)(cmd, nil))

	assert.Contains(t, out.String(), "Calculating...")
	assert.Contains(t, out.String(), "Predicted CIBIL score: 765 (Excellent)")
	assert.Contains(t, out.String(), "Keep utilization under 30%")
}

func TestPredict_FailureShowsRetryMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	store := setupCLI(t, srv.URL)
	require.NoError(t, store.Save(&session.Session{AccessToken: "live-token", ExpiresAt: time.Now().Add(time.Hour)}))

	cmd, out, _ := testCommand()
	err := guarded(runPredict)(cmd, nil)

	assert.Error(t, err)
	assert.Contains(t, out.String(), dispatch.RetryLaterMessage)
	assert.NotContains(t, out.String(), "Predicted CIBIL score")
}

func TestLogout_ClearsSession(t *testing.T) {
	store := setupCLI(t, "http://127.0.0.1:0")
	require.NoError(t, store.Save(&session.Session{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}))

	cmd, out, _ := testCommand()
	require.NoError(t, runLogout(cmd, nil))

	s, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Contains(t, out.String(), "Logged out")
}

func TestProfile_PrintsScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/profile", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"u-1","full_name":"Asha Rao","email":"asha@example.com","current_cibil_score":690}`))
	}))
	defer srv.Close()
	store := setupCLI(t, srv.URL)
	require.NoError(t, store.Save(&session.Session{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}))

	cmd, out, _ := testCommand()
	cmd.Flags().String("name", "", "")
	cmd.Flags().String("phone", "", "")
	cmd.Flags().String("address", "", "")
	require.NoError(t, guarded(runProfile)(cmd, nil))

	assert.Contains(t, out.String(), "Asha Rao")
	assert.Contains(t, out.String(), "690 (Fair)")
	assert.Contains(t, out.String(), "Phone:   -")
}

func TestScoreBand(t *testing.T) {
	cases := map[int]string{900: "Excellent", 750: "Excellent", 749: "Fair", 600: "Fair", 599: "Poor", 300: "Poor"}
	for score, want := range cases {
		assert.Equal(t, want, scoreBand(score), "score %d", score)
	}
}

func TestTerminalView_NegativeFactor(t *testing.T) {
	var buf bytes.Buffer
	v := &terminalView{out: &buf}
	v.ShowResult(&entity.Prediction{
		PredictedScore: 640,
		Factors:        []entity.Factor{{Name: "Credit Utilization", Impact: 30, Positive: false}},
		Suggestions:    []string{"Reduce card balances"},
	})
	assert.Contains(t, buf.String(), "- Credit Utilization")
	assert.Contains(t, buf.String(), "1. Reduce card balances")
}

func TestHistory_RendersTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/predictions", r.URL.Path)
		_, _ = w.Write([]byte(`{"predictions":[
			{"id":"p1","income":50000,"existing_loans":2,"payment_history":"good","credit_utilization":30,"recent_inquiries":1,"predicted_score":720,"created_at":"2026-03-01T10:00:00Z"},
			{"id":"p2","income":42000,"existing_loans":3,"payment_history":"fair","credit_utilization":65,"recent_inquiries":4,"predicted_score":610,"created_at":"2026-02-01T10:00:00Z"}]}`))
	}))
	defer srv.Close()
	store := setupCLI(t, srv.URL)
	require.NoError(t, store.Save(&session.Session{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}))

	historyLimit = 20
	cmd, out, _ := testCommand()
	require.NoError(t, guarded(runHistory)(cmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "SCORE")
	assert.Contains(t, lines[2], "720")
	assert.Contains(t, lines[2], "50000")
	assert.Contains(t, lines[3], "fair")
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := renderTable([]string{"A", "LONGER"}, [][]string{{"wide cell", "x"}, {"y", "z"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, len(lines[0]), len(lines[2]))
	assert.Equal(t, len(lines[2]), len(lines[3]))
}

func TestChat_InteractiveStopsWhenContextEnds(t *testing.T) {
	setupCLI(t, "http://127.0.0.1:0")
	stdin, stdinW := io.Pipe()
	defer stdinW.Close()

	cmd, _, _ := testCommand()
	cmd.SetIn(stdin)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runChat(ctx, cmd, &session.Session{AccessToken: "tok"}) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("chat kept waiting for input after cancellation")
	}
}

func TestChat_InteractiveConversation(t *testing.T) {
	var conversations []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req entity.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		conversations = append(conversations, req.ConversationID)
		_, _ = w.Write([]byte(`{"content":"answer to ` + req.Message + `","conversation_id":"c-1"}`))
	}))
	defer srv.Close()
	setupCLI(t, srv.URL)
	conversationID = ""

	cmd, out, _ := testCommand()
	cmd.SetIn(strings.NewReader("first\nsecond\n\n"))
	require.NoError(t, runChat(context.Background(), cmd, &session.Session{AccessToken: "tok"}))

	assert.Contains(t, out.String(), "answer to first")
	assert.Contains(t, out.String(), "answer to second")
	assert.Equal(t, []string{"", "c-1"}, conversations)
}
