// Package dispatch sends a filled prediction form to the API and drives
// whatever view shows the outcome.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"cibil-store/internal/domain/entity"

	"go.uber.org/zap"
)

// RetryLaterMessage is what the view shows for any failed submission.
const RetryLaterMessage = "Failed to get prediction. Please try again later."

// View renders dispatcher progress.
type View interface {
	SetLoading(loading bool)
	ShowResult(p *entity.Prediction)
	ShowError(message string)
}

// Form holds the five prediction inputs exactly as entered.
type Form struct {
	Income            string
	ExistingLoans     string
	PaymentHistory    string
	CreditUtilization string
	RecentInquiries   string
}

// Request passes the values through unchanged; numeric text is sent as a
// JSON number, anything else as a string.
func (f Form) Request() entity.PredictionRequest {
	return entity.PredictionRequest{
		Income:            formField(f.Income),
		ExistingLoans:     formField(f.ExistingLoans),
		PaymentHistory:    entity.NewField(f.PaymentHistory),
		CreditUtilization: formField(f.CreditUtilization),
		RecentInquiries:   formField(f.RecentInquiries),
	}
}

func formField(v string) entity.Field {
	trimmed := strings.TrimSpace(v)
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil && json.Valid([]byte(trimmed)) {
		return entity.NewField(json.Number(trimmed))
	}
	return entity.NewField(v)
}

// TokenSource yields the bearer token of the current session.
type TokenSource func(ctx context.Context) (string, error)

// Dispatcher submits one prediction at a time.
type Dispatcher struct {
	endpoint   string
	token      TokenSource
	view       View
	httpClient *http.Client
	log        *zap.Logger

	mu       sync.Mutex
	inFlight bool
}

// ErrBusy is returned while an earlier submission is still running.
var ErrBusy = errors.New("a prediction is already in flight")

func New(apiURL string, token TokenSource, view View, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		endpoint: strings.TrimRight(apiURL, "/") + "/predict-cibil",
		token:    token,
		view:     view,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

// Busy reports whether the calculate action should be disabled.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

// Submit makes exactly one authenticated call. ShowResult is called only on
// success; every failure reaches the view as RetryLaterMessage.
func (d *Dispatcher) Submit(ctx context.Context, form Form) (*entity.Prediction, error) {
	d.mu.Lock()
	if d.inFlight {
		d.mu.Unlock()
		return nil, ErrBusy
	}
	d.inFlight = true
	d.mu.Unlock()

	d.view.SetLoading(true)
	defer func() {
		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
		d.view.SetLoading(false)
	}()

	prediction, err := d.send(ctx, form)
	if err != nil {
		d.log.Error("prediction request failed", zap.Error(err))
		d.view.ShowError(RetryLaterMessage)
		return nil, err
	}
	d.view.ShowResult(prediction)
	return prediction, nil
}

func (d *Dispatcher) send(ctx context.Context, form Form) (*entity.Prediction, error) {
	token, err := d.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}

	body, err := json.Marshal(form.Request())
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return nil, &StatusError{Status: resp.StatusCode, Message: e.Error}
	}

	var p entity.Prediction
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	return &p, nil
}

// StatusError is a non-2xx answer from the prediction endpoint.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prediction endpoint returned %d", e.Status)
	}
	return fmt.Sprintf("prediction endpoint returned %d: %s", e.Status, e.Message)
}
