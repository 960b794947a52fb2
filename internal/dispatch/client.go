package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cibil-store/internal/domain/entity"
)

// Client calls the authenticated /v1 routes.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(apiURL, "/") + "/v1",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Predictions(ctx context.Context, token string, limit int) ([]entity.PredictionRecord, error) {
	path := "/predictions"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out struct {
		Predictions []entity.PredictionRecord `json:"predictions"`
	}
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Predictions, nil
}

func (c *Client) Profile(ctx context.Context, token string) (*entity.Profile, error) {
	var p entity.Profile
	if err := c.do(ctx, http.MethodGet, "/profile", token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, upd entity.ProfileUpdate) (*entity.Profile, error) {
	var p entity.Profile
	if err := c.do(ctx, http.MethodPatch, "/profile", token, upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Chat(ctx context.Context, token string, req entity.ChatRequest) (*entity.AIResponse, error) {
	var resp entity.AIResponse
	if err := c.do(ctx, http.MethodPost, "/chat", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return &StatusError{Status: resp.StatusCode, Message: e.Error}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
