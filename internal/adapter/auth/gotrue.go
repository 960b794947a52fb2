package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cibil-store/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
)

// GoTrueClient talks to the hosted identity service (/auth/v1).
type GoTrueClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewGoTrueClient(projectURL, apiKey string) *GoTrueClient {
	return &GoTrueClient{
		baseURL: strings.TrimRight(projectURL, "/") + "/auth/v1",
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Tokens is a session as issued by the identity service.
type Tokens struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         remoteUser `json:"user"`
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// APIError is a non-2xx answer from the identity service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity service error (status %d): %s", e.Status, e.Message)
}

// ResolveUser validates token against the identity service.
func (c *GoTrueClient) ResolveUser(ctx context.Context, token string) (*entity.Identity, error) {
	var u remoteUser
	if err := c.do(ctx, http.MethodGet, "/user", token, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, entity.ErrUnauthorized
	}
	return &entity.Identity{UserID: u.ID, Email: u.Email, ExpiresAt: tokenExpiry(token)}, nil
}

// tokenExpiry reads exp without verifying the signature; the identity
// service has already accepted the token.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func (c *GoTrueClient) SignUp(ctx context.Context, email, password, fullName string) (*Tokens, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}
	var out Tokens
	if err := c.do(ctx, http.MethodPost, "/signup", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GoTrueClient) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	body := map[string]string{"email": email, "password": password}
	var out Tokens
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GoTrueClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var out Tokens
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

func (c *GoTrueClient) do(ctx context.Context, method, path, bearer string, in, out any) error {
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
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// errorMessage picks the human-readable field out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		for _, s := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
			if s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(raw))
}

// Expiry returns when the access token expires.
func (t *Tokens) Expiry(now time.Time) time.Time {
	if t.ExpiresAt > 0 {
		return time.Unix(t.ExpiresAt, 0)
	}
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

