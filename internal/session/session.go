// Package session keeps the CLI's login session and gates protected
// commands on it.
package session

import (
	"errors"
	"time"
)

var (
	ErrUnauthenticated = errors.New("not logged in")
	ErrSessionLost     = errors.New("session ended")
)

// Session is the stored login. Only AccessToken is sent to the API.
type Session struct {
	AccessToken  string    `yaml:"access_token"`
	RefreshToken string    `yaml:"refresh_token"`
	ExpiresAt    time.Time `yaml:"expires_at"`
	UserID       string    `yaml:"user_id"`
	Email        string    `yaml:"email"`
}

// Expired reports whether the access token is unusable at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || s.AccessToken == "" || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}
