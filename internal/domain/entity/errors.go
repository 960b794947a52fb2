package entity

import (
	"errors"
	"fmt"
)

// Standard domain errors. Messages reach API clients verbatim.
var (
	ErrAIKeyMissing           = errors.New("GEMINI_API_KEY is not configured")
	ErrDataStoreNotConfigured = errors.New("data store is not configured")
	ErrInvalidInput           = errors.New("invalid request parameters")
	ErrNoPrediction           = errors.New("No prediction generated")
	ErrMalformedResponse      = errors.New("malformed upstream response")
	ErrMissingAuthorization   = errors.New("Missing authorization header")
	ErrUnauthorized           = errors.New("Unauthorized")
	ErrSavePrediction         = errors.New("Failed to save prediction")
	ErrResourceNotFound       = errors.New("the requested resource was not found")
)

// UpstreamError is a failed call to the generative-language endpoint.
// Status is zero when no HTTP status was received (timeout, network).
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Gemini API error: %d", e.Status)
	}
	return fmt.Sprintf("Gemini API error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Kind groups errors by how a caller should react to them.
type Kind string

const (
	KindConfig      Kind = "config"
	KindInput       Kind = "input"
	KindUpstream    Kind = "upstream"
	KindMalformed   Kind = "malformed_response"
	KindAuth        Kind = "auth"
	KindPersistence Kind = "persistence"
	KindNotFound    Kind = "not_found"
	KindInternal    Kind = "internal"
)

func KindOf(err error) Kind {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAIKeyMissing), errors.Is(err, ErrDataStoreNotConfigured):
		return KindConfig
	case errors.Is(err, ErrInvalidInput):
		return KindInput
	case errors.As(err, &upstream), errors.Is(err, ErrNoPrediction):
		return KindUpstream
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, ErrMissingAuthorization), errors.Is(err, ErrUnauthorized):
		return KindAuth
	case errors.Is(err, ErrSavePrediction):
		return KindPersistence
	case errors.Is(err, ErrResourceNotFound):
		return KindNotFound
	}
	return KindInternal
}
