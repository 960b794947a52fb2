package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"cibil-store/internal/domain/entity"
	"cibil-store/internal/domain/repository"

	"go.uber.org/zap"
)

type ResilientProvider struct {
	primary    repository.AIProvider
	fallback   repository.AIProvider // optional cheaper model
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration // cap per generation, retries included
	log        *zap.Logger
}

func NewResilientProvider(primary, fallback repository.AIProvider, timeout time.Duration, log *zap.Logger) *ResilientProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResilientProvider{
		primary:    primary,
		fallback:   fallback,
		maxRetries: 2, // 3 attempts on the primary
		baseDelay:  500 * time.Millisecond,
		timeout:    timeout,
		log:        log,
	}
}

func (r *ResilientProvider) Generate(ctx context.Context, prompt string) (*entity.AIResponse, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := r.executeWithRetry(ctx, r.primary, prompt)
	if err == nil {
		return resp, nil
	}
	if r.fallback == nil {
		return nil, err
	}

	r.log.Warn("primary model exhausted, switching to fallback", zap.Error(err))

	resp, err = r.fallback.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("both primary and fallback failed: %w", err)
	}

	if resp.Metadata == nil {
		resp.Metadata = make(map[string]any)
	}
	resp.Metadata["fallback_used"] = true

	return resp, nil
}

func (r *ResilientProvider) executeWithRetry(ctx context.Context, p repository.AIProvider, prompt string) (*entity.AIResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		resp, err := p.Generate(ctx, prompt)
		if err == nil {
			if attempt > 0 {
				if resp.Metadata == nil {
					resp.Metadata = make(map[string]any)
				}
				resp.Metadata["retry_count"] = attempt
			}
			return resp, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == r.maxRetries {
			break
		}

		wait := r.calculateBackoff(attempt)
		select {
		case <-time.After(wait):
			continue
		case <-ctx.Done():
			return nil, &entity.UpstreamError{Err: ctx.Err()}
		}
	}
	return nil, lastErr
}

// isRetryable accepts rate limits, server errors and per-attempt deadlines.
func isRetryable(err error) bool {
	var upstream *entity.UpstreamError
	if !errors.As(err, &upstream) {
		return false
	}
	switch {
	case upstream.Status == http.StatusTooManyRequests, upstream.Status >= 500:
		return true
	case upstream.Status == 0:
		return errors.Is(err, context.DeadlineExceeded)
	}
	return false
}

func (r *ResilientProvider) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.baseDelay) * float64(int(1)<<attempt)
	jitter := (rand.Float64() * 0.2) * backoff // 20% jitter
	return time.Duration(backoff + jitter)
}
