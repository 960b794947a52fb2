package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"cibil-store/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	errs  []error
	calls int
	model string
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string) (*entity.AIResponse, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	return &entity.AIResponse{Content: "ok from " + p.model, Model: p.model}, nil
}

func fastProvider(primary, fallback *scriptedProvider) *ResilientProvider {
	r := NewResilientProvider(primary, nil, time.Second, nil)
	if fallback != nil {
		r.fallback = fallback
	}
	r.baseDelay = time.Millisecond
	return r
}

func TestResilientProvider_RetriesRateLimits(t *testing.T) {
	primary := &scriptedProvider{model: "primary", errs: []error{
		&entity.UpstreamError{Status: 429},
		&entity.UpstreamError{Status: 503},
	}}
	r := fastProvider(primary, nil)

	resp, err := r.Generate(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, 3, primary.calls)
	assert.Equal(t, 2, resp.Metadata["retry_count"])
}

func TestResilientProvider_DoesNotRetryClientErrors(t *testing.T) {
	primary := &scriptedProvider{model: "primary", errs: []error{&entity.UpstreamError{Status: 400}}}
	r := fastProvider(primary, nil)

	_, err := r.Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.Equal(t, 1, primary.calls)
}

func TestResilientProvider_FallsBack(t *testing.T) {
	down := &entity.UpstreamError{Status: 500}
	primary := &scriptedProvider{model: "primary", errs: []error{down, down, down}}
	fallback := &scriptedProvider{model: "fallback"}
	r := fastProvider(primary, fallback)

	resp, err := r.Generate(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "fallback", resp.Model)
	assert.Equal(t, true, resp.Metadata["fallback_used"])
	assert.Equal(t, 3, primary.calls)
}

func TestResilientProvider_BothFail(t *testing.T) {
	down := &entity.UpstreamError{Status: 500}
	primary := &scriptedProvider{errs: []error{down, down, down}}
	fallback := &scriptedProvider{errs: []error{errors.New("boom")}}
	r := fastProvider(primary, fallback)

	_, err := r.Generate(context.Background(), "hi")

	assert.ErrorContains(t, err, "both primary and fallback failed")
}
