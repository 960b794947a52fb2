package client

import (
	"context"
	"errors"
	"time"

	"cibil-store/internal/domain/entity"
	"cibil-store/internal/domain/repository"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient builds a Gemini Developer API client keyed by apiKey.
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func NewGeminiClientFromClient(c *genai.Client, model string) *GeminiClient {
	return &GeminiClient{
		client: c,
		model:  model,
	}
}

// Generate is a free-form completion with the model's default sampling.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (*entity.AIResponse, error) {
	started := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, upstreamError(err)
	}

	text := firstText(result)
	if text == "" {
		return nil, entity.ErrNoPrediction
	}
	resp := &entity.AIResponse{
		Content: text,
		Model:   g.model,
		Latency: time.Since(started).Milliseconds(),
	}
	if result.UsageMetadata != nil {
		resp.TokenCount = int(result.UsageMetadata.TotalTokenCount)
	}
	return resp, nil
}

// Complete sends a single-turn prompt with fixed sampling parameters.
func (g *GeminiClient) Complete(ctx context.Context, prompt string, params repository.GenerationParams) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(params.Temperature),
		TopK:            genai.Ptr(params.TopK),
		TopP:            genai.Ptr(params.TopP),
		MaxOutputTokens: params.MaxOutputTokens,
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", upstreamError(err)
	}
	text := firstText(result)
	if text == "" {
		return "", entity.ErrNoPrediction
	}
	return text, nil
}

// firstText returns the first text part of the first candidate.
func firstText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 {
		return ""
	}
	content := result.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return ""
	}
	return content.Parts[0].Text
}

func upstreamError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &entity.UpstreamError{Status: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &entity.UpstreamError{Status: apiErrPtr.Code, Err: err}
	}
	return &entity.UpstreamError{Err: err}
}
