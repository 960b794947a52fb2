package repository

import (
	"context"

	"cibil-store/internal/domain/entity"
)

// GenerationParams are the sampling settings for one completion.
type GenerationParams struct {
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

type AIProvider interface {
	Generate(ctx context.Context, prompt string) (*entity.AIResponse, error)
}

// Predictor is a single-shot completion with fixed sampling parameters.
// Implementations return the first text part of the first candidate.
type Predictor interface {
	Complete(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

type IdentityProvider interface {
	ResolveUser(ctx context.Context, token string) (*entity.Identity, error)
}

type IdentityCache interface {
	Get(ctx context.Context, token string) (*entity.Identity, error)
	Set(ctx context.Context, token string, id *entity.Identity) error
}

type PredictionStore interface {
	Insert(ctx context.Context, rec *entity.PredictionRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]entity.PredictionRecord, error)
}

type ProfileStore interface {
	UpdateCurrentScore(ctx context.Context, userID string, score int) error
	Get(ctx context.Context, userID string) (*entity.Profile, error)
	Update(ctx context.Context, userID string, upd entity.ProfileUpdate) (*entity.Profile, error)
}

type ChatStore interface {
	Append(ctx context.Context, msgs ...entity.ChatMessage) error
}

type VectorStore interface {
	Search(ctx context.Context, vector []float32, threshold float32, filters map[string]string) (*entity.AIResponse, string, error)
	Save(ctx context.Context, prompt string, resp *entity.AIResponse, vector []float32, metadata map[string]any) error
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type IntentJudge interface {
	IsMatch(ctx context.Context, userPrompt, cachedPrompt string) bool
}

type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, prompt string) map[string]string
}
