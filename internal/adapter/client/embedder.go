package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type Embedder struct {
	client *genai.Client
	model  string // e.g. "text-embedding-004"
	dim    int32
}

func NewEmbedderFromClient(c *genai.Client, model string, dim int32) *Embedder {
	return &Embedder{
		client: c,
		model:  model,
		dim:    dim,
	}
}

func (e *Embedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"}
	if e.dim > 0 {
		cfg.OutputDimensionality = genai.Ptr(e.dim)
	}
	res, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), cfg)
	if err != nil {
		return nil, upstreamError(err)
	}
	if len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, fmt.Errorf("embedding model %s returned no vectors", e.model)
	}
	return res.Embeddings[0].Values, nil
}
