package client

import (
	"context"
	"encoding/json"

	"google.golang.org/genai"
)

// Topics the assistant scopes its semantic cache by.
var chatTopics = map[string]bool{
	"cibil": true, "loan": true, "insurance": true, "budget": true, "general": true,
}

type GeminiExtractor struct {
	client *genai.Client
	model  string
}

func NewGeminiExtractor(client *genai.Client, model string) *GeminiExtractor {
	return &GeminiExtractor{client: client, model: model}
}

func (e *GeminiExtractor) ExtractMetadata(ctx context.Context, prompt string) map[string]string {
	instruction := `Classify the user's finance question. Reply with a flat JSON object of strings and nothing else.
Keys: "topic" (one of cibil, loan, insurance, budget, general).
Example: "How do I improve my credit score?" -> {"topic": "cibil"}`

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}
	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(instruction+"\nQuestion: "+prompt), cfg)
	if err != nil {
		return nil
	}

	var metadata map[string]string
	if err := json.Unmarshal([]byte(resp.Text()), &metadata); err != nil {
		return nil
	}
	if !chatTopics[metadata["topic"]] {
		delete(metadata, "topic")
	}
	return metadata
}
