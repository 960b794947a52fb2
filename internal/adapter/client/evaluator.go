package client

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiEvaluator decides whether a cached answer may be reused for a new
// question.
type GeminiEvaluator struct {
	client *genai.Client
	model  string
}

func NewGeminiEvaluator(client *genai.Client, model string) *GeminiEvaluator {
	return &GeminiEvaluator{client: client, model: model}
}

const judgeInstruction = `You compare two questions sent to a personal-finance assistant.
Answer YES only if one answer would be correct for both, including any amounts, loan types, score ranges or time frames they mention.
Otherwise answer NO. Reply with a single word.`

func (e *GeminiEvaluator) IsMatch(ctx context.Context, userPrompt, cachedPrompt string) bool {
	prompt := fmt.Sprintf("%s\n\nQuestion 1: %s\nQuestion 2: %s", judgeInstruction, userPrompt, cachedPrompt)

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0), MaxOutputTokens: 4}
	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), cfg)
	if err != nil {
		return false // a miss only costs a fresh generation
	}

	return strings.HasPrefix(strings.TrimSpace(strings.ToUpper(resp.Text())), "YES")
}
