package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cibil-store/internal/domain/entity"
	"cibil-store/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const chatInstruction = `You are the AI CIBIL Store assistant. You help Indian retail customers with credit scores, loans, EMIs, insurance and personal budgeting.
Answer in at most five sentences, in plain language. Never ask for passwords, OTPs or full account numbers.`

const cacheThreshold = 0.80

// ChatOrchestrator answers assistant messages, reusing earlier answers to
// the same user's equivalent questions.
type ChatOrchestrator struct {
	vectorStore repository.VectorStore
	aiProvider  repository.AIProvider
	embedder    repository.Embedder
	judge       repository.IntentJudge
	extractor   repository.MetadataExtractor
	messages    repository.ChatStore
	log         *zap.Logger

	// background cache writes; tests swap it for a synchronous call
	async func(func())
}

func NewChatOrchestrator(vs repository.VectorStore, ai repository.AIProvider, emb repository.Embedder, judge repository.IntentJudge, ext repository.MetadataExtractor, msgs repository.ChatStore, log *zap.Logger) *ChatOrchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatOrchestrator{
		vectorStore: vs,
		aiProvider:  ai,
		embedder:    emb,
		judge:       judge,
		extractor:   ext,
		messages:    msgs,
		log:         log,
		async:       func(fn func()) { go fn() },
	}
}

func (u *ChatOrchestrator) Execute(ctx context.Context, req entity.ChatRequest) (*entity.AIResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is empty", entity.ErrInvalidInput)
	}
	if u.aiProvider == nil {
		return nil, entity.ErrAIKeyMissing
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}
	started := time.Now()

	// 1. Metadata for cache scoping
	filters := map[string]string{"user_id": req.UserID}
	if u.extractor != nil {
		for k, v := range u.extractor.ExtractMetadata(ctx, req.Message) {
			if k == "topic" {
				filters[k] = strings.ToLower(v)
			}
		}
	}

	// 2. Embedding and semantic cache lookup
	var vector []float32
	if u.embedder != nil && u.vectorStore != nil {
		var err error
		vector, err = u.embedder.CreateEmbedding(ctx, req.Message)
		if err != nil {
			u.log.Warn("embedding failed, skipping semantic cache", zap.Error(err))
			vector = nil
		}
	}
	if vector != nil {
		cached, original, err := u.vectorStore.Search(ctx, vector, cacheThreshold, filters)
		if err == nil && cached != nil && (u.judge == nil || u.judge.IsMatch(ctx, req.Message, original)) {
			cached.ConversationID = req.ConversationID
			cached.Latency = time.Since(started).Milliseconds()
			u.record(ctx, req, cached.Content)
			return cached, nil
		}
	}

	// 3. Generate
	resp, err := u.aiProvider.Generate(ctx, chatInstruction+"\n\nUser: "+req.Message)
	if err != nil {
		return nil, fmt.Errorf("AI provider generation failed: %w", err)
	}
	resp.ConversationID = req.ConversationID
	resp.Latency = time.Since(started).Milliseconds()

	// 4. Cache in the background; the request context may already be gone.
	if vector != nil {
		metadata := make(map[string]any, len(filters))
		for k, v := range filters {
			metadata[k] = v
		}
		u.async(func() {
			if err := u.vectorStore.Save(context.Background(), req.Message, resp, vector, metadata); err != nil {
				u.log.Warn("semantic cache save failed", zap.Error(err))
			}
		})
	}

	u.record(ctx, req, resp.Content)
	return resp, nil
}

func (u *ChatOrchestrator) record(ctx context.Context, req entity.ChatRequest, answer string) {
	if u.messages == nil {
		return
	}
	err := u.messages.Append(ctx,
		entity.ChatMessage{UserID: req.UserID, ConversationID: req.ConversationID, Role: entity.RoleUser, Content: req.Message},
		entity.ChatMessage{UserID: req.UserID, ConversationID: req.ConversationID, Role: entity.RoleAssistant, Content: answer},
	)
	if err != nil {
		u.log.Warn("chat history save failed", zap.String("conversation_id", req.ConversationID), zap.Error(err))
	}
}
