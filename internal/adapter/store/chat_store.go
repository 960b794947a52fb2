package store

import (
	"context"

	"cibil-store/internal/domain/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatStore struct {
	pool *pgxpool.Pool
}

func NewChatStore(pool *pgxpool.Pool) *ChatStore {
	return &ChatStore{pool: pool}
}

// Append writes the messages in order inside one transaction.
func (s *ChatStore) Append(ctx context.Context, msgs ...entity.ChatMessage) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		q := `INSERT INTO chat_messages (user_id, conversation_id, role, content) VALUES ($1, $2, $3, $4)`
		for _, m := range msgs {
			if _, err := tx.Exec(ctx, q, m.UserID, m.ConversationID, m.Role, m.Content); err != nil {
				return err
			}
		}
		return nil
	})
}
