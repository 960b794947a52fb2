package store

import (
	"context"
	"encoding/json"
	"fmt"

	"cibil-store/internal/domain/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PredictionStore struct {
	pool *pgxpool.Pool
}

func NewPredictionStore(pool *pgxpool.Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

// Insert writes one cibil_predictions row and fills in ID and CreatedAt.
func (s *PredictionStore) Insert(ctx context.Context, rec *entity.PredictionRecord) error {
	factors, err := json.Marshal(rec.Factors)
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}
	suggestions, err := json.Marshal(rec.Suggestions)
	if err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}

	q := `
INSERT INTO cibil_predictions
    (user_id, income, existing_loans, payment_history, credit_utilization, recent_inquiries, predicted_score, factors, suggestions)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb)
RETURNING id::text, created_at
`
	return s.pool.QueryRow(ctx, q,
		rec.UserID, rec.Income, rec.ExistingLoans, rec.PaymentHistory,
		rec.CreditUtilization, rec.RecentInquiries, rec.PredictedScore,
		string(factors), string(suggestions),
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (s *PredictionStore) ListByUser(ctx context.Context, userID string, limit int) ([]entity.PredictionRecord, error) {
	q := `
SELECT id::text, user_id::text, income, existing_loans, payment_history, credit_utilization, recent_inquiries,
       predicted_score, COALESCE(factors, '[]'::jsonb), COALESCE(suggestions, '[]'::jsonb), created_at
FROM cibil_predictions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := s.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.PredictionRecord, error) {
		var rec entity.PredictionRecord
		var factors, suggestions []byte
		err := row.Scan(&rec.ID, &rec.UserID, &rec.Income, &rec.ExistingLoans, &rec.PaymentHistory,
			&rec.CreditUtilization, &rec.RecentInquiries, &rec.PredictedScore, &factors, &suggestions, &rec.CreatedAt)
		if err != nil {
			return rec, err
		}
		if err := json.Unmarshal(factors, &rec.Factors); err != nil {
			return rec, fmt.Errorf("decode factors of %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal(suggestions, &rec.Suggestions); err != nil {
			return rec, fmt.Errorf("decode suggestions of %s: %w", rec.ID, err)
		}
		return rec, nil
	})
}
