package store

import (
	"context"
	"errors"

	"cibil-store/internal/domain/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

const profileColumns = `id::text, email, full_name, phone, address, current_cibil_score, created_at, updated_at`

func scanProfile(row pgx.Row) (*entity.Profile, error) {
	out := &entity.Profile{}
	err := row.Scan(&out.ID, &out.Email, &out.FullName, &out.Phone, &out.Address,
		&out.CurrentCibilScore, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateCurrentScore overwrites the denormalized score; last writer wins.
func (s *ProfileStore) UpdateCurrentScore(ctx context.Context, userID string, score int) error {
	q := `UPDATE profiles SET current_cibil_score = $2, updated_at = now() WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, userID, score)
	return err
}

func (s *ProfileStore) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(s.pool.QueryRow(ctx, q, userID))
}

func (s *ProfileStore) Update(ctx context.Context, userID string, upd entity.ProfileUpdate) (*entity.Profile, error) {
	q := `
UPDATE profiles
SET full_name = COALESCE($2, full_name),
    phone     = COALESCE($3, phone),
    address   = COALESCE($4, address),
    updated_at = now()
WHERE id = $1
RETURNING ` + profileColumns
	return scanProfile(s.pool.QueryRow(ctx, q, userID, upd.FullName, upd.Phone, upd.Address))
}
