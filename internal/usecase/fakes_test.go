package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cibil-store/internal/domain/entity"
	"cibil-store/internal/domain/repository"
)

type fakePredictor struct {
	text   string
	err    error
	calls  int
	prompt string
	params repository.GenerationParams
}

func (f *fakePredictor) Complete(ctx context.Context, prompt string, params repository.GenerationParams) (string, error) {
	f.calls++
	f.prompt = prompt
	f.params = params
	return f.text, f.err
}

type fakeIdentity struct {
	users map[string]string // token -> user id
	calls int
}

func (f *fakeIdentity) ResolveUser(ctx context.Context, token string) (*entity.Identity, error) {
	f.calls++
	id, ok := f.users[token]
	if !ok {
		return nil, errors.New("invalid JWT")
	}
	return &entity.Identity{UserID: id}, nil
}

type fakePredictionStore struct {
	mu      sync.Mutex
	records []entity.PredictionRecord
	err     error
}

func (f *fakePredictionStore) Insert(ctx context.Context, rec *entity.PredictionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	rec.ID = fmt.Sprintf("pred-%d", len(f.records)+1)
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakePredictionStore) ListByUser(ctx context.Context, userID string, limit int) ([]entity.PredictionRecord, error) {
	return nil, nil
}

type fakeProfileStore struct {
	scores map[string]int
	err    error
	calls  int
}

func (f *fakeProfileStore) UpdateCurrentScore(ctx context.Context, userID string, score int) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.scores == nil {
		f.scores = map[string]int{}
	}
	f.scores[userID] = score
	return nil
}

func (f *fakeProfileStore) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	return nil, entity.ErrResourceNotFound
}

func (f *fakeProfileStore) Update(ctx context.Context, userID string, upd entity.ProfileUpdate) (*entity.Profile, error) {
	return nil, entity.ErrResourceNotFound
}
