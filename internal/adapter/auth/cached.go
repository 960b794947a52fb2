package auth

import (
	"context"
	"time"

	"cibil-store/internal/domain/entity"
	"cibil-store/internal/domain/repository"

	"go.uber.org/zap"
)

// CachedIdentity consults cache before next. Cache failures fall through
// to next and are only logged. A hit whose token has expired is rejected.
type CachedIdentity struct {
	next  repository.IdentityProvider
	cache repository.IdentityCache
	log   *zap.Logger
	now   func() time.Time
}

func NewCachedIdentity(next repository.IdentityProvider, cache repository.IdentityCache, log *zap.Logger) *CachedIdentity {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedIdentity{next: next, cache: cache, log: log, now: time.Now}
}

func (c *CachedIdentity) ResolveUser(ctx context.Context, token string) (*entity.Identity, error) {
	id, err := c.cache.Get(ctx, token)
	if err != nil {
		c.log.Warn("identity cache read failed", zap.Error(err))
	}
	if id != nil {
		if id.Expired(c.now()) {
			return nil, entity.ErrUnauthorized
		}
		return id, nil
	}

	id, err = c.next.ResolveUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if id.Expired(c.now()) {
		return nil, entity.ErrUnauthorized
	}
	if err := c.cache.Set(ctx, token, id); err != nil {
		c.log.Warn("identity cache write failed", zap.Error(err))
	}
	return id, nil
}
