package cachedocsrepo

import (
	"context"
	"time"

	cacherepo "kbdedup/internal/repositories/cache"
)

// repository stores rendered document lists as fields of one hash per
// knowledge base, so a single Del drops every cached page of it.
type repository struct {
	cache       cacherepo.Cache
	documentTTL time.Duration
}

func New(cache cacherepo.Cache, documentTTL time.Duration) *repository {
	return &repository{
		cache:       cache,
		documentTTL: documentTTL,
	}
}

func (r *repository) GetField(ctx context.Context, key string, field string) (string, error) {
	docsJSON, err := r.cache.HGet(ctx, key, field).Result()
	if err != nil {
		return "", err
	}

	return docsJSON, nil
}

func (r *repository) SetField(ctx context.Context, key string, field string, value interface{}) error {
	if err := r.cache.HSet(ctx, key, field, value).Err(); err != nil {
		return err
	}

	return r.cache.Expire(ctx, key, r.documentTTL).Err()
}

func (r *repository) Del(ctx context.Context, keys ...string) error {
	return r.cache.Del(ctx, keys...).Err()
}
