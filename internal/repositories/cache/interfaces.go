package cacherepo

import (
	"context"
	"time"
)

type Cache interface {
	HGet(ctx context.Context, key string, field string) CacheResponse[string]
	HSet(ctx context.Context, key string, field string, value interface{}) CacheResponse[int64]
	Expire(ctx context.Context, key string, expiration time.Duration) CacheResponse[bool]
	Del(ctx context.Context, keys ...string) CacheResponse[int64]
}

type CacheResponse[T any] interface {
	Err() error
	Result() (T, error)
}
