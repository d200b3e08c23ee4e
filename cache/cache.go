package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("key not found in cache")
	ErrClosed   = errors.New("cache is closed")
)

type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Get(ctx context.Context, key string) ([]byte, error)

	Delete(ctx context.Context, key string) error

	Close() error
}

type Options struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}
