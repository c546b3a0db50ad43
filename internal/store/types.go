package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

// Storage is a byte-oriented key/value store with per-key expiry. Delete
// reports ErrNotFound when the key is absent or expired, which callers rely
// on to consume single-use entries.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, expiresIn time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Store[T any] interface {
	Storage() Storage
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, val T, expiresIn time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Take(ctx context.Context, key string) (T, error)
}
