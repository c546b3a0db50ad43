package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type store[T any] struct {
	storage Storage
}

func (s *store[T]) Storage() Storage {
	return s.storage
}

func (s *store[T]) Get(ctx context.Context, key string) (T, error) {
	var obj T
	data, err := s.storage.Get(ctx, key)
	if err != nil {
		return obj, err
	}
	err = json.Unmarshal(data, &obj)
	return obj, err
}

func (s *store[T]) Set(ctx context.Context, key string, val T, expiresIn time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, key, data, expiresIn)
}

func (s *store[T]) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.storage.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *store[T]) Delete(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

// Take returns the value stored under key and removes it. Of several
// concurrent callers at most one succeeds, the others get ErrNotFound.
func (s *store[T]) Take(ctx context.Context, key string) (T, error) {
	obj, err := s.Get(ctx, key)
	if err != nil {
		return obj, err
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		var zero T
		return zero, err
	}
	return obj, nil
}

func New[T any](storage Storage, keyPrefix string) Store[T] {
	return &store[T]{
		storage: StorageWithPrefix(storage, keyPrefix),
	}
}
