package store

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/storage/memory/v2"
)

// MemoryStorage keeps entries in process memory. It is meant for a single
// instance deployment and for tests.
type MemoryStorage struct {
	mtx sync.Mutex
	db  *memory.Storage
}

func (s *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.db.Get(key)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	return val, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key string, val []byte, expiresIn time.Duration) error {
	if expiresIn < 0 {
		expiresIn = 0
	}
	return s.db.Set(key, val, expiresIn)
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	val, err := s.db.Get(key)
	if err != nil {
		return err
	}
	if val == nil {
		return ErrNotFound
	}
	return s.db.Delete(key)
}

func (s *MemoryStorage) Close() error {
	return s.db.Close()
}

func NewMemoryStorage(gcInterval time.Duration) *MemoryStorage {
	return &MemoryStorage{
		db: memory.New(memory.Config{GCInterval: gcInterval}),
	}
}
