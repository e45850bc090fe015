package inmemory

import (
	"context"
	"sync"

	"policy-records-go/internal/kv"
)

// KVStore keeps values in process memory. A positive maxValueBytes rejects
// oversized writes with kv.ErrQuotaExceeded, the way a browser storage quota
// would.
type KVStore struct {
	mu            sync.RWMutex
	items         map[string][]byte
	maxValueBytes int
}

func NewKVStore(maxValueBytes int) *KVStore {
	return &KVStore{
		items:         make(map[string][]byte),
		maxValueBytes: maxValueBytes,
	}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	value, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxValueBytes > 0 && len(value) > s.maxValueBytes {
		return kv.ErrQuotaExceeded
	}

	s.mu.Lock()
	s.items[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Keys lists stored keys in no particular order.
func (s *KVStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	return keys
}

func (s *KVStore) Close() error {
	return nil
}
