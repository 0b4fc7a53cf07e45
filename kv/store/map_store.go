package store

import (
	"context"
	"sync"
)

// MapStore 内存存储，可以并发使用
type MapStore[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewMapStore[K comparable, V any]() *MapStore[K, V] {
	return &MapStore[K, V]{
		m: make(map[K]V),
	}
}

func (s *MapStore[K, V]) Set(ctx context.Context, key K, value V, opts ...setOption) error {
	options := newSetOptions(opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	if options.IfNotExist {
		if _, exists := s.m[key]; exists {
			return ErrConditionFailed
		}
	}
	s.m[key] = value
	return nil
}

func (s *MapStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.m[key]
	if !exists {
		var zero V
		return zero, ErrKeyNotFound
	}
	return value, nil
}

func (s *MapStore[K, V]) Del(ctx context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *MapStore[K, V]) BatchSet(ctx context.Context, keys []K, vals []V, opts ...setOption) ([]error, error) {
	return batchSet[K, V](ctx, s, keys, vals, opts)
}

func (s *MapStore[K, V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[K]V)
	return nil
}
