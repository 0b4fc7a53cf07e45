package store

import (
	"context"
	"sync"
	"time"

	"github.com/coocood/freecache"
	"github.com/pkg/errors"
)

// DefaultFreeCacheSize 未配置 Size 时的缓存大小，单个值最大为其 1/1024
const DefaultFreeCacheSize = 10 * 1024 * 1024

// ErrEntryTooLarge 值超过 freecache 单条上限（缓存大小的 1/1024）
var ErrEntryTooLarge = errors.New("entry too large for freecache")

type FreeCacheStoreOptions struct {
	// Size 缓存大小（字节），freecache 最小 512KB
	Size       int           `cfg:"size" def:"10485760"`
	DefaultTTL time.Duration `cfg:"defaultTTL"`
}

// FreeCacheStore 进程内缓存，容量满时按 LRU 淘汰
type FreeCacheStore struct {
	cache      *freecache.Cache
	defaultTTL time.Duration
	mu         sync.Mutex
}

func NewFreeCacheStoreWithOptions(options *FreeCacheStoreOptions) (*FreeCacheStore, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	size := options.Size
	if size <= 0 {
		size = DefaultFreeCacheSize
	}
	return &FreeCacheStore{
		cache:      freecache.NewCache(size),
		defaultTTL: options.DefaultTTL,
	}, nil
}

func (s *FreeCacheStore) Set(ctx context.Context, key string, value []byte, opts ...setOption) error {
	options := newSetOptions(opts)

	expiration := options.Expiration
	if expiration == 0 && s.defaultTTL > 0 {
		expiration = s.defaultTTL
	}

	if options.IfNotExist {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, err := s.cache.Get([]byte(key)); err == nil {
			return ErrConditionFailed
		}
	}

	if err := s.cache.Set([]byte(key), value, int(expiration.Seconds())); err != nil {
		if errors.Is(err, freecache.ErrLargeEntry) {
			return errors.WithMessagef(ErrEntryTooLarge, "key %s, value size %d", key, len(value))
		}
		return errors.Wrap(err, "freecache.Set failed")
	}
	return nil
}

func (s *FreeCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.cache.Get([]byte(key))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "freecache.Get failed")
	}
	return value, nil
}

func (s *FreeCacheStore) Del(ctx context.Context, key string) error {
	s.cache.Del([]byte(key))
	return nil
}

func (s *FreeCacheStore) BatchSet(ctx context.Context, keys []string, vals [][]byte, opts ...setOption) ([]error, error) {
	return batchSet[string, []byte](ctx, s, keys, vals, opts)
}

func (s *FreeCacheStore) Close() error {
	s.cache.Clear()
	return nil
}
