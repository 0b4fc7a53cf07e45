package store

import (
	"context"
	"sync"

	"github.com/cockroachdb/fifo"
	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

type PebbleStoreOptions struct {
	// DBPath 数据库目录，不存在时自动创建
	DBPath string `cfg:"dbPath" validate:"required"`

	// 指定是否在写入时同步到磁盘
	SetWithoutSync bool `cfg:"setWithoutSync"`

	// CacheSize 块缓存大小，0 使用 pebble 的默认值
	CacheSize int64 `cfg:"cacheSize"`

	// LoadBlockSemaCapacity 大于 0 时限制并行加载的块数
	LoadBlockSemaCapacity int64 `cfg:"loadBlockSemaCapacity"`

	ReadOnly bool `cfg:"readOnly"`
}

type PebbleStore struct {
	db           *pebble.DB
	writeOptions *pebble.WriteOptions
	mu           sync.Mutex
}

func NewPebbleStoreWithOptions(options *PebbleStoreOptions) (*PebbleStore, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if options.DBPath == "" {
		return nil, errors.New("dbPath is required")
	}

	pebbleOptions := &pebble.Options{ReadOnly: options.ReadOnly}
	if options.CacheSize > 0 {
		cache := pebble.NewCache(options.CacheSize)
		defer cache.Unref()
		pebbleOptions.Cache = cache
	}
	if options.LoadBlockSemaCapacity > 0 {
		pebbleOptions.LoadBlockSema = fifo.NewSemaphore(options.LoadBlockSemaCapacity)
	}

	db, err := pebble.Open(options.DBPath, pebbleOptions)
	if err != nil {
		return nil, errors.Wrap(err, "pebble.Open failed")
	}

	writeOptions := pebble.Sync
	if options.SetWithoutSync {
		writeOptions = pebble.NoSync
	}
	return &PebbleStore{db: db, writeOptions: writeOptions}, nil
}

func (s *PebbleStore) Set(ctx context.Context, key string, value []byte, opts ...setOption) error {
	options := newSetOptions(opts)

	if options.IfNotExist {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, err := s.Get(ctx, key); err == nil {
			return ErrConditionFailed
		} else if !errors.Is(err, ErrKeyNotFound) {
			return err
		}
	}

	if err := s.db.Set([]byte(key), value, s.writeOptions); err != nil {
		return errors.Wrap(err, "pebble.Set failed")
	}
	return nil
}

func (s *PebbleStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "pebble.Get failed")
	}
	defer closer.Close()

	// data 只在 closer 关闭前有效
	return append([]byte(nil), data...), nil
}

func (s *PebbleStore) Del(ctx context.Context, key string) error {
	if err := s.db.Delete([]byte(key), s.writeOptions); err != nil {
		return errors.Wrap(err, "pebble.Delete failed")
	}
	return nil
}

func (s *PebbleStore) BatchSet(ctx context.Context, keys []string, vals [][]byte, opts ...setOption) ([]error, error) {
	if len(keys) != len(vals) {
		return nil, errors.New("keys and values length mismatch")
	}
	if newSetOptions(opts).IfNotExist {
		return batchSet[string, []byte](ctx, s, keys, vals, opts)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	for i, key := range keys {
		if err := batch.Set([]byte(key), vals[i], nil); err != nil {
			return nil, errors.Wrap(err, "batch.Set failed")
		}
	}
	if err := batch.Commit(s.writeOptions); err != nil {
		return nil, errors.Wrap(err, "batch.Commit failed")
	}
	return make([]error, len(keys)), nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}
