package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

type LevelDBStoreOptions struct {
	// DBPath 数据库目录
	DBPath string `cfg:"dbPath" validate:"required"`

	// Compression default/none/snappy
	Compression string `cfg:"compression" validate:"omitempty,oneof=default none snappy"`

	// BlockCacheCapacity 块缓存大小，0 使用默认值
	BlockCacheCapacity int `cfg:"blockCacheCapacity"`

	ReadOnly bool `cfg:"readOnly"`

	// Sync 写入时是否同步到磁盘
	Sync bool `cfg:"sync"`
}

type LevelDBStore struct {
	db           *leveldb.DB
	writeOptions *opt.WriteOptions

	// 保证 IfNotExist 的检查和写入之间没有其他写入
	mu sync.Mutex
}

func NewLevelDBStoreWithOptions(options *LevelDBStoreOptions) (*LevelDBStore, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if options.DBPath == "" {
		return nil, errors.New("dbPath is required")
	}

	compression, err := leveldbParseCompression(options.Compression)
	if err != nil {
		return nil, err
	}

	db, err := leveldb.OpenFile(options.DBPath, &opt.Options{
		Compression:        compression,
		BlockCacheCapacity: options.BlockCacheCapacity,
		ReadOnly:           options.ReadOnly,
	})
	if err != nil {
		return nil, errors.Wrap(err, "leveldb.OpenFile failed. path: "+options.DBPath)
	}

	return &LevelDBStore{
		db:           db,
		writeOptions: &opt.WriteOptions{Sync: options.Sync},
	}, nil
}

func leveldbParseCompression(compression string) (opt.Compression, error) {
	switch compression {
	case "", "default":
		return opt.DefaultCompression, nil
	case "none":
		return opt.NoCompression, nil
	case "snappy":
		return opt.SnappyCompression, nil
	}
	return opt.DefaultCompression, errors.Errorf("unknown compression: %s", compression)
}

func (s *LevelDBStore) Set(ctx context.Context, key string, value []byte, opts ...setOption) error {
	options := newSetOptions(opts)

	if options.IfNotExist {
		s.mu.Lock()
		defer s.mu.Unlock()

		exists, err := s.db.Has([]byte(key), nil)
		if err != nil {
			return errors.Wrap(err, "leveldb.Has failed")
		}
		if exists {
			return ErrConditionFailed
		}
	}

	if err := s.db.Put([]byte(key), value, s.writeOptions); err != nil {
		return errors.Wrap(err, "leveldb.Put failed")
	}
	return nil
}

func (s *LevelDBStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "leveldb.Get failed")
	}
	return value, nil
}

func (s *LevelDBStore) Del(ctx context.Context, key string) error {
	if err := s.db.Delete([]byte(key), s.writeOptions); err != nil {
		return errors.Wrap(err, "leveldb.Delete failed")
	}
	return nil
}

// BatchSet 不带条件时使用 leveldb.Batch 原子写入
func (s *LevelDBStore) BatchSet(ctx context.Context, keys []string, vals [][]byte, opts ...setOption) ([]error, error) {
	if len(keys) != len(vals) {
		return nil, errors.New("keys and values length mismatch")
	}
	if newSetOptions(opts).IfNotExist {
		return batchSet[string, []byte](ctx, s, keys, vals, opts)
	}

	batch := new(leveldb.Batch)
	for i, key := range keys {
		batch.Put([]byte(key), vals[i])
	}
	if err := s.db.Write(batch, s.writeOptions); err != nil {
		return nil, errors.Wrap(err, "leveldb.Write failed")
	}
	return make([]error, len(keys)), nil
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
