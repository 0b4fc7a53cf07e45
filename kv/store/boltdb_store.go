package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

type BoltDBStoreOptions struct {
	// DBPath 数据库文件路径，目录不存在时自动创建
	DBPath string `cfg:"dbPath" validate:"required"`

	// Timeout 获取文件锁的等待时间，0 表示一直等待
	Timeout time.Duration `cfg:"timeout" def:"1s"`

	// 不将 freelist 同步到磁盘
	NoFreelistSync bool `cfg:"noFreelistSync"`

	// FreelistType array 或 hashmap，默认 array
	FreelistType string `cfg:"freelistType" validate:"omitempty,oneof=array hashmap"`

	ReadOnly bool `cfg:"readOnly"`
	NoSync   bool `cfg:"noSync"`

	BucketName string `cfg:"bucketName" def:"default"`
}

type BoltDBStore struct {
	db         *bolt.DB
	bucketName []byte
}

func NewBoltDBStoreWithOptions(options *BoltDBStoreOptions) (*BoltDBStore, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if options.DBPath == "" {
		return nil, errors.New("dbPath is required")
	}

	directory := filepath.Dir(options.DBPath)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, errors.Wrapf(err, "os.MkdirAll failed. directory: %s", directory)
	}

	db, err := bolt.Open(options.DBPath, 0600, &bolt.Options{
		Timeout:        options.Timeout,
		NoFreelistSync: options.NoFreelistSync,
		FreelistType:   bolt.FreelistType(options.FreelistType),
		ReadOnly:       options.ReadOnly,
		NoSync:         options.NoSync,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "bolt.Open failed. dbPath: %s", options.DBPath)
	}

	bucketName := options.BucketName
	if bucketName == "" {
		bucketName = "default"
	}
	store := &BoltDBStore{db: db, bucketName: []byte(bucketName)}

	if !options.ReadOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(store.bucketName)
			return err
		})
		if err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "create bucket failed")
		}
	}
	return store, nil
}

func (s *BoltDBStore) bucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	bucket := tx.Bucket(s.bucketName)
	if bucket == nil {
		return nil, errors.Errorf("bucket %s not found", s.bucketName)
	}
	return bucket, nil
}

func (s *BoltDBStore) Set(ctx context.Context, key string, value []byte, opts ...setOption) error {
	options := newSetOptions(opts)

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := s.bucket(tx)
		if err != nil {
			return err
		}
		if options.IfNotExist && bucket.Get([]byte(key)) != nil {
			return ErrConditionFailed
		}
		return bucket.Put([]byte(key), value)
	})
}

func (s *BoltDBStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket, err := s.bucket(tx)
		if err != nil {
			return err
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return ErrKeyNotFound
		}
		// 复制数据，因为 BoltDB 会重用内存
		value = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *BoltDBStore) Del(ctx context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := s.bucket(tx)
		if err != nil {
			return err
		}
		return bucket.Delete([]byte(key))
	})
}

// BatchSet 在一个事务中写入
func (s *BoltDBStore) BatchSet(ctx context.Context, keys []string, vals [][]byte, opts ...setOption) ([]error, error) {
	if len(keys) != len(vals) {
		return nil, errors.New("keys and values length mismatch")
	}
	options := newSetOptions(opts)

	errs := make([]error, len(keys))
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := s.bucket(tx)
		if err != nil {
			return err
		}
		for i, key := range keys {
			if options.IfNotExist && bucket.Get([]byte(key)) != nil {
				errs[i] = ErrConditionFailed
				continue
			}
			if err := bucket.Put([]byte(key), vals[i]); err != nil {
				return errors.Wrapf(err, "put key %s failed", key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return errs, nil
}

func (s *BoltDBStore) Close() error {
	return s.db.Close()
}
