package store

import (
	"context"

	"github.com/hatlonely/modelorm/kv/serializer"
	"github.com/pkg/errors"
)

// CodecStore 用序列化器把 V 存入字节存储
type CodecStore[V any] struct {
	store      BytesStore
	serializer serializer.Serializer[V, []byte]
}

func NewCodecStore[V any](store BytesStore, serializer serializer.Serializer[V, []byte]) *CodecStore[V] {
	return &CodecStore[V]{store: store, serializer: serializer}
}

func (s *CodecStore[V]) Set(ctx context.Context, key string, value V, opts ...setOption) error {
	buf, err := s.serializer.Serialize(value)
	if err != nil {
		return errors.WithMessage(err, "marshal value failed")
	}
	return s.store.Set(ctx, key, buf, opts...)
}

func (s *CodecStore[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	buf, err := s.store.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	value, err := s.serializer.Deserialize(buf)
	if err != nil {
		return zero, errors.WithMessage(err, "unmarshal value failed")
	}
	return value, nil
}

func (s *CodecStore[V]) Del(ctx context.Context, key string) error {
	return s.store.Del(ctx, key)
}

func (s *CodecStore[V]) BatchSet(ctx context.Context, keys []string, vals []V, opts ...setOption) ([]error, error) {
	if len(keys) != len(vals) {
		return nil, errors.New("keys and values length mismatch")
	}
	bufs := make([][]byte, len(vals))
	for i, v := range vals {
		buf, err := s.serializer.Serialize(v)
		if err != nil {
			return nil, errors.WithMessagef(err, "marshal value of key %s failed", keys[i])
		}
		bufs[i] = buf
	}
	return s.store.BatchSet(ctx, keys, bufs, opts...)
}

func (s *CodecStore[V]) Close() error {
	return s.store.Close()
}
