package store

import (
	"github.com/hatlonely/modelorm/cfg"
	"github.com/hatlonely/modelorm/kv/serializer"
	"github.com/pkg/errors"
)

// Options 按 Type 选择底层存储。除 map 外的存储都以字节保存，值通过 Serializer 编码
type Options struct {
	Type       string `cfg:"type" def:"map" validate:"oneof=map bolt leveldb pebble freecache redis"`
	Serializer string `cfg:"serializer" def:"msgpack" validate:"oneof=json msgpack bson protobuf"`

	Bolt      *BoltDBStoreOptions    `cfg:"bolt"`
	LevelDB   *LevelDBStoreOptions   `cfg:"leveldb"`
	Pebble    *PebbleStoreOptions    `cfg:"pebble"`
	FreeCache *FreeCacheStoreOptions `cfg:"freecache"`
	Redis     *RedisStoreOptions     `cfg:"redis"`

	// Observable 不为空时为存储添加日志、指标和追踪
	Observable *ObservableStoreOptions `cfg:"observable"`
}

// NewStoreWithOptions 创建以字符串为键的存储。未经 cfg 加载的 options 也会按 def tag 补全默认值
func NewStoreWithOptions[V any](options *Options, opts ...ObservableOption) (Store[string, V], error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if err := cfg.SetDefaults(options); err != nil {
		return nil, errors.WithMessage(err, "failed to set store defaults")
	}

	store, err := newStore[V](options)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create %s store", options.Type)
	}
	if options.Observable == nil {
		return store, nil
	}

	obs, err := NewObservableStoreWithOptions[string, V](store, options.Observable, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return obs, nil
}

func newStore[V any](options *Options) (Store[string, V], error) {
	if options.Type == "" || options.Type == "map" {
		return NewMapStore[string, V](), nil
	}

	s, err := serializer.NewByteSerializer[V](options.Serializer)
	if err != nil {
		return nil, err
	}

	var bytesStore BytesStore
	switch options.Type {
	case "bolt":
		bytesStore, err = NewBoltDBStoreWithOptions(options.Bolt)
	case "leveldb":
		bytesStore, err = NewLevelDBStoreWithOptions(options.LevelDB)
	case "pebble":
		bytesStore, err = NewPebbleStoreWithOptions(options.Pebble)
	case "freecache":
		freeCacheOptions := options.FreeCache
		if freeCacheOptions == nil {
			freeCacheOptions = &FreeCacheStoreOptions{}
		}
		bytesStore, err = NewFreeCacheStoreWithOptions(freeCacheOptions)
	case "redis":
		bytesStore, err = NewRedisStoreWithOptions(options.Redis)
	default:
		return nil, errors.Errorf("unsupported store type %q", options.Type)
	}
	if err != nil {
		return nil, err
	}
	return NewCodecStore[V](bytesStore, s), nil
}
