package catalog

import (
	"context"

	"github.com/hatlonely/modelorm/kv/store"
	"github.com/hatlonely/modelorm/log"
	"github.com/hatlonely/modelorm/rdb"
	"github.com/pkg/errors"
)

// ErrNotFound 目录中没有这个表
var ErrNotFound = errors.New("table not found in catalog")

// Options 目录使用的存储
type Options struct {
	// KeyPrefix 表名前加的前缀，多个目录共用一个存储时区分
	KeyPrefix string         `cfg:"keyPrefix"`
	Store     *store.Options `cfg:"store"`
}

// Catalog 按表名保存存储类型的描述，重新加载后得到等价的存储类型
type Catalog struct {
	store     store.Store[string, *rdb.Descriptor]
	keyPrefix string
	logger    log.Logger
}

type catalogOptions struct {
	logger log.Logger
}

type Option func(*catalogOptions)

func WithLogger(logger log.Logger) Option {
	return func(o *catalogOptions) {
		o.logger = logger
	}
}

func New(s store.Store[string, *rdb.Descriptor], opts ...Option) *Catalog {
	o := &catalogOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	return &Catalog{store: s, logger: o.logger}
}

func NewWithOptions(options *Options, opts ...Option) (*Catalog, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	storeOptions := options.Store
	if storeOptions == nil {
		storeOptions = &store.Options{}
	}

	c := New(nil, opts...)
	s, err := store.NewStoreWithOptions[*rdb.Descriptor](storeOptions, store.WithObservableLogger(c.logger))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create catalog store")
	}
	c.store = s
	c.keyPrefix = options.KeyPrefix
	return c, nil
}

func (c *Catalog) key(table string) string {
	return c.keyPrefix + table
}

// Save 保存存储类型，同名表的描述会被覆盖
func (c *Catalog) Save(ctx context.Context, t *rdb.StorageType) error {
	if t == nil {
		return errors.New("storage type is nil")
	}
	if err := c.store.Set(ctx, c.key(t.Table), t.Descriptor()); err != nil {
		return errors.WithMessagef(err, "failed to save table %s", t.Table)
	}
	c.logger.DebugContext(ctx, "saved table", "table", t.Table)
	return nil
}

// SaveAll 批量保存，返回第一个失败的表
func (c *Catalog) SaveAll(ctx context.Context, types []*rdb.StorageType) error {
	keys := make([]string, 0, len(types))
	descriptors := make([]*rdb.Descriptor, 0, len(types))
	for _, t := range types {
		if t == nil {
			return errors.New("storage type is nil")
		}
		keys = append(keys, c.key(t.Table))
		descriptors = append(descriptors, t.Descriptor())
	}

	errs, err := c.store.BatchSet(ctx, keys, descriptors)
	if err != nil {
		return errors.WithMessage(err, "failed to save tables")
	}
	for i, err := range errs {
		if err != nil {
			return errors.WithMessagef(err, "failed to save table %s", types[i].Table)
		}
	}
	c.logger.DebugContext(ctx, "saved tables", "count", len(types))
	return nil
}

// Load 读取并重建存储类型
func (c *Catalog) Load(ctx context.Context, table string) (*rdb.StorageType, error) {
	d, err := c.store.Get(ctx, c.key(table))
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil, errors.WithMessagef(ErrNotFound, "table %s", table)
		}
		return nil, errors.WithMessagef(err, "failed to load table %s", table)
	}
	t, err := rdb.FromDescriptor(d)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid descriptor of table %s", table)
	}
	return t, nil
}

// LoadInto 读取存储类型并注册到 base
func (c *Catalog) LoadInto(ctx context.Context, base rdb.Base, tables ...string) ([]*rdb.StorageType, error) {
	types := make([]*rdb.StorageType, 0, len(tables))
	for _, table := range tables {
		t, err := c.Load(ctx, table)
		if err != nil {
			return nil, err
		}
		if err := base.Register(t); err != nil {
			return nil, errors.WithMessagef(err, "failed to register table %s", table)
		}
		types = append(types, t)
	}
	return types, nil
}

func (c *Catalog) Delete(ctx context.Context, table string) error {
	if err := c.store.Del(ctx, c.key(table)); err != nil {
		return errors.WithMessagef(err, "failed to delete table %s", table)
	}
	return nil
}

func (c *Catalog) Close() error {
	return c.store.Close()
}
