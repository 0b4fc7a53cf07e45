package binding

import (
	"context"

	"github.com/hatlonely/modelorm/log"
	"github.com/hatlonely/modelorm/rdb"
	"github.com/pkg/errors"
)

var (
	// ErrAlreadyRegistered 同一个表名已经注册了不同的存储类型
	ErrAlreadyRegistered = errors.New("storage type already registered")
	// ErrNotRegistered 表没有注册
	ErrNotRegistered = errors.New("storage type not registered")
)

// Base 接收生成的存储类型
type Base = rdb.Base

// Binding 存储引擎绑定
type Binding interface {
	Base
	Lookup(table string) (*rdb.StorageType, error)
	List() []*rdb.StorageType
	// Migrate 按注册顺序创建所有表
	Migrate(ctx context.Context) error
	// Insert 写入一条记录，记录的存储类型必须已注册
	Insert(ctx context.Context, record *rdb.Record) error
	Close() error
}

// Options 按 Type 选择绑定
type Options struct {
	Type  string        `cfg:"type" def:"registry" validate:"oneof=registry sql gorm es mongo"`
	SQL   *SQLOptions   `cfg:"sql"`
	Gorm  *GormOptions  `cfg:"gorm"`
	ES    *ESOptions    `cfg:"es"`
	Mongo *MongoOptions `cfg:"mongo"`
}

type bindingOptions struct {
	logger log.Logger
}

type Option func(*bindingOptions)

func WithLogger(logger log.Logger) Option {
	return func(o *bindingOptions) {
		o.logger = logger
	}
}

func newBindingOptions(opts []Option) *bindingOptions {
	o := &bindingOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	return o
}

// NewBindingWithOptions 按配置创建绑定
func NewBindingWithOptions(options *Options, opts ...Option) (Binding, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	switch options.Type {
	case "", "registry":
		return NewRegistry(opts...), nil
	case "sql":
		if options.SQL == nil {
			return nil, errors.New("sql options are required")
		}
		return NewSQLWithOptions(options.SQL, opts...)
	case "gorm":
		if options.Gorm == nil {
			return nil, errors.New("gorm options are required")
		}
		return NewGormWithOptions(options.Gorm, opts...)
	case "es":
		if options.ES == nil {
			return nil, errors.New("es options are required")
		}
		return NewESWithOptions(options.ES, opts...)
	case "mongo":
		if options.Mongo == nil {
			return nil, errors.New("mongo options are required")
		}
		return NewMongoWithOptions(options.Mongo, opts...)
	}
	return nil, errors.Errorf("unsupported binding type %q", options.Type)
}
