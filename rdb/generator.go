package rdb

import (
	"github.com/hatlonely/modelorm/log"
	"github.com/hatlonely/modelorm/model"
	"github.com/pkg/errors"
)

// DefaultTablePrefix 生成表名时默认使用的前缀
const DefaultTablePrefix = "orm_"

// Base 存储引擎绑定，接收生成的存储类型
type Base interface {
	Register(t *StorageType) error
}

type generateOptions struct {
	prefix string
	logger log.Logger
}

type GenerateOption func(*generateOptions)

// WithTablePrefix 指定表名前缀
func WithTablePrefix(prefix string) GenerateOption {
	return func(o *generateOptions) {
		o.prefix = prefix
	}
}

func WithLogger(logger log.Logger) GenerateOption {
	return func(o *generateOptions) {
		o.logger = logger
	}
}

// Generate 由模型定义生成存储类型并注册到 base。base 为 nil 时只生成不注册。
// 模型的 Meta.TablePrefix 不参与表名计算，前缀统一由 WithTablePrefix 决定
func Generate(m any, base Base, opts ...GenerateOption) (*StorageType, error) {
	options := generateOptions{prefix: DefaultTablePrefix}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = log.Default()
	}

	if !model.IsModelType(m) {
		return nil, errors.WithMessagef(ErrNotAModel, "%T", m)
	}
	def := m.(model.Model).ModelDefinition()
	if err := def.Validate(); err != nil {
		return nil, errors.WithMessage(ErrNotAModel, err.Error())
	}

	columns, relations, indexes, err := Emit(def, options.prefix)
	if err != nil {
		return nil, err
	}

	t := newStorageType(TableName(options.prefix, def.Name), columns, relations, indexes, def)
	if base != nil {
		if err := base.Register(t); err != nil {
			return nil, errors.WithMessagef(err, "failed to register table %s", t.Table)
		}
	}

	options.logger.Debug("generated storage type",
		"model", def.Name, "table", t.Table, "columns", len(t.Columns), "relations", len(t.Relations))
	return t, nil
}

// GenerateAll 按顺序为一组模型生成存储类型，任何一个失败即返回
func GenerateAll(set *model.Set, base Base, opts ...GenerateOption) ([]*StorageType, error) {
	defs := set.Definitions()
	types := make([]*StorageType, 0, len(defs))
	for _, def := range defs {
		t, err := Generate(def, base, opts...)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}
