package rdb

import "github.com/pkg/errors"

var (
	// ErrNotAModel 生成的输入不是模型定义
	ErrNotAModel = errors.New("not a model definition")
	// ErrUnsupportedType 字段类型无法映射为列类型
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrInvalidPrimaryKey 主键不存在、是引用字段，或被引用的模型没有主键
	ErrInvalidPrimaryKey = errors.New("invalid primary key")
	// ErrCyclicReference 解析引用类型时出现环
	ErrCyclicReference = errors.New("cyclic reference")
	// ErrTypeMismatch 复制构造的参数不是源模型的实例
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrMissingRequiredArgument 缺少必填字段或其外键
	ErrMissingRequiredArgument = errors.New("missing required argument")
	// ErrUnknownField 索引引用了不存在的字段
	ErrUnknownField = errors.New("unknown field")
	// ErrDuplicateColumn 两个字段生成了同名的列，通常是标量字段和引用字段的外键列重名
	ErrDuplicateColumn = errors.New("duplicate column")
)
