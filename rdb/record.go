package rdb

import (
	"github.com/hatlonely/modelorm/model"
	"github.com/pkg/errors"
)

// Record 存储类型的一条记录，只能通过 FromModelInstance/FromFields/New 创建。
// 记录保存的是构造时的值快照
type Record struct {
	typ    *StorageType
	values map[string]any
}

// FromModelInstance 复制构造：v 必须是源模型的实例。
// 每个声明字段取实例中的值，缺失时取字段默认值，都没有则不设置
func (t *StorageType) FromModelInstance(v model.Valuer) (*Record, error) {
	if v == nil || !model.IsModelInstance(v) {
		return nil, errors.WithMessagef(ErrTypeMismatch, "%T is not an instance of model %s", v, t.Model.Name)
	}
	if !t.Model.Equal(v.Model()) {
		return nil, errors.WithMessagef(ErrTypeMismatch, "instance of model %s is not an instance of model %s", v.Model().Name, t.Model.Name)
	}

	values := make(map[string]any, len(t.Model.Fields))
	for _, f := range t.Model.Fields {
		if val, ok := v.Value(f.Name); ok {
			values[f.Name] = val
		} else if f.Default != nil {
			values[f.Name] = f.Default
		}
	}
	return &Record{typ: t, values: values}, nil
}

// FromFields 关键字构造：每个必填字段需要按字段名提供，
// 引用字段也可以用外键列名提供。校验通过后所有键原样保存，不在模型中的键也会保存
func (t *StorageType) FromFields(fields map[string]any) (*Record, error) {
	for _, f := range t.Model.Fields {
		if !f.Required {
			continue
		}
		if _, ok := fields[f.Name]; ok {
			continue
		}
		if fk, ok := t.ForeignKeyColumn(f.Name); ok {
			if _, ok := fields[fk]; ok {
				continue
			}
			return nil, errors.WithMessagef(ErrMissingRequiredArgument,
				"model %s requires field %q or foreign key %q", t.Model.Name, f.Name, fk)
		}
		return nil, errors.WithMessagef(ErrMissingRequiredArgument, "model %s requires field %q", t.Model.Name, f.Name)
	}

	for _, rel := range t.Relations {
		if v, ok := fields[rel.FieldName]; ok && model.IsSequence(v) {
			return nil, errors.WithMessagef(ErrTypeMismatch,
				"reference field %q of model %s takes a single instance or key, got %T", rel.FieldName, t.Model.Name, v)
		}
	}

	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return &Record{typ: t, values: values}, nil
}

// New 单一入口：只有一个非 map 参数时按复制构造处理，
// 否则合并所有 map[string]any 参数按关键字构造处理
func (t *StorageType) New(args ...any) (*Record, error) {
	var positional []any
	var keywords []map[string]any
	for _, arg := range args {
		if kw, ok := arg.(map[string]any); ok {
			keywords = append(keywords, kw)
		} else {
			positional = append(positional, arg)
		}
	}

	if len(positional) == 1 && len(keywords) == 0 {
		if model.IsText(positional[0]) || model.IsSequence(positional[0]) {
			return nil, errors.WithMessagef(ErrTypeMismatch,
				"copy construction of model %s takes a model instance, got %T", t.Model.Name, positional[0])
		}
		v, ok := positional[0].(model.Valuer)
		if !ok {
			return nil, errors.WithMessagef(ErrTypeMismatch, "%T is not an instance of model %s", positional[0], t.Model.Name)
		}
		return t.FromModelInstance(v)
	}

	fields := map[string]any{}
	for _, kw := range keywords {
		for k, v := range kw {
			fields[k] = v
		}
	}
	return t.FromFields(fields)
}

// Type 记录所属的存储类型
func (r *Record) Type() *StorageType {
	return r.typ
}

// Get 读取字段值
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Values 返回所有值的拷贝
func (r *Record) Values() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// ColumnValues 按列名组织的值，用于写入存储。
// 引用字段优先使用外键列的值，其次取被引用实例的主键值；不属于任何列的值被忽略
func (r *Record) ColumnValues() map[string]any {
	m := make(map[string]any, len(r.typ.Columns))
	for _, c := range r.typ.Columns {
		if v, ok := r.values[c.Name]; ok {
			m[c.Name] = v
			continue
		}
		if c.ForeignKey == nil {
			continue
		}
		rel := r.relationOf(c.Name)
		if rel == nil {
			continue
		}
		v, ok := r.values[rel.FieldName]
		if !ok || v == nil {
			continue
		}
		if ref, ok := v.(model.Valuer); ok {
			if pk, ok := ref.Value(c.ForeignKey.Column); ok {
				m[c.Name] = pk
			}
			continue
		}
		m[c.Name] = v
	}
	return m
}

func (r *Record) relationOf(column string) *Relation {
	for _, rel := range r.typ.Relations {
		if rel.Column == column {
			return rel
		}
	}
	return nil
}
