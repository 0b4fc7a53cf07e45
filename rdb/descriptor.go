package rdb

import (
	"math"
	"reflect"
	"time"

	"github.com/hatlonely/modelorm/model"
	"github.com/pkg/errors"
)

// Descriptor 存储类型的可序列化形式。
// 模型中的引用只保留模型名，重建后的构造行为通过 Relations 中的外键列保持一致
type Descriptor struct {
	Table     string            `json:"table"`
	Columns   []*Column         `json:"columns"`
	Relations []*Relation       `json:"relations,omitempty"`
	Indexes   []*Index          `json:"indexes,omitempty"`
	Model     *model.Definition `json:"model"`
}

// Descriptor 导出存储类型的描述
func (t *StorageType) Descriptor() *Descriptor {
	d := &Descriptor{
		Table: t.Table,
		Model: t.Model.Clone(),
	}
	for _, c := range t.Columns {
		nc := *c
		if c.ForeignKey != nil {
			fk := *c.ForeignKey
			nc.ForeignKey = &fk
		}
		d.Columns = append(d.Columns, &nc)
	}
	for _, r := range t.Relations {
		nr := *r
		d.Relations = append(d.Relations, &nr)
	}
	for _, idx := range t.Indexes {
		d.Indexes = append(d.Indexes, &Index{Name: idx.Name, Columns: append([]string(nil), idx.Columns...), Unique: idx.Unique})
	}
	return d
}

// FromDescriptor 从描述重建存储类型
func FromDescriptor(d *Descriptor) (*StorageType, error) {
	if d == nil || d.Model == nil {
		return nil, errors.WithMessage(ErrNotAModel, "descriptor has no model")
	}
	if d.Table == "" || len(d.Columns) == 0 {
		return nil, errors.Errorf("descriptor of model %s has no table or columns", d.Model.Name)
	}
	for _, r := range d.Relations {
		if _, ok := d.Model.Field(r.FieldName); !ok {
			return nil, errors.WithMessagef(ErrUnknownField, "relation %s in table %s", r.FieldName, d.Table)
		}
	}
	// 复制一份，重建的存储类型不和描述共享数据
	c := (&StorageType{Table: d.Table, Columns: d.Columns, Relations: d.Relations, Indexes: d.Indexes, Model: d.Model}).Descriptor()
	for _, f := range c.Model.Fields {
		f.Default = normalizeDefault(f.Type, f.Default)
	}
	return newStorageType(c.Table, c.Columns, c.Relations, c.Indexes, c.Model), nil
}

// normalizeDefault 按字段类型还原反序列化后的默认值：
// json 把所有数字解码为 float64，时间解码为字符串
func normalizeDefault(t model.Type, v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch t {
	case model.Int:
		switch {
		case rv.CanInt():
			return rv.Int()
		case rv.CanUint() && rv.Uint() <= math.MaxInt64:
			return int64(rv.Uint())
		case rv.CanFloat() && rv.Float() == math.Trunc(rv.Float()):
			return int64(rv.Float())
		}
	case model.Float:
		switch {
		case rv.CanFloat():
			return rv.Float()
		case rv.CanInt():
			return float64(rv.Int())
		case rv.CanUint():
			return float64(rv.Uint())
		}
	case model.Timestamp:
		if s, ok := v.(string); ok {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return ts
			}
		}
	}
	return v
}
