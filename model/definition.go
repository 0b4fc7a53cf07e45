package model

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Type 字段声明类型。标量类型使用下面的常量，其他值视为模型名
type Type string

const (
	Int       Type = "int"
	Float     Type = "float"
	String    Type = "string"
	Timestamp Type = "timestamp"
)

// IsScalar 是否为支持的标量类型
func (t Type) IsScalar() bool {
	switch t {
	case Int, Float, String, Timestamp:
		return true
	}
	return false
}

// Field 字段定义
type Field struct {
	Name     string `cfg:"name" validate:"required"`
	Type     Type   `cfg:"type"`
	Required bool   `cfg:"required"`
	Default  any    `cfg:"default"`

	// Ref 引用的模型，Type 为模型名时由 Set.Resolve 填充
	Ref *Definition `cfg:"-" json:"-" msgpack:"-" bson:"-" validate:"-"`
}

// DeclaredType 返回字段的声明类型：引用字段返回 *Definition，否则返回 Type
func (f *Field) DeclaredType() any {
	if f.Ref != nil {
		return f.Ref
	}
	return f.Type
}

// TypeName 声明类型的名字
func (f *Field) TypeName() string {
	if f.Ref != nil {
		return f.Ref.Name
	}
	return string(f.Type)
}

// Meta 模型的存储元数据
type Meta struct {
	PrimaryKey    string   `cfg:"primaryKey"`
	AutoIncrement bool     `cfg:"autoIncrement"`
	Indexes       []string `cfg:"indexes"`
	UniqueIndexes []string `cfg:"uniqueIndexes"`
	TablePrefix   string   `cfg:"tablePrefix"`
}

// Definition 模型定义。字段顺序即列顺序
type Definition struct {
	Name   string   `cfg:"name" validate:"required"`
	Fields []*Field `cfg:"fields" validate:"required,min=1,dive,required"`
	Meta   Meta     `cfg:"meta"`
}

// Model 由所有模型类型实现
type Model interface {
	ModelDefinition() *Definition
}

// ModelDefinition 实现 Model
func (d *Definition) ModelDefinition() *Definition {
	return d
}

// Field 按名字查找字段
func (d *Definition) Field(name string) (*Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// FieldNames 按声明顺序返回字段名
func (d *Definition) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	return names
}

// RequiredFields 按声明顺序返回必填字段名
func (d *Definition) RequiredFields() []string {
	var names []string
	for _, f := range d.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// PrimaryKeyField 返回主键字段，没有配置主键时返回 nil
func (d *Definition) PrimaryKeyField() (*Field, error) {
	if d.Meta.PrimaryKey == "" {
		return nil, nil
	}
	f, ok := d.Field(d.Meta.PrimaryKey)
	if !ok {
		return nil, errors.Errorf("primary key field %q not found in model %s", d.Meta.PrimaryKey, d.Name)
	}
	return f, nil
}

var validate = validator.New()

// Validate 校验定义的结构完整性：必填项、字段名唯一、字段有类型。
// 主键、索引和类型映射由 rdb 在生成时检查
func (d *Definition) Validate() error {
	if d == nil {
		return errors.New("definition is nil")
	}
	if err := validate.Struct(d); err != nil {
		return errors.Wrapf(err, "invalid model %s", d.Name)
	}

	seen := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if _, ok := seen[f.Name]; ok {
			return errors.Errorf("duplicate field %q in model %s", f.Name, d.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Ref == nil && f.Type == "" {
			return errors.Errorf("field %q in model %s has no type", f.Name, d.Name)
		}
	}
	return nil
}

// Equal 判断两个定义的形状是否一致：同名且字段名、顺序相同
func (d *Definition) Equal(o *Definition) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil || d.Name != o.Name || len(d.Fields) != len(o.Fields) {
		return false
	}
	for i := range d.Fields {
		if d.Fields[i].Name != o.Fields[i].Name || d.Fields[i].TypeName() != o.Fields[i].TypeName() {
			return false
		}
	}
	return true
}

// Clone 深拷贝定义，引用的模型保持共享
func (d *Definition) Clone() *Definition {
	c := &Definition{Name: d.Name, Meta: d.Meta}
	c.Meta.Indexes = append([]string(nil), d.Meta.Indexes...)
	c.Meta.UniqueIndexes = append([]string(nil), d.Meta.UniqueIndexes...)
	for _, f := range d.Fields {
		nf := *f
		if nf.Ref != nil {
			// 序列化后只剩模型名
			nf.Type = Type(nf.Ref.Name)
		}
		c.Fields = append(c.Fields, &nf)
	}
	return c
}
