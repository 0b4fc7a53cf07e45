package model

import (
	"github.com/pkg/errors"
)

// Valuer 模型实例，按字段名读取值
type Valuer interface {
	Model() *Definition
	Value(field string) (any, bool)
}

// Instance 符合某个模型定义的实例
type Instance struct {
	def    *Definition
	values map[string]any
}

// NewInstance 创建模型实例。values 中只允许出现已声明字段，必填字段必须提供
func NewInstance(def *Definition, values map[string]any) (*Instance, error) {
	if def == nil {
		return nil, errors.New("definition is nil")
	}

	for k := range values {
		if _, ok := def.Field(k); !ok {
			return nil, errors.Errorf("model %s has no field %q", def.Name, k)
		}
	}
	for _, name := range def.RequiredFields() {
		if _, ok := values[name]; !ok {
			return nil, errors.Errorf("model %s: field %q is required", def.Name, name)
		}
	}

	m := make(map[string]any, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &Instance{def: def, values: m}, nil
}

// MustNewInstance 同 NewInstance，出错时 panic
func MustNewInstance(def *Definition, values map[string]any) *Instance {
	i, err := NewInstance(def, values)
	if err != nil {
		panic(err)
	}
	return i
}

func (i *Instance) Model() *Definition {
	if i == nil {
		return nil
	}
	return i.def
}

func (i *Instance) Value(field string) (any, bool) {
	v, ok := i.values[field]
	return v, ok
}

// Set 设置字段值，字段必须已声明
func (i *Instance) Set(field string, value any) error {
	if _, ok := i.def.Field(field); !ok {
		return errors.Errorf("model %s has no field %q", i.def.Name, field)
	}
	i.values[field] = value
	return nil
}

// Values 返回字段值的拷贝
func (i *Instance) Values() map[string]any {
	m := make(map[string]any, len(i.values))
	for k, v := range i.values {
		m[k] = v
	}
	return m
}
