package model

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Namer 自定义模型名
type Namer interface {
	ModelName() string
}

var timeType = reflect.TypeOf(time.Time{})

// Builder 从 go 结构体构建模型定义
// 支持的 tag 格式：
// - `orm:"field_name,type=string,required,pk,autoincrement,index,unique,default=0"`
// - `orm:"-"` 忽略字段
// 字段类型为另一个结构体（或其指针）时视为引用字段
type Builder struct {
	cache map[reflect.Type]*Definition
}

// NewBuilder 创建新的模型构建器
func NewBuilder() *Builder {
	return &Builder{cache: make(map[reflect.Type]*Definition)}
}

// FromStruct 从结构体构建 Definition。同一个 Builder 对同一类型返回同一个定义
func (b *Builder) FromStruct(v any) (*Definition, error) {
	if v == nil {
		return nil, errors.New("expected struct, got nil")
	}
	rt := reflect.TypeOf(v)
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct || rt == timeType {
		return nil, errors.Errorf("expected struct, got %T", v)
	}
	return b.fromType(rt)
}

func (b *Builder) fromType(rt reflect.Type) (*Definition, error) {
	if d, ok := b.cache[rt]; ok {
		return d, nil
	}

	def := &Definition{Name: modelName(rt)}
	// 先放入缓存，自引用和互相引用的结构体可以解析到同一个定义
	b.cache[rt] = def

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("orm")
		if tag == "-" {
			continue
		}

		field, opts, err := b.parseField(sf, tag)
		if err != nil {
			delete(b.cache, rt)
			return nil, errors.WithMessagef(err, "failed to parse field %s.%s", rt.Name(), sf.Name)
		}
		def.Fields = append(def.Fields, field)

		if opts.primary {
			if def.Meta.PrimaryKey != "" {
				delete(b.cache, rt)
				return nil, errors.Errorf("model %s declares more than one primary key", def.Name)
			}
			def.Meta.PrimaryKey = field.Name
			def.Meta.AutoIncrement = opts.autoIncrement
		}
		if opts.index {
			def.Meta.Indexes = append(def.Meta.Indexes, field.Name)
		}
		if opts.unique {
			def.Meta.UniqueIndexes = append(def.Meta.UniqueIndexes, field.Name)
		}
	}

	if len(def.Fields) == 0 {
		delete(b.cache, rt)
		return nil, errors.Errorf("model %s has no fields", def.Name)
	}
	return def, nil
}

type fieldOptions struct {
	primary       bool
	autoIncrement bool
	index         bool
	unique        bool
}

// parseField 解析字段的 orm tag
func (b *Builder) parseField(sf reflect.StructField, tag string) (*Field, fieldOptions, error) {
	var opts fieldOptions
	field := &Field{Name: strings.ToLower(sf.Name)}

	parts := strings.Split(tag, ",")
	// 第一部分是字段名（如果指定）
	if parts[0] != "" && !strings.Contains(parts[0], "=") {
		field.Name = parts[0]
		parts = parts[1:]
	}

	var declared, defaultValue string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if kv := strings.SplitN(part, "=", 2); len(kv) == 2 {
			switch strings.TrimSpace(kv[0]) {
			case "type":
				declared = strings.TrimSpace(kv[1])
			case "default":
				defaultValue = strings.TrimSpace(kv[1])
			}
			continue
		}
		switch part {
		case "required", "not_null":
			field.Required = true
		case "primary", "pk":
			opts.primary = true
		case "autoincrement", "auto":
			opts.autoIncrement = true
		case "index":
			opts.index = true
		case "unique":
			opts.unique = true
		}
	}

	ft := sf.Type
	for ft.Kind() == reflect.Ptr {
		ft = ft.Elem()
	}
	if ft.Kind() == reflect.Struct && ft != timeType {
		ref, err := b.fromType(ft)
		if err != nil {
			return nil, opts, err
		}
		field.Ref = ref
		field.Type = Type(ref.Name)
	} else if declared != "" {
		field.Type = Type(declared)
	} else {
		field.Type = inferType(ft)
	}

	if defaultValue != "" {
		field.Default = parseDefaultValue(defaultValue, field.Type)
	}
	return field, opts, nil
}

// inferType 从 go 类型推断字段类型，无法映射的类型保留 kind 名称
func inferType(t reflect.Type) Type {
	switch t.Kind() {
	case reflect.String:
		return String
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int
	case reflect.Float32, reflect.Float64:
		return Float
	}
	if t == timeType {
		return Timestamp
	}
	return Type(t.Kind().String())
}

// parseDefaultValue 解析默认值
func parseDefaultValue(value string, t Type) any {
	switch t {
	case String:
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			return value[1 : len(value)-1]
		}
		return value
	case Int:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	case Float:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return value
}

func modelName(rt reflect.Type) string {
	if n, ok := reflect.New(rt).Interface().(Namer); ok {
		return n.ModelName()
	}
	return rt.Name()
}

// InstanceOf 把结构体值转换为 Instance，字段名与 FromStruct 保持一致。
// 引用字段的结构体值会递归转换为 *Instance
func (b *Builder) InstanceOf(v any) (*Instance, error) {
	def, err := b.FromStruct(v)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, errors.New("expected struct, got nil pointer")
		}
		rv = rv.Elem()
	}

	values := make(map[string]any, len(def.Fields))
	idx := 0
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() || sf.Tag.Get("orm") == "-" {
			continue
		}
		field := def.Fields[idx]
		idx++

		fv := rv.Field(i)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if field.Ref != nil {
			ref, err := b.InstanceOf(fv.Interface())
			if err != nil {
				return nil, err
			}
			values[field.Name] = ref
			continue
		}
		values[field.Name] = fv.Interface()
	}
	return &Instance{def: def, values: values}, nil
}
