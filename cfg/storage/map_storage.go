package storage

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// MapStorage 基于 map 和 slice 的存储实现
type MapStorage struct {
	data any
}

// NewMapStorage 创建一个新的 MapStorage 实例
func NewMapStorage(data any) *MapStorage {
	return &MapStorage{data: data}
}

// Data 获取存储的原始数据
func (ms *MapStorage) Data() any {
	return ms.data
}

// Sub 获取子配置存储对象
// key 可以包含点号（.）表示多级嵌套，[]表示数组索引
// 例如 "bindings[0].dsn"
func (ms *MapStorage) Sub(key string) Storage {
	if key == "" {
		return ms
	}

	current := ms.data
	for _, k := range parseKey(key) {
		current = valueByKey(current, k)
		if current == nil {
			break
		}
	}
	return NewMapStorage(current)
}

// ConvertTo 将配置数据转成结构体或者 map/slice 等任意结构
func (ms *MapStorage) ConvertTo(object any) error {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Errorf("object must be a non-nil pointer, got %T", object)
	}
	return convertValue(ms.data, rv)
}

// parseKey 解析 key 字符串，支持点号和数组索引
func parseKey(key string) []string {
	key = strings.NewReplacer("[", ".", "]", "").Replace(key)
	var keys []string
	for _, k := range strings.Split(key, ".") {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func valueByKey(data any, key string) any {
	rv := reflect.ValueOf(data)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			if toString(k) == key {
				return rv.MapIndex(k).Interface()
			}
		}
	case reflect.Slice, reflect.Array:
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= rv.Len() {
			return nil
		}
		return rv.Index(index).Interface()
	}
	return nil
}

// convertValue 将数据转换为目标类型
func convertValue(src any, dst reflect.Value) error {
	srcValue := reflect.ValueOf(src)
	if !srcValue.IsValid() {
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return convertValue(src, dst.Elem())
	}

	for srcValue.Kind() == reflect.Ptr || srcValue.Kind() == reflect.Interface {
		if srcValue.IsNil() {
			return nil
		}
		srcValue = srcValue.Elem()
	}

	switch dst.Type() {
	case reflect.TypeOf(time.Duration(0)):
		return convertToDuration(srcValue, dst)
	case reflect.TypeOf(time.Time{}):
		return convertToTime(srcValue, dst)
	}

	if srcValue.Type().AssignableTo(dst.Type()) {
		dst.Set(srcValue)
		return nil
	}

	switch dst.Kind() {
	case reflect.Map:
		return convertToMap(srcValue, dst)
	case reflect.Slice:
		return convertToSlice(srcValue, dst)
	case reflect.Struct:
		return convertToStruct(srcValue, dst)
	case reflect.Interface:
		if dst.Type().NumMethod() == 0 {
			dst.Set(srcValue)
			return nil
		}
	case reflect.Bool:
		if srcValue.Kind() == reflect.String {
			b, err := strconv.ParseBool(srcValue.String())
			if err != nil {
				return errors.Wrapf(err, "cannot convert %q to bool", srcValue.String())
			}
			dst.SetBool(b)
			return nil
		}
	}

	// 数字之间可以直接转换，字符串不能转成数字
	if srcValue.Kind() != reflect.String && dst.Kind() != reflect.String && srcValue.Type().ConvertibleTo(dst.Type()) {
		dst.Set(srcValue.Convert(dst.Type()))
		return nil
	}
	if srcValue.Kind() == reflect.String && dst.Kind() == reflect.String {
		dst.SetString(srcValue.String())
		return nil
	}

	return errors.Errorf("cannot convert %v to %v", srcValue.Type(), dst.Type())
}

func convertToDuration(src, dst reflect.Value) error {
	switch src.Kind() {
	case reflect.String:
		d, err := time.ParseDuration(src.String())
		if err != nil {
			return errors.Wrapf(err, "failed to parse duration %q", src.String())
		}
		dst.Set(reflect.ValueOf(d))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.Set(reflect.ValueOf(time.Duration(src.Int())))
		return nil
	case reflect.Float32, reflect.Float64:
		dst.Set(reflect.ValueOf(time.Duration(src.Float() * float64(time.Second))))
		return nil
	}
	return errors.Errorf("cannot convert %v to time.Duration", src.Type())
}

func convertToTime(src, dst reflect.Value) error {
	if t, ok := src.Interface().(time.Time); ok {
		dst.Set(reflect.ValueOf(t))
		return nil
	}
	if src.Kind() == reflect.String {
		for _, format := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(format, src.String()); err == nil {
				dst.Set(reflect.ValueOf(t))
				return nil
			}
		}
		return errors.Errorf("failed to parse time %q", src.String())
	}
	if src.CanInt() {
		dst.Set(reflect.ValueOf(time.Unix(src.Int(), 0)))
		return nil
	}
	return errors.Errorf("cannot convert %v to time.Time", src.Type())
}

func convertToMap(src, dst reflect.Value) error {
	if src.Kind() != reflect.Map {
		return errors.Errorf("cannot convert %v to %v", src.Type(), dst.Type())
	}
	if dst.IsNil() {
		dst.Set(reflect.MakeMap(dst.Type()))
	}

	for _, key := range src.MapKeys() {
		val := reflect.New(dst.Type().Elem()).Elem()
		if err := convertValue(src.MapIndex(key).Interface(), val); err != nil {
			return errors.WithMessagef(err, "key %v", key.Interface())
		}
		k := reflect.New(dst.Type().Key()).Elem()
		if err := convertValue(toString(key), k); err != nil {
			return err
		}
		dst.SetMapIndex(k, val)
	}
	return nil
}

func convertToSlice(src, dst reflect.Value) error {
	if src.Kind() != reflect.Slice && src.Kind() != reflect.Array {
		// 单个值视为只有一个元素的列表，兼容 ini 的非重复键
		if src.Kind() == reflect.String && dst.Type().Elem().Kind() == reflect.String {
			var items []string
			for _, s := range strings.Split(src.String(), ",") {
				if s = strings.TrimSpace(s); s != "" {
					items = append(items, s)
				}
			}
			src = reflect.ValueOf(items)
		} else {
			return errors.Errorf("cannot convert %v to %v", src.Type(), dst.Type())
		}
	}

	length := src.Len()
	slice := reflect.MakeSlice(dst.Type(), length, length)
	for i := 0; i < length; i++ {
		if err := convertValue(src.Index(i).Interface(), slice.Index(i)); err != nil {
			return errors.WithMessagef(err, "index %d", i)
		}
	}
	dst.Set(slice)
	return nil
}

func convertToStruct(src, dst reflect.Value) error {
	if src.Kind() != reflect.Map {
		return errors.Errorf("cannot convert %v to %v", src.Type(), dst.Type())
	}

	values := make(map[string]reflect.Value, src.Len())
	for _, key := range src.MapKeys() {
		values[toString(key)] = src.MapIndex(key)
	}

	dstType := dst.Type()
	for i := 0; i < dstType.NumField(); i++ {
		field := dstType.Field(i)
		fieldValue := dst.Field(i)
		if !fieldValue.CanSet() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}
		v, ok := values[name]
		if !ok {
			continue
		}
		if err := convertValue(v.Interface(), fieldValue); err != nil {
			return errors.WithMessagef(err, "field %s", name)
		}
	}
	return nil
}

// fieldName 获取字段名，优先使用 cfg tag，然后是 json/yaml/toml/ini tag
func fieldName(field reflect.StructField) string {
	for _, key := range []string{"cfg", "json", "yaml", "toml", "ini"} {
		if tag := field.Tag.Get(key); tag != "" {
			if name := strings.Split(tag, ",")[0]; name != "" {
				return name
			}
		}
	}
	return field.Name
}

func toString(v reflect.Value) string {
	for v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}
