package model

import "reflect"

// IsModelType x 是否为模型类型（而不是模型实例）
func IsModelType(x any) bool {
	if x == nil || IsModelInstance(x) {
		return false
	}
	m, ok := x.(Model)
	if !ok {
		return false
	}
	return m.ModelDefinition() != nil
}

// IsModelInstance x 是否为某个模型的实例
func IsModelInstance(x any) bool {
	v, ok := x.(Valuer)
	if !ok {
		return false
	}
	return v.Model() != nil
}

// IsSequence x 是否为 slice 或数组
func IsSequence(x any) bool {
	if x == nil {
		return false
	}
	switch reflect.TypeOf(x).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// IsText x 是否为字符串
func IsText(x any) bool {
	if x == nil {
		return false
	}
	return reflect.TypeOf(x).Kind() == reflect.String
}
