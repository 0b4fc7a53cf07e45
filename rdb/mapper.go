package rdb

import (
	"github.com/hatlonely/modelorm/model"
	"github.com/pkg/errors"
)

// MapType 将字段的声明类型映射为列类型。
// 声明类型为模型时递归映射该模型主键字段的类型
func MapType(declared any) (ColumnType, error) {
	return mapType(declared, map[*model.Definition]struct{}{})
}

func mapType(declared any, visited map[*model.Definition]struct{}) (ColumnType, error) {
	switch t := declared.(type) {
	case model.Type:
		return mapScalar(t)
	case string:
		return mapScalar(model.Type(t))
	case model.Model:
		def := t.ModelDefinition()
		if def == nil {
			break
		}
		if _, ok := visited[def]; ok {
			return "", errors.WithMessagef(ErrCyclicReference, "model %s", def.Name)
		}
		visited[def] = struct{}{}

		pk, err := def.PrimaryKeyField()
		if err != nil {
			return "", errors.WithMessage(ErrInvalidPrimaryKey, err.Error())
		}
		if pk == nil {
			return "", errors.WithMessagef(ErrInvalidPrimaryKey, "model %s has no primary key", def.Name)
		}
		ct, err := mapType(pk.DeclaredType(), visited)
		if err != nil {
			return "", errors.WithMessagef(err, "%s.%s", def.Name, pk.Name)
		}
		return ct, nil
	}
	return "", errors.WithMessagef(ErrUnsupportedType, "%v", declared)
}

func mapScalar(t model.Type) (ColumnType, error) {
	switch t {
	case model.Int:
		return Integer, nil
	case model.Float:
		return Float, nil
	case model.String:
		return String, nil
	case model.Timestamp:
		return Timestamp, nil
	}
	return "", errors.WithMessagef(ErrUnsupportedType, "%q", string(t))
}
