package rdb

import (
	"strings"

	"github.com/hatlonely/modelorm/model"
	"github.com/pkg/errors"
)

// TableName 表名为 prefix + 模型名的小写形式
func TableName(prefix, name string) string {
	return strings.ToLower(prefix + name)
}

// SequenceName 自增主键使用的序列名
func SequenceName(table, field string) string {
	return table + "_" + field + "_seq"
}

// ForeignKeyName 引用字段对应的外键列名
func ForeignKeyName(field, targetPrimaryKey string) string {
	return strings.ToLower(field + "_" + targetPrimaryKey)
}

// Emit 按字段声明顺序生成模型的列、关联和索引。出错时不返回任何部分结果
func Emit(def *model.Definition, prefix string) ([]*Column, []*Relation, []*Index, error) {
	if def == nil {
		return nil, nil, nil, errors.WithMessage(ErrNotAModel, "definition is nil")
	}

	table := TableName(prefix, def.Name)
	pk, err := def.PrimaryKeyField()
	if err != nil {
		return nil, nil, nil, errors.WithMessage(ErrInvalidPrimaryKey, err.Error())
	}

	columns := make([]*Column, 0, len(def.Fields))
	owners := make(map[string]string, len(def.Fields))
	var relations []*Relation
	for _, f := range def.Fields {
		column, relation, err := emitField(def, f, pk, table, prefix)
		if err != nil {
			return nil, nil, nil, errors.WithMessagef(err, "model %s field %s", def.Name, f.Name)
		}
		if owner, ok := owners[column.Name]; ok {
			return nil, nil, nil, errors.WithMessagef(ErrDuplicateColumn,
				"model %s column %s is produced by both field %s and field %s", def.Name, column.Name, owner, f.Name)
		}
		owners[column.Name] = f.Name
		columns = append(columns, column)
		if relation != nil {
			relations = append(relations, relation)
		}
	}

	indexes, err := emitIndexes(def, table, relations)
	if err != nil {
		return nil, nil, nil, errors.WithMessagef(err, "model %s", def.Name)
	}
	return columns, relations, indexes, nil
}

func emitField(def *model.Definition, f *model.Field, pk *model.Field, table, prefix string) (*Column, *Relation, error) {
	required := f.Required

	if pk != nil && f == pk {
		if f.Ref != nil {
			return nil, nil, errors.WithMessage(ErrInvalidPrimaryKey, "a reference field cannot be the primary key")
		}
		if f.Type == model.Int && def.Meta.AutoIncrement {
			return &Column{
				Name:       f.Name,
				Type:       Integer,
				PrimaryKey: true,
				Sequence:   SequenceName(table, f.Name),
			}, nil, nil
		}
		ct, err := MapType(f.Type)
		if err != nil {
			return nil, nil, err
		}
		return &Column{Name: f.Name, Type: ct, Nullable: !required, PrimaryKey: true}, nil, nil
	}

	if f.Ref != nil {
		target := f.Ref
		targetPK, err := target.PrimaryKeyField()
		if err != nil {
			return nil, nil, errors.WithMessage(ErrInvalidPrimaryKey, err.Error())
		}
		if targetPK == nil {
			return nil, nil, errors.WithMessagef(ErrInvalidPrimaryKey, "referenced model %s has no primary key", target.Name)
		}
		ct, err := MapType(target)
		if err != nil {
			return nil, nil, err
		}

		targetTable := TableName(prefix, target.Name)
		column := &Column{
			Name:       ForeignKeyName(f.Name, targetPK.Name),
			Type:       ct,
			Nullable:   !required,
			ForeignKey: &ForeignKey{Table: targetTable, Column: targetPK.Name},
		}
		return column, &Relation{
			FieldName:   f.Name,
			TargetTable: targetTable,
			Column:      column.Name,
			Backref:     Pluralize(strings.ToLower(def.Name)),
		}, nil
	}

	ct, err := MapType(f.Type)
	if err != nil {
		return nil, nil, err
	}
	return &Column{Name: f.Name, Type: ct, Nullable: !required}, nil, nil
}

// emitIndexes 单列索引，引用字段索引其外键列
func emitIndexes(def *model.Definition, table string, relations []*Relation) ([]*Index, error) {
	columnOf := func(name string) (string, error) {
		if _, ok := def.Field(name); !ok {
			return "", errors.WithMessagef(ErrUnknownField, "index on %q", name)
		}
		for _, r := range relations {
			if r.FieldName == name {
				return r.Column, nil
			}
		}
		return name, nil
	}

	var indexes []*Index
	for _, group := range []struct {
		names  []string
		prefix string
		unique bool
	}{
		{def.Meta.Indexes, "idx_", false},
		{def.Meta.UniqueIndexes, "uk_", true},
	} {
		for _, name := range group.names {
			column, err := columnOf(name)
			if err != nil {
				return nil, err
			}
			indexes = append(indexes, &Index{
				Name:    group.prefix + table + "_" + column,
				Columns: []string{column},
				Unique:  group.unique,
			})
		}
	}
	return indexes, nil
}
