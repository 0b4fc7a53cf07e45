package rdb

import (
	"reflect"

	"github.com/hatlonely/modelorm/model"
)

// ColumnType 列的存储类型
type ColumnType string

const (
	Integer   ColumnType = "integer"
	Float     ColumnType = "float"
	String    ColumnType = "string"
	Timestamp ColumnType = "timestamp"
)

// ForeignKey 外键指向的表和列
type ForeignKey struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// String 返回 "table.column" 形式
func (fk *ForeignKey) String() string {
	return fk.Table + "." + fk.Column
}

// Column 列定义
type Column struct {
	Name       string      `json:"name"`
	Type       ColumnType  `json:"type"`
	Nullable   bool        `json:"nullable"`
	PrimaryKey bool        `json:"primaryKey,omitempty"`
	Sequence   string      `json:"sequence,omitempty"`
	ForeignKey *ForeignKey `json:"foreignKey,omitempty"`
}

// Relation 引用字段对应的关联，和一个外键列成对出现
type Relation struct {
	FieldName   string `json:"fieldName"`
	TargetTable string `json:"targetTable"`
	// Column 配对的外键列名
	Column string `json:"column"`
	// Backref 目标表一侧的反向导航名
	Backref string `json:"backref"`
}

// Index 索引定义
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// StorageType 由模型生成的存储类型，生成后不再修改
type StorageType struct {
	Table     string
	Columns   []*Column
	Relations []*Relation
	Indexes   []*Index
	Model     *model.Definition

	// 引用字段名 -> 外键列名
	foreignKeys map[string]string
}

func newStorageType(table string, columns []*Column, relations []*Relation, indexes []*Index, def *model.Definition) *StorageType {
	t := &StorageType{
		Table:       table,
		Columns:     columns,
		Relations:   relations,
		Indexes:     indexes,
		Model:       def,
		foreignKeys: make(map[string]string, len(relations)),
	}
	for _, r := range relations {
		t.foreignKeys[r.FieldName] = r.Column
	}
	return t
}

// Column 按列名查找
func (t *StorageType) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames 按列顺序返回列名
func (t *StorageType) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey 返回主键列，模型没有主键时返回 nil
func (t *StorageType) PrimaryKey() *Column {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c
		}
	}
	return nil
}

// ForeignKeyColumn 返回引用字段对应的外键列名
func (t *StorageType) ForeignKeyColumn(field string) (string, bool) {
	c, ok := t.foreignKeys[field]
	return c, ok
}

// Relation 按字段名查找关联
func (t *StorageType) Relation(field string) (*Relation, bool) {
	for _, r := range t.Relations {
		if r.FieldName == field {
			return r, true
		}
	}
	return nil, false
}

// Equal 表名、列、关联、索引相同且来自同形状的模型
func (t *StorageType) Equal(o *StorageType) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return t.Table == o.Table &&
		reflect.DeepEqual(t.Columns, o.Columns) &&
		reflect.DeepEqual(t.Relations, o.Relations) &&
		reflect.DeepEqual(t.Indexes, o.Indexes) &&
		t.Model.Equal(o.Model)
}
