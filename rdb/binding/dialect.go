package binding

import (
	"fmt"
	"strings"

	"github.com/hatlonely/modelorm/rdb"
	"github.com/pkg/errors"
)

// Dialect 生成指定数据库的建表语句
type Dialect struct {
	driver string
}

// NewDialect 支持 sqlite3/mysql/postgres
func NewDialect(driver string) (*Dialect, error) {
	switch driver {
	case "sqlite3", "mysql", "postgres":
		return &Dialect{driver: driver}, nil
	}
	return nil, errors.Errorf("unsupported driver: %s", driver)
}

func (d *Dialect) Driver() string {
	return d.driver
}

// ColumnType 列类型对应的数据库类型
func (d *Dialect) ColumnType(t rdb.ColumnType) string {
	switch d.driver {
	case "sqlite3":
		switch t {
		case rdb.Integer:
			return "INTEGER"
		case rdb.Float:
			return "REAL"
		case rdb.Timestamp:
			return "DATETIME"
		}
		return "TEXT"
	case "mysql":
		switch t {
		case rdb.Integer:
			return "BIGINT"
		case rdb.Float:
			return "DOUBLE"
		case rdb.Timestamp:
			return "DATETIME"
		}
		return "VARCHAR(255)"
	}
	switch t {
	case rdb.Integer:
		return "BIGINT"
	case rdb.Float:
		return "DOUBLE PRECISION"
	case rdb.Timestamp:
		return "TIMESTAMP"
	}
	return "TEXT"
}

// CreateTableSQL 建表需要执行的语句，postgres 的自增主键会先创建序列
func (d *Dialect) CreateTableSQL(t *rdb.StorageType) []string {
	var stmts []string
	var defs []string
	inlinePK := false

	for _, c := range t.Columns {
		if c.Sequence != "" && d.driver == "postgres" {
			stmts = append(stmts, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s", c.Sequence))
		}
		def, inline := d.columnDefinition(c)
		inlinePK = inlinePK || inline
		defs = append(defs, def)
	}

	if pk := t.PrimaryKey(); pk != nil && !inlinePK {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", pk.Name))
	}
	for _, c := range t.Columns {
		if c.ForeignKey != nil {
			defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)", c.Name, c.ForeignKey.Table, c.ForeignKey.Column))
		}
	}

	stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", t.Table, strings.Join(defs, ",\n  ")))
	for _, idx := range t.Indexes {
		stmts = append(stmts, d.CreateIndexSQL(t.Table, idx))
	}
	return stmts
}

// columnDefinition 返回列定义以及主键是否已经内联
func (d *Dialect) columnDefinition(c *rdb.Column) (string, bool) {
	parts := []string{c.Name, d.ColumnType(c.Type)}

	if c.Sequence != "" {
		switch d.driver {
		case "sqlite3":
			// sqlite 的自增必须写成 INTEGER PRIMARY KEY AUTOINCREMENT
			return strings.Join(append(parts, "PRIMARY KEY AUTOINCREMENT"), " "), true
		case "mysql":
			parts = append(parts, "NOT NULL", "AUTO_INCREMENT")
		case "postgres":
			parts = append(parts, "NOT NULL", fmt.Sprintf("DEFAULT nextval('%s')", c.Sequence))
		}
		return strings.Join(parts, " "), false
	}

	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " "), false
}

// CreateIndexSQL 创建索引的语句
func (d *Dialect) CreateIndexSQL(table string, index *rdb.Index) string {
	indexType := "INDEX"
	if index.Unique {
		indexType = "UNIQUE INDEX"
	}

	// MySQL 不支持 IF NOT EXISTS 语法用于索引
	if d.driver == "mysql" {
		return fmt.Sprintf("CREATE %s %s ON %s (%s)", indexType, index.Name, table, strings.Join(index.Columns, ", "))
	}
	return fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s (%s)", indexType, index.Name, table, strings.Join(index.Columns, ", "))
}

// InsertSQL 插入语句和参数，列按存储类型的列顺序排列
func (d *Dialect) InsertSQL(t *rdb.StorageType, values map[string]any) (string, []any) {
	var columns, placeholders []string
	var args []any
	for _, c := range t.Columns {
		v, ok := values[c.Name]
		if !ok {
			continue
		}
		columns = append(columns, c.Name)
		args = append(args, v)
		if d.driver == "postgres" {
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		} else {
			placeholders = append(placeholders, "?")
		}
	}
	if len(columns) == 0 {
		if d.driver == "mysql" {
			return fmt.Sprintf("INSERT INTO %s () VALUES ()", t.Table), nil
		}
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", t.Table), nil
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Table, strings.Join(columns, ", "), strings.Join(placeholders, ", ")), args
}
