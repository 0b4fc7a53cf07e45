package binding

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hatlonely/modelorm/rdb"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SQLOptions struct {
	Driver   string `cfg:"driver" def:"sqlite3" validate:"oneof=sqlite3 mysql postgres"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     int    `cfg:"port"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`
	// ConnMaxLifetime 连接最长存活时间，0 表示不限制
	ConnMaxLifetime time.Duration `cfg:"connMaxLifetime"`
}

// SQL 基于 database/sql 的绑定
type SQL struct {
	*Registry
	db      *sql.DB
	dialect *Dialect
}

func NewSQLWithOptions(options *SQLOptions, opts ...Option) (*SQL, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	dialect, err := NewDialect(options.Driver)
	if err != nil {
		return nil, err
	}

	dsn := options.DSN
	if dsn == "" {
		switch options.Driver {
		case "mysql":
			port := options.Port
			if port == 0 {
				port = 3306
			}
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
				options.Username, options.Password, options.Host, port, options.Database, options.Charset)
		case "postgres":
			port := options.Port
			if port == 0 {
				port = 5432
			}
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				options.Host, port, options.Username, options.Password, options.Database)
		case "sqlite3":
			// sqlite 默认不检查外键约束
			dsn = options.Database
			if dsn != "" {
				sep := "?"
				if strings.Contains(dsn, "?") {
					sep = "&"
				}
				dsn += sep + "_foreign_keys=on"
			}
		}
	}
	if dsn == "" {
		return nil, errors.New("dsn or database is required")
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", options.Driver)
	}
	if options.MaxConns > 0 {
		db.SetMaxOpenConns(options.MaxConns)
	}
	if options.MaxIdle > 0 {
		db.SetMaxIdleConns(options.MaxIdle)
	}
	db.SetConnMaxLifetime(options.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to ping %s", options.Driver)
	}

	return &SQL{
		Registry: NewRegistry(opts...),
		db:       db,
		dialect:  dialect,
	}, nil
}

// DB 底层连接
func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) Dialect() *Dialect {
	return s.dialect
}

// Migrate 按注册顺序建表，已存在的表和索引忽略
func (s *SQL) Migrate(ctx context.Context) error {
	for _, t := range s.List() {
		for _, stmt := range s.dialect.CreateTableSQL(t) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil && !isAlreadyExists(err) {
				return errors.Wrapf(err, "failed to migrate table %s", t.Table)
			}
		}
		s.logger.InfoContext(ctx, "migrated table", "table", t.Table, "binding", "sql", "driver", s.dialect.Driver())
	}
	return nil
}

func (s *SQL) Insert(ctx context.Context, record *rdb.Record) error {
	t, err := s.registered(record)
	if err != nil {
		return err
	}

	stmt, args := s.dialect.InsertSQL(t, record.ColumnValues())
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrapf(err, "failed to insert into %s", t.Table)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func isAlreadyExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "already exist") ||
		strings.Contains(msg, "Duplicate key name")
}
