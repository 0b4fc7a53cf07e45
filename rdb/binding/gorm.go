package binding

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/hatlonely/modelorm/rdb"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormOptions struct {
	Driver string `cfg:"driver" def:"sqlite" validate:"oneof=sqlite mysql"`
	DSN    string `cfg:"dsn" validate:"required"`
}

// Gorm 基于 gorm 的绑定。存储类型在运行时转换成结构体类型交给 AutoMigrate
type Gorm struct {
	*Registry
	db *gorm.DB

	mu     sync.Mutex
	models map[string]reflect.Type
}

func NewGormWithOptions(options *GormOptions, opts ...Option) (*Gorm, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	if options.DSN == "" {
		return nil, errors.New("database DSN is required")
	}

	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var db *gorm.DB
	var err error
	switch options.Driver {
	case "", "sqlite":
		db, err = gorm.Open(sqlite.Open(options.DSN), config)
	case "mysql":
		db, err = gorm.Open(mysql.Open(options.DSN), config)
	default:
		return nil, errors.Errorf("unsupported database driver: %s", options.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	return &Gorm{
		Registry: NewRegistry(opts...),
		db:       db,
		models:   map[string]reflect.Type{},
	}, nil
}

func (g *Gorm) DB() *gorm.DB {
	return g.db
}

// Migrate 外键约束不由 gorm 创建，只创建列、主键和索引
func (g *Gorm) Migrate(ctx context.Context) error {
	for _, t := range g.List() {
		if err := g.db.WithContext(ctx).Table(t.Table).AutoMigrate(reflect.New(g.modelType(t)).Interface()); err != nil {
			return errors.Wrapf(err, "failed to auto migrate table %s", t.Table)
		}
		g.logger.InfoContext(ctx, "migrated table", "table", t.Table, "binding", "gorm")
	}
	return nil
}

func (g *Gorm) Insert(ctx context.Context, record *rdb.Record) error {
	t, err := g.registered(record)
	if err != nil {
		return err
	}
	if err := g.db.WithContext(ctx).Table(t.Table).Create(record.ColumnValues()).Error; err != nil {
		return errors.Wrapf(err, "failed to insert into %s", t.Table)
	}
	return nil
}

func (g *Gorm) Close() error {
	db, err := g.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB")
	}
	return db.Close()
}

func (g *Gorm) modelType(t *rdb.StorageType) reflect.Type {
	g.mu.Lock()
	defer g.mu.Unlock()

	if typ, ok := g.models[t.Table]; ok {
		return typ
	}
	typ := GormModelType(t)
	g.models[t.Table] = typ
	return typ
}

var (
	int64Type   = reflect.TypeOf(int64(0))
	float64Type = reflect.TypeOf(float64(0))
	stringType  = reflect.TypeOf("")
	timeType    = reflect.TypeOf(time.Time{})
)

// GormModelType 把存储类型转换成 gorm 可以识别的结构体类型，
// 可空列使用指针类型，列名、主键和索引写在 gorm tag 中
func GormModelType(t *rdb.StorageType) reflect.Type {
	indexes := map[string][]string{}
	for _, idx := range t.Indexes {
		kind := "index"
		if idx.Unique {
			kind = "uniqueIndex"
		}
		for _, col := range idx.Columns {
			indexes[col] = append(indexes[col], fmt.Sprintf("%s:%s", kind, idx.Name))
		}
	}

	fields := make([]reflect.StructField, 0, len(t.Columns))
	for i, c := range t.Columns {
		var typ reflect.Type
		switch c.Type {
		case rdb.Integer:
			typ = int64Type
		case rdb.Float:
			typ = float64Type
		case rdb.Timestamp:
			typ = timeType
		default:
			typ = stringType
		}
		if c.Nullable {
			typ = reflect.PointerTo(typ)
		}

		tags := []string{"column:" + c.Name}
		if c.PrimaryKey {
			tags = append(tags, "primaryKey")
			if c.Sequence != "" {
				tags = append(tags, "autoIncrement")
			} else {
				tags = append(tags, "autoIncrement:false")
			}
		}
		if !c.Nullable {
			tags = append(tags, "not null")
		}
		tags = append(tags, indexes[c.Name]...)

		fields = append(fields, reflect.StructField{
			Name: fmt.Sprintf("Col%d", i),
			Type: typ,
			Tag:  reflect.StructTag(fmt.Sprintf(`gorm:"%s" json:"%s"`, strings.Join(tags, ";"), c.Name)),
		})
	}
	return reflect.StructOf(fields)
}
