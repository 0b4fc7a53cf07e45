package binding

import (
	"context"
	"testing"

	"github.com/hatlonely/modelorm/log"
	"github.com/hatlonely/modelorm/model"
	"github.com/hatlonely/modelorm/rdb"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func newSourceModel() *model.Definition {
	return &model.Definition{
		Name: "SourceModel",
		Fields: []*model.Field{
			{Name: "id", Type: model.Int},
			{Name: "url", Type: model.String, Required: true},
		},
		Meta: model.Meta{PrimaryKey: "id", AutoIncrement: true},
	}
}

func newArticleModel(source *model.Definition) *model.Definition {
	return &model.Definition{
		Name: "Article",
		Fields: []*model.Field{
			{Name: "id", Type: model.Int},
			{Name: "name", Type: model.String, Required: true},
			{Name: "source", Type: "SourceModel", Ref: source, Required: true},
			{Name: "score", Type: model.Float, Default: 1.5},
			{Name: "published", Type: model.Timestamp},
		},
		Meta: model.Meta{
			PrimaryKey:    "id",
			AutoIncrement: true,
			Indexes:       []string{"name"},
			UniqueIndexes: []string{"source"},
		},
	}
}

// generateBlog 生成 SourceModel 和 Article 两个存储类型并注册到 base
func generateBlog(base Base) (*rdb.StorageType, *rdb.StorageType) {
	source := newSourceModel()
	sourceType, err := rdb.Generate(source, base, rdb.WithLogger(log.Discard()))
	So(err, ShouldBeNil)
	articleType, err := rdb.Generate(newArticleModel(source), base, rdb.WithLogger(log.Discard()))
	So(err, ShouldBeNil)
	return sourceType, articleType
}

func TestRegistry(t *testing.T) {
	Convey("测试 Registry", t, func() {
		registry := NewRegistry(WithLogger(log.Discard()))
		sourceType, articleType := generateBlog(registry)

		Convey("按注册顺序列出存储类型", func() {
			types := registry.List()
			So(types, ShouldHaveLength, 2)
			So(types[0].Table, ShouldEqual, "orm_sourcemodel")
			So(types[1].Table, ShouldEqual, "orm_article")

			st, err := registry.Lookup("orm_article")
			So(err, ShouldBeNil)
			So(st == articleType, ShouldBeTrue)
		})

		Convey("重复注册相同的存储类型没有影响", func() {
			again, err := rdb.Generate(newSourceModel(), registry, rdb.WithLogger(log.Discard()))
			So(err, ShouldBeNil)
			So(again.Equal(sourceType), ShouldBeTrue)
			So(registry.List(), ShouldHaveLength, 2)
		})

		Convey("同名表的不同定义返回 ErrAlreadyRegistered", func() {
			def := newSourceModel()
			def.Fields = append(def.Fields, &model.Field{Name: "title", Type: model.String})
			_, err := rdb.Generate(def, registry, rdb.WithLogger(log.Discard()))
			So(errors.Is(err, ErrAlreadyRegistered), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "orm_sourcemodel")
		})

		Convey("未注册的表返回 ErrNotRegistered", func() {
			_, err := registry.Lookup("orm_unknown")
			So(errors.Is(err, ErrNotRegistered), ShouldBeTrue)
			So(registry.Register(nil), ShouldNotBeNil)
		})

		Convey("Insert 保存列值", func() {
			So(registry.Migrate(context.Background()), ShouldBeNil)

			record, err := articleType.New(map[string]any{"name": "hello", "source_id": 1, "extra": true})
			So(err, ShouldBeNil)
			So(registry.Insert(context.Background(), record), ShouldBeNil)

			rows := registry.Rows("orm_article")
			So(rows, ShouldHaveLength, 1)
			So(rows[0], ShouldResemble, map[string]any{"name": "hello", "source_id": 1})
		})

		Convey("Insert 未注册的记录返回 ErrNotRegistered", func() {
			other, err := rdb.Generate(newSourceModel(), nil, rdb.WithTablePrefix("other_"), rdb.WithLogger(log.Discard()))
			So(err, ShouldBeNil)
			record, err := other.New(map[string]any{"url": "http://example.com"})
			So(err, ShouldBeNil)
			err = registry.Insert(context.Background(), record)
			So(errors.Is(err, ErrNotRegistered), ShouldBeTrue)
			So(registry.Insert(context.Background(), nil), ShouldNotBeNil)
		})

		Convey("Close", func() {
			So(registry.Close(), ShouldBeNil)
		})
	})
}

func TestNewBindingWithOptions(t *testing.T) {
	Convey("测试 NewBindingWithOptions", t, func() {
		Convey("默认创建内存绑定", func() {
			b, err := NewBindingWithOptions(&Options{}, WithLogger(log.Discard()))
			So(err, ShouldBeNil)
			_, ok := b.(*Registry)
			So(ok, ShouldBeTrue)
		})

		Convey("缺少对应的配置返回错误", func() {
			for _, typ := range []string{"sql", "gorm", "es", "mongo"} {
				_, err := NewBindingWithOptions(&Options{Type: typ})
				So(err, ShouldNotBeNil)
			}
		})

		Convey("不支持的类型返回错误", func() {
			_, err := NewBindingWithOptions(&Options{Type: "cassandra"})
			So(err, ShouldNotBeNil)
			_, err = NewBindingWithOptions(nil)
			So(err, ShouldNotBeNil)
		})

		Convey("创建 sqlite 绑定", func() {
			b, err := NewBindingWithOptions(&Options{
				Type: "sql",
				SQL:  &SQLOptions{Driver: "sqlite3", Database: t.TempDir() + "/binding.db"},
			})
			So(err, ShouldBeNil)
			defer b.Close()
			_, ok := b.(*SQL)
			So(ok, ShouldBeTrue)
		})
	})
}
