package binding

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hatlonely/modelorm/log"
	"github.com/hatlonely/modelorm/rdb"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDialect(t *testing.T) {
	Convey("测试 Dialect", t, func() {
		registry := NewRegistry(WithLogger(log.Discard()))
		_, articleType := generateBlog(registry)

		Convey("不支持的驱动返回错误", func() {
			_, err := NewDialect("oracle")
			So(err, ShouldNotBeNil)
		})

		Convey("sqlite 自增主键内联", func() {
			d, err := NewDialect("sqlite3")
			So(err, ShouldBeNil)
			stmts := d.CreateTableSQL(articleType)
			So(stmts, ShouldHaveLength, 3)
			So(stmts[0], ShouldStartWith, "CREATE TABLE IF NOT EXISTS orm_article (")
			So(stmts[0], ShouldContainSubstring, "id INTEGER PRIMARY KEY AUTOINCREMENT")
			So(stmts[0], ShouldContainSubstring, "name TEXT NOT NULL")
			So(stmts[0], ShouldContainSubstring, "source_id INTEGER NOT NULL")
			So(stmts[0], ShouldContainSubstring, "score REAL,")
			So(stmts[0], ShouldContainSubstring, "FOREIGN KEY (source_id) REFERENCES orm_sourcemodel(id)")
			So(stmts[0], ShouldNotContainSubstring, "PRIMARY KEY (id)")
			So(stmts[1], ShouldEqual, "CREATE INDEX IF NOT EXISTS idx_orm_article_name ON orm_article (name)")
			So(stmts[2], ShouldEqual, "CREATE UNIQUE INDEX IF NOT EXISTS uk_orm_article_source_id ON orm_article (source_id)")
		})

		Convey("postgres 先创建序列", func() {
			d, err := NewDialect("postgres")
			So(err, ShouldBeNil)
			stmts := d.CreateTableSQL(articleType)
			So(stmts, ShouldHaveLength, 4)
			So(stmts[0], ShouldEqual, "CREATE SEQUENCE IF NOT EXISTS orm_article_id_seq")
			So(stmts[1], ShouldContainSubstring, "id BIGINT NOT NULL DEFAULT nextval('orm_article_id_seq')")
			So(stmts[1], ShouldContainSubstring, "score DOUBLE PRECISION")
			So(stmts[1], ShouldContainSubstring, "published TIMESTAMP")
			So(stmts[1], ShouldContainSubstring, "PRIMARY KEY (id)")
		})

		Convey("mysql 的索引不带 IF NOT EXISTS", func() {
			d, err := NewDialect("mysql")
			So(err, ShouldBeNil)
			stmts := d.CreateTableSQL(articleType)
			So(stmts[0], ShouldContainSubstring, "id BIGINT NOT NULL AUTO_INCREMENT")
			So(stmts[0], ShouldContainSubstring, "name VARCHAR(255) NOT NULL")
			So(stmts[1], ShouldEqual, "CREATE INDEX idx_orm_article_name ON orm_article (name)")
		})

		Convey("InsertSQL 按列顺序排列参数", func() {
			d, _ := NewDialect("postgres")
			stmt, args := d.InsertSQL(articleType, map[string]any{"source_id": 2, "name": "n"})
			So(stmt, ShouldEqual, "INSERT INTO orm_article (name, source_id) VALUES ($1, $2)")
			So(args, ShouldResemble, []any{"n", 2})

			d, _ = NewDialect("sqlite3")
			stmt, args = d.InsertSQL(articleType, map[string]any{})
			So(stmt, ShouldEqual, "INSERT INTO orm_article DEFAULT VALUES")
			So(args, ShouldBeEmpty)
		})
	})
}

func TestSQL(t *testing.T) {
	Convey("测试 SQL 绑定", t, func() {
		ctx := context.Background()
		s, err := NewSQLWithOptions(&SQLOptions{
			Driver:   "sqlite3",
			Database: filepath.Join(t.TempDir(), "test.db"),
		}, WithLogger(log.Discard()))
		So(err, ShouldBeNil)
		defer s.Close()

		sourceType, articleType := generateBlog(s)

		Convey("Migrate 可以重复执行", func() {
			So(s.Migrate(ctx), ShouldBeNil)
			So(s.Migrate(ctx), ShouldBeNil)

			var count int
			err := s.DB().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name IN ('idx_orm_article_name', 'uk_orm_article_source_id')").Scan(&count)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 2)
		})

		Convey("Insert 写入记录", func() {
			So(s.Migrate(ctx), ShouldBeNil)

			source, err := sourceType.New(map[string]any{"url": "http://example.com"})
			So(err, ShouldBeNil)
			So(s.Insert(ctx, source), ShouldBeNil)

			article, err := articleType.New(map[string]any{
				"name":      "hello",
				"source_id": 1,
				"score":     2.5,
				"published": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			})
			So(err, ShouldBeNil)
			So(s.Insert(ctx, article), ShouldBeNil)

			var name string
			var sourceID int64
			var score float64
			err = s.DB().QueryRow("SELECT name, source_id, score FROM orm_article WHERE id = 1").Scan(&name, &sourceID, &score)
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "hello")
			So(sourceID, ShouldEqual, 1)
			So(score, ShouldEqual, 2.5)

			Convey("外键约束生效", func() {
				orphan, err := articleType.New(map[string]any{"name": "orphan", "source_id": 99})
				So(err, ShouldBeNil)
				So(s.Insert(ctx, orphan), ShouldNotBeNil)

				var count int
				So(s.DB().QueryRow("SELECT COUNT(*) FROM orm_article").Scan(&count), ShouldBeNil)
				So(count, ShouldEqual, 1)
			})

			Convey("唯一索引生效", func() {
				dup, err := articleType.New(map[string]any{"name": "again", "source_id": 1})
				So(err, ShouldBeNil)
				So(s.Insert(ctx, dup), ShouldNotBeNil)
			})
		})

		Convey("Insert 未注册的记录返回 ErrNotRegistered", func() {
			other, err := rdb.Generate(newSourceModel(), nil, rdb.WithTablePrefix("x_"), rdb.WithLogger(log.Discard()))
			So(err, ShouldBeNil)
			record, err := other.New(map[string]any{"url": "u"})
			So(err, ShouldBeNil)
			So(errors.Is(s.Insert(ctx, record), ErrNotRegistered), ShouldBeTrue)
		})
	})

	Convey("测试 NewSQLWithOptions 参数错误", t, func() {
		_, err := NewSQLWithOptions(nil)
		So(err, ShouldNotBeNil)
		_, err = NewSQLWithOptions(&SQLOptions{Driver: "oracle"})
		So(err, ShouldNotBeNil)
		_, err = NewSQLWithOptions(&SQLOptions{Driver: "sqlite3"})
		So(err, ShouldNotBeNil)
	})
}
