package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hatlonely/modelorm/kv/serializer"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

type testValue struct {
	Name  string   `json:"name" bson:"name" msgpack:"name"`
	Count int      `json:"count" bson:"count" msgpack:"count"`
	Tags  []string `json:"tags" bson:"tags" msgpack:"tags"`
}

func mustSerializer(name string) serializer.Serializer[*testValue, []byte] {
	s, err := serializer.NewByteSerializer[*testValue](name)
	if err != nil {
		panic(err)
	}
	return s
}

// testStoreSuite 所有存储都要满足的行为
func testStoreSuite(s Store[string, *testValue]) {
	ctx := context.Background()

	Convey("Set 后 Get 得到相同的值", func() {
		So(s.Set(ctx, "k1", &testValue{Name: "a", Count: 1, Tags: []string{"x", "y"}}), ShouldBeNil)
		v, err := s.Get(ctx, "k1")
		So(err, ShouldBeNil)
		So(v, ShouldResemble, &testValue{Name: "a", Count: 1, Tags: []string{"x", "y"}})
	})

	Convey("不存在的键返回 ErrKeyNotFound", func() {
		_, err := s.Get(ctx, "missing")
		So(errors.Is(err, ErrKeyNotFound), ShouldBeTrue)
	})

	Convey("WithIfNotExist 时已存在的键返回 ErrConditionFailed", func() {
		So(s.Set(ctx, "k2", &testValue{Name: "first"}, WithIfNotExist()), ShouldBeNil)
		err := s.Set(ctx, "k2", &testValue{Name: "second"}, WithIfNotExist())
		So(errors.Is(err, ErrConditionFailed), ShouldBeTrue)
		v, err := s.Get(ctx, "k2")
		So(err, ShouldBeNil)
		So(v.Name, ShouldEqual, "first")
	})

	Convey("Del 删除键，键不存在也返回成功", func() {
		So(s.Set(ctx, "k3", &testValue{Name: "c"}), ShouldBeNil)
		So(s.Del(ctx, "k3"), ShouldBeNil)
		_, err := s.Get(ctx, "k3")
		So(errors.Is(err, ErrKeyNotFound), ShouldBeTrue)
		So(s.Del(ctx, "k3"), ShouldBeNil)
	})

	Convey("BatchSet 返回每个键的结果", func() {
		So(s.Set(ctx, "b1", &testValue{Name: "old"}), ShouldBeNil)

		errs, err := s.BatchSet(ctx, []string{"b1", "b2"}, []*testValue{{Name: "new1"}, {Name: "new2"}}, WithIfNotExist())
		So(err, ShouldBeNil)
		So(errors.Is(errs[0], ErrConditionFailed), ShouldBeTrue)
		So(errs[1], ShouldBeNil)

		errs, err = s.BatchSet(ctx, []string{"b1", "b3"}, []*testValue{{Name: "new1"}, {Name: "new3"}})
		So(err, ShouldBeNil)
		So(errs, ShouldResemble, []error{nil, nil})
		v, err := s.Get(ctx, "b1")
		So(err, ShouldBeNil)
		So(v.Name, ShouldEqual, "new1")

		_, err = s.BatchSet(ctx, []string{"b4"}, nil)
		So(err, ShouldNotBeNil)
	})
}

func TestMapStore(t *testing.T) {
	Convey("测试 MapStore", t, func() {
		s := NewMapStore[string, *testValue]()
		defer s.Close()
		testStoreSuite(s)
	})
}

func TestBoltDBStore(t *testing.T) {
	Convey("测试 BoltDBStore", t, func() {
		bytesStore, err := NewBoltDBStoreWithOptions(&BoltDBStoreOptions{
			DBPath: filepath.Join(t.TempDir(), "sub", "bolt.db"),
		})
		So(err, ShouldBeNil)
		s := NewCodecStore[*testValue](bytesStore, mustSerializer("json"))
		defer s.Close()
		testStoreSuite(s)
	})

	Convey("缺少 DBPath 返回错误", t, func() {
		_, err := NewBoltDBStoreWithOptions(&BoltDBStoreOptions{})
		So(err, ShouldNotBeNil)
		_, err = NewBoltDBStoreWithOptions(nil)
		So(err, ShouldNotBeNil)
	})
}

func TestLevelDBStore(t *testing.T) {
	Convey("测试 LevelDBStore", t, func() {
		bytesStore, err := NewLevelDBStoreWithOptions(&LevelDBStoreOptions{
			DBPath:      filepath.Join(t.TempDir(), "leveldb"),
			Compression: "snappy",
		})
		So(err, ShouldBeNil)
		s := NewCodecStore[*testValue](bytesStore, mustSerializer("msgpack"))
		defer s.Close()
		testStoreSuite(s)
	})

	Convey("未知的压缩方式返回错误", t, func() {
		_, err := NewLevelDBStoreWithOptions(&LevelDBStoreOptions{DBPath: t.TempDir(), Compression: "zstd"})
		So(err, ShouldNotBeNil)
	})
}

func TestPebbleStore(t *testing.T) {
	Convey("测试 PebbleStore", t, func() {
		bytesStore, err := NewPebbleStoreWithOptions(&PebbleStoreOptions{
			DBPath:                filepath.Join(t.TempDir(), "pebble"),
			SetWithoutSync:        true,
			CacheSize:             1 << 20,
			LoadBlockSemaCapacity: 4,
		})
		So(err, ShouldBeNil)
		s := NewCodecStore[*testValue](bytesStore, mustSerializer("bson"))
		defer s.Close()
		testStoreSuite(s)
	})
}

func TestFreeCacheStore(t *testing.T) {
	Convey("测试 FreeCacheStore", t, func() {
		bytesStore, err := NewFreeCacheStoreWithOptions(&FreeCacheStoreOptions{Size: 1 << 20})
		So(err, ShouldBeNil)
		s := NewCodecStore[*testValue](bytesStore, mustSerializer("protobuf"))
		defer s.Close()
		testStoreSuite(s)
	})

	Convey("未配置 Size 时使用默认大小", t, func() {
		s, err := NewFreeCacheStoreWithOptions(&FreeCacheStoreOptions{})
		So(err, ShouldBeNil)
		defer s.Close()

		value := make([]byte, 8*1024)
		So(s.Set(context.Background(), "big", value), ShouldBeNil)
		v, err := s.Get(context.Background(), "big")
		So(err, ShouldBeNil)
		So(len(v), ShouldEqual, len(value))
	})

	Convey("超过单条上限返回 ErrEntryTooLarge", t, func() {
		s, err := NewFreeCacheStoreWithOptions(&FreeCacheStoreOptions{Size: 1 << 20})
		So(err, ShouldBeNil)
		defer s.Close()

		err = s.Set(context.Background(), "big", make([]byte, 4*1024))
		So(errors.Is(err, ErrEntryTooLarge), ShouldBeTrue)
	})
}

func TestRedisStore(t *testing.T) {
	Convey("测试 RedisStore", t, func() {
		mr := miniredis.RunT(t)
		bytesStore, err := NewRedisStoreWithOptions(&RedisStoreOptions{
			Endpoint:  mr.Addr(),
			KeyPrefix: "test:",
		})
		So(err, ShouldBeNil)
		s := NewCodecStore[*testValue](bytesStore, mustSerializer("json"))
		defer s.Close()
		testStoreSuite(s)

		Convey("键带有前缀", func() {
			So(s.Set(context.Background(), "prefixed", &testValue{Name: "p"}), ShouldBeNil)
			So(mr.Exists("test:prefixed"), ShouldBeTrue)
		})
	})

	Convey("没有地址返回错误", t, func() {
		_, err := NewRedisStoreWithOptions(&RedisStoreOptions{})
		So(err, ShouldNotBeNil)
	})
}

func TestNewStoreWithOptions(t *testing.T) {
	Convey("测试 NewStoreWithOptions", t, func() {
		Convey("默认创建内存存储", func() {
			s, err := NewStoreWithOptions[*testValue](&Options{})
			So(err, ShouldBeNil)
			_, ok := s.(*MapStore[string, *testValue])
			So(ok, ShouldBeTrue)
		})

		Convey("字节存储包装成 CodecStore", func() {
			s, err := NewStoreWithOptions[*testValue](&Options{
				Type:       "leveldb",
				Serializer: "json",
				LevelDB:    &LevelDBStoreOptions{DBPath: filepath.Join(t.TempDir(), "leveldb")},
			})
			So(err, ShouldBeNil)
			defer s.Close()
			_, ok := s.(*CodecStore[*testValue])
			So(ok, ShouldBeTrue)
			testStoreSuite(s)
		})

		Convey("代码构造的 options 也会补全默认值", func() {
			options := &Options{Type: "freecache"}
			s, err := NewStoreWithOptions[*testValue](options)
			So(err, ShouldBeNil)
			defer s.Close()
			So(options.Serializer, ShouldEqual, "msgpack")

			name := strings.Repeat("x", 4*1024)
			So(s.Set(context.Background(), "large", &testValue{Name: name}), ShouldBeNil)
			v, err := s.Get(context.Background(), "large")
			So(err, ShouldBeNil)
			So(v.Name, ShouldEqual, name)
		})

		Convey("缺少存储配置或类型错误返回错误", func() {
			_, err := NewStoreWithOptions[*testValue](&Options{Type: "bolt"})
			So(err, ShouldNotBeNil)
			_, err = NewStoreWithOptions[*testValue](&Options{Type: "etcd"})
			So(err, ShouldNotBeNil)
			_, err = NewStoreWithOptions[*testValue](&Options{Type: "freecache", Serializer: "xml"})
			So(err, ShouldNotBeNil)
			_, err = NewStoreWithOptions[*testValue](nil)
			So(err, ShouldNotBeNil)
		})
	})
}
