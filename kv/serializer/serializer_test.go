package serializer

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type testDoc struct {
	Name    string            `json:"name" bson:"name" msgpack:"name"`
	Score   float64           `json:"score" bson:"score" msgpack:"score"`
	Columns []string          `json:"columns" bson:"columns" msgpack:"columns"`
	Labels  map[string]string `json:"labels" bson:"labels" msgpack:"labels"`
}

func TestNewByteSerializer(t *testing.T) {
	Convey("测试 NewByteSerializer", t, func() {
		doc := &testDoc{
			Name:    "orm_article",
			Score:   1.5,
			Columns: []string{"id", "name"},
			Labels:  map[string]string{"owner": "blog"},
		}

		for _, name := range []string{"", "json", "msgpack", "bson", "protobuf"} {
			s, err := NewByteSerializer[*testDoc](name)
			So(err, ShouldBeNil)

			buf, err := s.Serialize(doc)
			So(err, ShouldBeNil)
			So(buf, ShouldNotBeEmpty)

			out, err := s.Deserialize(buf)
			So(err, ShouldBeNil)
			So(out, ShouldResemble, doc)
		}

		Convey("默认使用 msgpack", func() {
			s, err := NewByteSerializer[*testDoc]("")
			So(err, ShouldBeNil)
			_, ok := s.(*MsgPackSerializer[*testDoc])
			So(ok, ShouldBeTrue)
		})

		Convey("不支持的序列化方式返回错误", func() {
			_, err := NewByteSerializer[*testDoc]("xml")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestStructPBSerializer(t *testing.T) {
	Convey("测试 StructPBSerializer", t, func() {
		Convey("非对象的值不能编码", func() {
			_, err := NewStructPBSerializer[[]int]().Serialize([]int{1, 2})
			So(err, ShouldNotBeNil)
		})

		Convey("损坏的数据返回错误", func() {
			_, err := NewStructPBSerializer[*testDoc]().Deserialize([]byte{0xff, 0xff})
			So(err, ShouldNotBeNil)
		})
	})
}
