package serializer

import (
	"encoding/json"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// StructPBSerializer 把值按 json 字段转换成 google.protobuf.Struct 后用 protobuf 编码，
// 任意 json 可编码的类型都可以使用，不需要生成的 proto 代码
type StructPBSerializer[T any] struct{}

func NewStructPBSerializer[T any]() *StructPBSerializer[T] {
	return &StructPBSerializer[T]{}
}

func (s *StructPBSerializer[T]) Serialize(from T) ([]byte, error) {
	buf, err := json.Marshal(from)
	if err != nil {
		return nil, errors.Wrap(err, "json.Marshal failed")
	}
	var m map[string]any
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, errors.Wrap(err, "value is not a json object")
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, errors.Wrap(err, "structpb.NewStruct failed")
	}
	out, err := proto.Marshal(st)
	if err != nil {
		return nil, errors.Wrap(err, "proto.Marshal failed")
	}
	return out, nil
}

func (s *StructPBSerializer[T]) Deserialize(to []byte) (T, error) {
	var result T
	st := &structpb.Struct{}
	if err := proto.Unmarshal(to, st); err != nil {
		return result, errors.Wrap(err, "proto.Unmarshal failed")
	}
	buf, err := json.Marshal(st.AsMap())
	if err != nil {
		return result, errors.Wrap(err, "json.Marshal failed")
	}
	if err := json.Unmarshal(buf, &result); err != nil {
		return result, errors.Wrap(err, "json.Unmarshal failed")
	}
	return result, nil
}
