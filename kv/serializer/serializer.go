package serializer

import (
	"strings"

	"github.com/pkg/errors"
)

// Serializer 在 F 和 T 之间转换
type Serializer[F, T any] interface {
	Serialize(from F) (T, error)
	Deserialize(to T) (F, error)
}

// NewByteSerializer 按名字创建字节序列化器，名字为空时使用 msgpack
func NewByteSerializer[T any](name string) (Serializer[T, []byte], error) {
	switch strings.ToLower(name) {
	case "", "msgpack":
		return NewMsgPackSerializer[T](), nil
	case "json":
		return NewJSONSerializer[T](), nil
	case "bson":
		return NewBSONSerializer[T](), nil
	case "protobuf", "structpb":
		return NewStructPBSerializer[T](), nil
	}
	return nil, errors.Errorf("unsupported serializer %q", name)
}
