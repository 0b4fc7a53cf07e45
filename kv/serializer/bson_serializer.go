package serializer

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// BSONSerializer T 必须编码为文档（结构体、map 或它们的指针）
type BSONSerializer[T any] struct{}

func NewBSONSerializer[T any]() *BSONSerializer[T] {
	return &BSONSerializer[T]{}
}

func (s *BSONSerializer[T]) Serialize(from T) ([]byte, error) {
	buf, err := bson.Marshal(from)
	if err != nil {
		return nil, errors.Wrap(err, "bson.Marshal failed")
	}
	return buf, nil
}

func (s *BSONSerializer[T]) Deserialize(to []byte) (T, error) {
	var result T
	if err := bson.Unmarshal(to, &result); err != nil {
		return result, errors.Wrap(err, "bson.Unmarshal failed")
	}
	return result, nil
}
