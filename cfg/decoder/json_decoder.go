package decoder

import (
	"encoding/json"

	"github.com/hatlonely/modelorm/cfg/storage"
	"github.com/pkg/errors"
)

// JsonDecoder JSON格式解码器
type JsonDecoder struct{}

func NewJsonDecoder() *JsonDecoder {
	return &JsonDecoder{}
}

// Decode 将JSON数据解码为Storage对象
func (j *JsonDecoder) Decode(data []byte) (storage.Storage, error) {
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "failed to decode JSON")
	}
	return storage.NewMapStorage(result), nil
}
