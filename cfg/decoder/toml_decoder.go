package decoder

import (
	"github.com/BurntSushi/toml"
	"github.com/hatlonely/modelorm/cfg/storage"
	"github.com/pkg/errors"
)

// TomlDecoder TOML格式解码器
type TomlDecoder struct{}

func NewTomlDecoder() *TomlDecoder {
	return &TomlDecoder{}
}

// Decode 将TOML数据解码为Storage对象
func (t *TomlDecoder) Decode(data []byte) (storage.Storage, error) {
	var parsed map[string]any
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to decode TOML")
	}
	return storage.NewMapStorage(parsed), nil
}
