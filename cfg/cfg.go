package cfg

import (
	"os"
	"path/filepath"

	"github.com/hatlonely/modelorm/cfg/decoder"
	"github.com/hatlonely/modelorm/cfg/storage"
	"github.com/pkg/errors"
)

// LoadStorage 读取配置文件并按扩展名解码
func LoadStorage(path string) (storage.Storage, error) {
	dec, err := decoder.NewDecoderForFile(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	s, err := dec.Decode(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to decode config file %s", filepath.Base(path))
	}
	return s, nil
}

// Load 读取配置文件并绑定到 object，依次完成类型转换、默认值填充和校验
func Load(path string, object any) error {
	s, err := LoadStorage(path)
	if err != nil {
		return err
	}
	return Bind(s, object)
}

// Decode 按指定格式解码 data 并绑定到 object
func Decode(data []byte, format string, object any) error {
	dec, err := decoder.NewDecoder(format)
	if err != nil {
		return err
	}
	s, err := dec.Decode(data)
	if err != nil {
		return err
	}
	return Bind(s, object)
}

// Bind 将存储对象绑定到 object
func Bind(s storage.Storage, object any) error {
	if err := s.ConvertTo(object); err != nil {
		return errors.WithMessage(err, "failed to convert config")
	}
	if err := SetDefaults(object); err != nil {
		return errors.WithMessage(err, "failed to set defaults")
	}
	if err := ValidateStruct(object); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}
