package decoder

import (
	"path/filepath"
	"strings"

	"github.com/hatlonely/modelorm/cfg/storage"
	"github.com/pkg/errors"
)

// Decoder 配置数据解码器接口
// 负责将原始数据转换为存储对象
type Decoder interface {
	// Decode 将原始数据解码为存储对象
	Decode(data []byte) (storage.Storage, error)
}

// NewDecoder 按格式名创建解码器，支持 json/yaml/yml/toml/ini
func NewDecoder(format string) (Decoder, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return NewJsonDecoder(), nil
	case "yaml", "yml":
		return NewYamlDecoder(), nil
	case "toml":
		return NewTomlDecoder(), nil
	case "ini":
		return NewIniDecoder(), nil
	}
	return nil, errors.Errorf("unsupported config format %q", format)
}

// NewDecoderForFile 按文件扩展名选择解码器
func NewDecoderForFile(path string) (Decoder, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, errors.Errorf("cannot detect config format of %q", path)
	}
	return NewDecoder(ext)
}
