package decoder

import (
	"strconv"
	"strings"

	"github.com/hatlonely/modelorm/cfg/storage"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// IniDecoder INI格式解码器
// section 映射为嵌套对象，重复键映射为数组
type IniDecoder struct {
	// AllowShadows 允许重复键（创建数组）
	AllowShadows bool
}

func NewIniDecoder() *IniDecoder {
	return &IniDecoder{AllowShadows: true}
}

// Decode 将INI数据解码为Storage对象
func (i *IniDecoder) Decode(data []byte) (storage.Storage, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:         true,
		AllowShadows:             i.AllowShadows,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode INI")
	}

	result := make(map[string]any)
	for _, section := range file.Sections() {
		target := result
		if section.Name() != ini.DefaultSection {
			target = make(map[string]any)
			result[section.Name()] = target
		}
		for _, key := range section.Keys() {
			target[key.Name()] = i.parseValue(key)
		}
	}
	return storage.NewMapStorage(result), nil
}

func (i *IniDecoder) parseValue(key *ini.Key) any {
	if i.AllowShadows {
		if values := key.ValueWithShadows(); len(values) > 1 {
			items := make([]any, len(values))
			for idx, v := range values {
				items[idx] = parseScalar(v)
			}
			return items
		}
	}
	return parseScalar(key.String())
}

// parseScalar 尝试把字符串转换成 bool/int/float
func parseScalar(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return v
	}
	return value
}
