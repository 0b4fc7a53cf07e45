package model

import (
	"github.com/hatlonely/modelorm/cfg"
	"github.com/pkg/errors"
)

// File 模型定义文件的结构
//
//	models:
//	  - name: User
//	    fields:
//	      - {name: id, type: int}
//	      - {name: email, type: string, required: true}
//	    meta: {primaryKey: id, autoIncrement: true, uniqueIndexes: [email]}
type File struct {
	Models []*Definition `cfg:"models" validate:"required,min=1"`
}

// LoadFile 从 json/yaml/toml 文件加载模型集合，并解析模型间的引用
func LoadFile(path string) (*Set, error) {
	var file File
	if err := cfg.Load(path, &file); err != nil {
		return nil, errors.WithMessagef(err, "failed to load models from %s", path)
	}
	return file.Set()
}

// Decode 按格式解码模型定义
func Decode(data []byte, format string) (*Set, error) {
	var file File
	if err := cfg.Decode(data, format, &file); err != nil {
		return nil, errors.WithMessage(err, "failed to decode models")
	}
	return file.Set()
}

// Set 校验所有模型并构建模型集合
func (f *File) Set() (*Set, error) {
	for _, d := range f.Models {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return NewSet(f.Models...)
}
