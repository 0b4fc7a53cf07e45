package model

import (
	"github.com/pkg/errors"
)

// Set 一组模型定义，负责按名字解析模型间的引用
type Set struct {
	defs   []*Definition
	byName map[string]*Definition
}

// NewSet 创建模型集合并解析引用。模型名不能重复
func NewSet(defs ...*Definition) (*Set, error) {
	s := &Set{byName: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if err := s.Add(d); err != nil {
			return nil, err
		}
	}
	s.Resolve()
	return s, nil
}

// Add 加入一个模型定义，不会触发引用解析
func (s *Set) Add(d *Definition) error {
	if d == nil {
		return errors.New("definition is nil")
	}
	if _, ok := s.byName[d.Name]; ok {
		return errors.Errorf("duplicate model %s", d.Name)
	}
	s.defs = append(s.defs, d)
	s.byName[d.Name] = d
	return nil
}

// Get 按名字获取模型
func (s *Set) Get(name string) (*Definition, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// Definitions 按加入顺序返回所有模型
func (s *Set) Definitions() []*Definition {
	return append([]*Definition(nil), s.defs...)
}

// Resolve 将类型为模型名的字段指向对应的定义。
// 找不到的类型保持未解析，在生成时报告为不支持的类型
func (s *Set) Resolve() {
	for _, d := range s.defs {
		for _, f := range d.Fields {
			if f.Ref != nil || f.Type.IsScalar() {
				continue
			}
			if ref, ok := s.byName[string(f.Type)]; ok {
				f.Ref = ref
			}
		}
	}
}
