package binding

import (
	"context"
	"sync"

	"github.com/hatlonely/modelorm/log"
	"github.com/hatlonely/modelorm/rdb"
	"github.com/pkg/errors"
)

// Registry 按表名登记存储类型，只追加不修改，可以并发使用。
// 单独使用时作为内存绑定，Insert 的记录保存在内存中
type Registry struct {
	mu     sync.RWMutex
	types  map[string]*rdb.StorageType
	tables []string
	rows   map[string][]map[string]any
	logger log.Logger
}

func NewRegistry(opts ...Option) *Registry {
	o := newBindingOptions(opts)
	return &Registry{
		types:  map[string]*rdb.StorageType{},
		rows:   map[string][]map[string]any{},
		logger: o.logger,
	}
}

// Register 重复注册相同的存储类型直接返回，表名相同但定义不同返回 ErrAlreadyRegistered
func (r *Registry) Register(t *rdb.StorageType) error {
	if t == nil || t.Table == "" {
		return errors.New("storage type has no table")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[t.Table]; ok {
		if existing.Equal(t) {
			return nil
		}
		return errors.WithMessagef(ErrAlreadyRegistered, "table %s", t.Table)
	}
	r.types[t.Table] = t
	r.tables = append(r.tables, t.Table)
	return nil
}

func (r *Registry) Lookup(table string) (*rdb.StorageType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[table]
	if !ok {
		return nil, errors.WithMessagef(ErrNotRegistered, "table %s", table)
	}
	return t, nil
}

// List 按注册顺序返回所有存储类型
func (r *Registry) List() []*rdb.StorageType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]*rdb.StorageType, 0, len(r.tables))
	for _, table := range r.tables {
		types = append(types, r.types[table])
	}
	return types
}

// Migrate 内存绑定不需要建表
func (r *Registry) Migrate(ctx context.Context) error {
	for _, t := range r.List() {
		r.logger.InfoContext(ctx, "migrated table", "table", t.Table, "binding", "registry")
	}
	return nil
}

func (r *Registry) Insert(ctx context.Context, record *rdb.Record) error {
	t, err := r.registered(record)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[t.Table] = append(r.rows[t.Table], record.ColumnValues())
	return nil
}

// Rows 返回内存中写入的记录
func (r *Registry) Rows(table string) []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]map[string]any(nil), r.rows[table]...)
}

func (r *Registry) Close() error {
	return nil
}

// registered 确认记录的存储类型就是注册的那一个
func (r *Registry) registered(record *rdb.Record) (*rdb.StorageType, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	t, err := r.Lookup(record.Type().Table)
	if err != nil {
		return nil, err
	}
	if !t.Equal(record.Type()) {
		return nil, errors.WithMessagef(ErrNotRegistered, "record type of table %s differs from the registered one", t.Table)
	}
	return t, nil
}
