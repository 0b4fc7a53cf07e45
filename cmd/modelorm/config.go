package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hatlonely/modelorm/catalog"
	"github.com/hatlonely/modelorm/cfg"
	"github.com/hatlonely/modelorm/log"
	"github.com/hatlonely/modelorm/model"
	"github.com/hatlonely/modelorm/rdb"
	"github.com/hatlonely/modelorm/rdb/binding"
	"github.com/pkg/errors"
)

// Config 命令行配置文件
//
//	models: models.yaml
//	prefix: orm_
//	binding:
//	  type: sql
//	  sql: {driver: sqlite3, database: data/app.db}
//	catalog:
//	  store: {type: bolt, bolt: {path: data/catalog.db}}
type Config struct {
	// 模型定义文件，相对路径基于配置文件所在目录
	Models  string           `cfg:"models" validate:"required"`
	Prefix  string           `cfg:"prefix" def:"orm_"`
	Binding *binding.Options `cfg:"binding"`
	Catalog *catalog.Options `cfg:"catalog"`
	Log     *log.Options     `cfg:"log"`
}

func loadConfig(path string) (*Config, error) {
	var c Config
	if err := cfg.Load(path, &c); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(c.Models) {
		c.Models = filepath.Join(filepath.Dir(path), c.Models)
	}
	if c.Binding == nil {
		c.Binding = &binding.Options{Type: "registry"}
	}
	return &c, nil
}

func (c *Config) logger() (log.Logger, error) {
	logger, err := log.NewLoggerWithOptions(c.Log)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create logger")
	}
	return logger, nil
}

// generate 加载模型文件并生成全部存储类型，base 为 nil 时不注册
func generate(modelsPath, prefix string, base rdb.Base, logger log.Logger) ([]*rdb.StorageType, error) {
	set, err := model.LoadFile(modelsPath)
	if err != nil {
		return nil, err
	}
	return rdb.GenerateAll(set, base, rdb.WithTablePrefix(prefix), rdb.WithLogger(logger))
}

// runOrWatch 先执行一次 fn，开启 --watch 时在文件变更后重复执行，直到收到退出信号
func runOrWatch(path string, logger log.Logger, fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fn(ctx); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	w, err := cfg.NewWatcher(path, logger)
	if err != nil {
		return err
	}
	defer w.Close()
	w.OnChange(func(string) error {
		return fn(ctx)
	})

	logger.Info("watching for changes", "path", path)
	if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
