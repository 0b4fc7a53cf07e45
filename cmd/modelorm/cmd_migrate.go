package main

import (
	"context"

	"github.com/hatlonely/modelorm/log"
	"github.com/hatlonely/modelorm/rdb/binding"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Generate storage types and create them in the configured binding",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			logger, err := c.logger()
			if err != nil {
				return err
			}
			return runOrWatch(c.Models, logger, func(ctx context.Context) error {
				return migrate(ctx, c, logger)
			})
		},
	}
}

// migrate 每次都新建绑定，模型文件变更后注册表里不会残留旧的类型
func migrate(ctx context.Context, c *Config, logger log.Logger) error {
	b, err := binding.NewBindingWithOptions(c.Binding, binding.WithLogger(logger))
	if err != nil {
		return errors.WithMessage(err, "failed to create binding")
	}
	defer b.Close()

	types, err := generate(c.Models, c.Prefix, b, logger)
	if err != nil {
		return err
	}
	if err := b.Migrate(ctx); err != nil {
		return err
	}
	logger.InfoContext(ctx, "migrate done", "binding", c.Binding.Type, "tables", len(types))
	return nil
}
