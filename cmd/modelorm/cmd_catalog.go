package main

import (
	"context"

	"github.com/hatlonely/modelorm/catalog"
	"github.com/hatlonely/modelorm/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Save storage type descriptors into the configured catalog store",
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
				return saveCatalog(ctx, c, logger)
			})
		},
	}
}

// saveCatalog 命令结束后进程内的存储随之消失，只接受落盘或远程的存储
func saveCatalog(ctx context.Context, c *Config, logger log.Logger) error {
	options := c.Catalog
	if options == nil || options.Store == nil {
		return errors.New("catalog.store is required")
	}
	switch options.Store.Type {
	case "bolt", "leveldb", "pebble", "redis":
	default:
		return errors.Errorf("catalog store %q does not outlive the command, use bolt, leveldb, pebble or redis", options.Store.Type)
	}

	cat, err := catalog.NewWithOptions(options, catalog.WithLogger(logger))
	if err != nil {
		return err
	}
	defer cat.Close()

	types, err := generate(c.Models, c.Prefix, nil, logger)
	if err != nil {
		return err
	}
	if err := cat.SaveAll(ctx, types); err != nil {
		return err
	}
	logger.InfoContext(ctx, "catalog saved", "tables", len(types))
	return nil
}
