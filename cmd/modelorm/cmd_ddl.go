package main

import (
	"context"
	"fmt"
	"io"

	"github.com/hatlonely/modelorm/log"
	"github.com/hatlonely/modelorm/rdb"
	"github.com/hatlonely/modelorm/rdb/binding"
	"github.com/spf13/cobra"
)

func ddlCmd() *cobra.Command {
	var (
		modelsPath string
		driver     string
		prefix     string
	)

	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print CREATE TABLE and CREATE INDEX statements for a model file",
		Example: `  modelorm ddl -m models.yaml
  modelorm ddl -m models.yaml --driver postgres --prefix app_`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect, err := binding.NewDialect(driver)
			if err != nil {
				return err
			}
			logger := log.Default()
			return runOrWatch(modelsPath, logger, func(ctx context.Context) error {
				return writeDDL(cmd.OutOrStdout(), modelsPath, prefix, dialect, logger)
			})
		},
	}

	cmd.Flags().StringVarP(&modelsPath, "models", "m", "models.yaml", "Path to model definition file")
	cmd.Flags().StringVar(&driver, "driver", "sqlite3", "SQL dialect: sqlite3, mysql or postgres")
	cmd.Flags().StringVar(&prefix, "prefix", rdb.DefaultTablePrefix, "Table name prefix")

	return cmd
}

// writeDDL 按模型文件中的顺序输出每张表的建表语句
func writeDDL(w io.Writer, modelsPath, prefix string, dialect *binding.Dialect, logger log.Logger) error {
	types, err := generate(modelsPath, prefix, nil, logger)
	if err != nil {
		return err
	}
	for _, t := range types {
		fmt.Fprintf(w, "-- %s\n", t.Table)
		for _, stmt := range dialect.CreateTableSQL(t) {
			fmt.Fprintf(w, "%s;\n", stmt)
		}
		fmt.Fprintln(w)
	}
	return nil
}
