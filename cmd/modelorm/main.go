package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// 构建时通过 -ldflags "-X main.version=..." 注入
var version = "dev"

var (
	configFile string
	watch      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "modelorm",
		Short:         "Generate relational schemas from model definitions",
		Long:          `modelorm turns model definitions into relational tables, columns, foreign keys and indexes, and migrates them into a configured store.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "modelorm.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&watch, "watch", "w", false, "Re-run when the model file changes")

	rootCmd.AddCommand(
		ddlCmd(),
		migrateCmd(),
		catalogCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
