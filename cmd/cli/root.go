package main

import (
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/biaslens/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "biaslens",
		Short:         "Check a dataset for bias against a sensitive attribute",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.Path(), "path to config.yaml")

	root.AddCommand(newAnalyzeCmd(&configPath))
	return root
}
