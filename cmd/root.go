package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exportdss/downstream-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "downstream",
	Short: "Export downstreaming analysis for Indonesian commodities",
	Long:  "Classifies a commodity into its raw/semi/finished processing chain, pulls UN Comtrade trade series for each stage, and scores the downstreaming opportunity against global demand.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
