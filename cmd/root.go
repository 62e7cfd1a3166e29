package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bhtechnology/snapshot-intake/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "snapshot-intake",
	Short: "Webhook service for snapshot lead submissions",
	Long:  "Verifies signed lead tokens, upserts clients and jobs into ServiceM8, and sends booking and checklist emails.",
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
