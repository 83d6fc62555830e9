/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hortator-ai/cortex/internal/engine"
	"github.com/hortator-ai/cortex/internal/telemetry"
)

var (
	dataDir      string
	outputFormat string
	devLog       bool
	eng          *engine.Engine
	log          *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "CLI for Cortex - an autonomous multi-agent orchestration engine",
	Long: `Cortex drives requests through an append-only integrity ledger, a
capability-token-secured message fabric, a tiered agent registry, and a
dependency-aware task scheduler, producing located deliverables under a
quality gate.

Examples:
  # Spawn an agent into the registry
  cortex spawn --name worker-1 --tier Micro --capability compute

  # Drive a chat request through the full 7-phase workflow
  cortex run --message "summarize the access logs" --deliverable report.md

  # Inspect the append-only ledger
  cortex ledger show
  cortex verify`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initEngine()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if eng == nil {
			return nil
		}
		return eng.SaveAgents()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Directory holding the ledger and state snapshots")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev", false, "Use a human-readable console logger instead of JSON")
}

func defaultDataDir() string {
	if dir := os.Getenv("CORTEX_DATA_DIR"); dir != "" {
		return dir
	}
	return ".cortex"
}

func initEngine() error {
	var err error
	log, err = telemetry.NewLogger(devLog)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	eng, err = engine.Open(dataDir, log)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	return nil
}
