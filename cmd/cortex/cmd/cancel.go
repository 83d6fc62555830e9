/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/engine"
)

var cancelForce bool

var cancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Mark a task from the last run's task snapshot as cancelled",
	Long: `Cortex runs synchronously: by the time "cortex run" returns, every
task is already in a terminal state. cancel operates on the task snapshot
"cortex run" leaves behind under the data directory, flipping a task still
recorded as non-terminal (Pending, Ready, Running, or Failed) to
Cancelled and recording the cancellation in the ledger. Use
--force to cancel a task already in a terminal state.

Examples:
  cortex cancel 3f29e1a2-...`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	cancelCmd.Flags().BoolVar(&cancelForce, "force", false, "Cancel even if the task snapshot shows a terminal state")
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	path := filepath.Join(dataDir, engine.TasksFile)
	tasks, err := engine.LoadTasks(path)
	if err != nil {
		return fmt.Errorf("failed to load task snapshot: %w", err)
	}

	target := v1.TaskID(args[0])
	found := false
	for i, t := range tasks {
		if t.ID != target {
			continue
		}
		found = true
		if isTerminal(t.Status) && !cancelForce {
			return fmt.Errorf("task %s is already %s; pass --force to override", target, t.Status)
		}
		tasks[i].Status = v1.TaskCancelled
		now := time.Now().UTC()
		tasks[i].CompletedAt = &now
		break
	}
	if !found {
		return fmt.Errorf("task %s not found in snapshot %s", target, path)
	}

	if err := engine.SaveTasks(path, tasks); err != nil {
		return fmt.Errorf("failed to save task snapshot: %w", err)
	}
	if _, err := eng.Ledger.Append("TaskCancelled", string(target), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to record cancellation: %w", err)
	}
	fmt.Printf("✓ task %s cancelled\n", target)
	return nil
}

func isTerminal(s v1.TaskStatus) bool {
	return s == v1.TaskSucceeded || s == v1.TaskCancelled
}
