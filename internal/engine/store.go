/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package engine wires the cluster-wide components (C1-C8) together for the
// CLI: a durable file-backed ledger plus small JSON snapshots for the agent
// registry and task graph, the same role the teacher's kubeconfig-backed
// client plays in letting each CLI invocation rediscover cluster state
// without a standing daemon.
package engine

import (
	"encoding/json"
	"os"
	"path/filepath"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

// LedgerFile is the default ledger path under a data directory.
const LedgerFile = "ledger.jsonl"

// AgentsFile is the default agent-registry snapshot path.
const AgentsFile = "agents.json"

// TasksFile is the default task-graph snapshot path, written by `cortex run`
// and consulted by `cortex cancel`.
const TasksFile = "tasks.json"

// LoadAgents reads the agent snapshot at path, returning an empty slice if
// the file does not yet exist.
func LoadAgents(path string) ([]v1.AgentMetadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var agents []v1.AgentMetadata
	if err := json.Unmarshal(b, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// SaveAgents writes the agent snapshot to path, creating parent directories
// as needed.
func SaveAgents(path string, agents []v1.AgentMetadata) error {
	return writeJSON(path, agents)
}

// LoadTasks reads the task-graph snapshot at path, returning an empty slice
// if the file does not yet exist.
func LoadTasks(path string) ([]v1.Task, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var tasks []v1.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SaveTasks writes the task-graph snapshot to path.
func SaveTasks(path string, tasks []v1.Task) error {
	return writeJSON(path, tasks)
}

func writeJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
