/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

var (
	spawnName         string
	spawnTier         string
	spawnCapabilities []string
)

var spawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Register a new agent into the hierarchy",
	Long: `Register a new agent at the given tier with the given capabilities.
The registration is recorded in the agent snapshot and picked up by the
message fabric and scheduler on the next command.

Examples:
  cortex spawn --name worker-1 --tier Micro --capability compute
  cortex spawn --name lead-1 --tier StackChief --capability plan,review`,
	RunE: runSpawn,
}

func init() {
	spawnCmd.Flags().StringVar(&spawnName, "name", "", "Agent display name (required)")
	spawnCmd.Flags().StringVar(&spawnTier, "tier", "Micro", "Agent tier: CECCA, Board, Executive, StackChief, Specialist, Micro")
	spawnCmd.Flags().StringSliceVar(&spawnCapabilities, "capability", nil, "Comma-separated capabilities")
	_ = spawnCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(spawnCmd)
}

func runSpawn(cmd *cobra.Command, args []string) error {
	now := time.Now().UTC()
	meta := v1.AgentMetadata{
		ID:             v1.NewAgentID(),
		Name:           spawnName,
		Tier:           tierFromString(spawnTier),
		Capabilities:   spawnCapabilities,
		Status:         v1.AgentIdle,
		Health:         v1.Healthy,
		RegisteredAt:   now,
		LastHeartbeat:  now,
	}
	id, err := eng.Registry.Register(meta)
	if err != nil {
		return fmt.Errorf("failed to register agent: %w", err)
	}
	eng.Fabric.RegisterAgent(id, 16)
	if _, err := eng.Ledger.Append("AgentRegistered", string(id), nil, nil, map[string]string{"name": spawnName, "tier": spawnTier}); err != nil {
		return fmt.Errorf("failed to record registration: %w", err)
	}
	fmt.Printf("✓ agent %s registered as %s (id=%s)\n", spawnName, spawnTier, id)
	return nil
}
