/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the agent hierarchy as a tier tree",
	Long: `Render every registered agent grouped by tier, from CECCA down to
Micro, mirroring the escalation path agents may climb.

Examples:
  cortex tree`,
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	for _, tier := range allTiers {
		ids := eng.Registry.MembersOf(tier)
		fmt.Printf("%s (%d)\n", tier, len(ids))
		for _, id := range ids {
			a, err := eng.Registry.Lookup(id)
			if err != nil {
				continue
			}
			fmt.Printf("  └─ %s  %s  %s\n", a.Name, a.Status, capabilitiesOrNone(a))
		}
	}
	return nil
}

func capabilitiesOrNone(a v1.AgentMetadata) string {
	if len(a.Capabilities) == 0 {
		return "(no capabilities)"
	}
	return fmt.Sprintf("%v", a.Capabilities)
}
