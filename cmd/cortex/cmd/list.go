/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	Long: `List every agent currently in the registry snapshot.

Examples:
  cortex list
  cortex list -o json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

var allTiers = []v1.AgentTier{v1.TierCECCA, v1.TierBoard, v1.TierExecutive, v1.TierStackChief, v1.TierSpecialist, v1.TierMicro}

func runList(cmd *cobra.Command, args []string) error {
	var agents []v1.AgentMetadata
	for _, tier := range allTiers {
		for _, id := range eng.Registry.MembersOf(tier) {
			if a, err := eng.Registry.Lookup(id); err == nil {
				agents = append(agents, a)
			}
		}
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(agents, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(agents) == 0 {
		fmt.Println("No agents registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tID\tTIER\tSTATUS\tHEALTH\tCAPABILITIES\tLAST HEARTBEAT")
	for _, a := range agents {
		age := time.Since(a.LastHeartbeat).Round(time.Second)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\t%s ago\n",
			a.Name, a.ID, a.Tier, a.Status, a.Health, a.Capabilities, age)
	}
	return w.Flush()
}
