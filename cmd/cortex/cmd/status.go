/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize ledger entry counts and registry membership",
	Long: `Print an overview of the current data directory: how many ledger
entries have been recorded by event kind, and how many agents are registered
per tier.

Examples:
  cortex status
  cortex status -o json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	entries, err := eng.Ledger.All()
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	byKind := map[string]int{}
	for _, e := range entries {
		byKind[e.EventKind]++
	}

	tiers := []string{"CECCA", "Board", "Executive", "StackChief", "Specialist", "Micro"}
	byTier := map[string]int{}
	for _, t := range tiers {
		byTier[t] = len(eng.Registry.MembersOf(tierFromString(t)))
	}

	if outputFormat == "json" {
		result := map[string]interface{}{
			"ledgerEntries": len(entries),
			"byEventKind":   byKind,
			"agentsByTier":  byTier,
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Printf("Ledger entries: %d\n\n", len(entries))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EVENT KIND\tCOUNT")
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", k, byKind[k])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nTIER\tAGENTS")
	w2 := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, t := range tiers {
		_, _ = fmt.Fprintf(w2, "%s\t%d\n", t, byTier[t])
	}
	return w2.Flush()
}
