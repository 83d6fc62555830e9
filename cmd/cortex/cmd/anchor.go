/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var anchorVersion string

var anchorCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Compute a Merkle anchor over the current hash manifest",
	Long: `Produce a timestamped Merkle root over every content hash recorded
so far, tagged with --version, and append it to the ledger.

Examples:
  cortex anchor --version v1.2.0`,
	RunE: runAnchor,
}

func init() {
	anchorCmd.Flags().StringVar(&anchorVersion, "version", "dev", "Version tag recorded with the anchor")
	rootCmd.AddCommand(anchorCmd)
}

func runAnchor(cmd *cobra.Command, args []string) error {
	a, err := eng.Ledger.Anchor(anchorVersion)
	if err != nil {
		return fmt.Errorf("failed to anchor: %w", err)
	}
	if outputFormat == "json" {
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("Merkle root: %s\n", a.MerkleRoot)
	fmt.Printf("Version:     %s\n", a.Version)
	fmt.Printf("Components:  %d\n", len(a.Components))
	return nil
}
