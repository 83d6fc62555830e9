/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the ledger's sequence and timestamp integrity",
	Long: `Walk every recorded entry and confirm sequence numbers are consecutive
and timestamps never go backwards. Artifact content hashes are not
re-computed or compared against the manifest.

Examples:
  cortex verify`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	if err := eng.Ledger.Verify(); err != nil {
		fmt.Printf("✗ ledger integrity check failed: %v\n", err)
		return err
	}
	fmt.Println("✓ ledger integrity check passed")
	return nil
}
