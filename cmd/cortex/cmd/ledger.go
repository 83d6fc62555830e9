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

	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or append to the integrity ledger",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every recorded ledger entry",
	RunE:  runLedgerShow,
}

var ledgerAppendCmd = &cobra.Command{
	Use:   "append <event-kind> <subject-ref>",
	Short: "Append a manual ledger entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runLedgerAppend,
}

func init() {
	ledgerCmd.AddCommand(ledgerShowCmd, ledgerAppendCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func runLedgerShow(cmd *cobra.Command, args []string) error {
	entries, err := eng.Ledger.All()
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SEQ\tTIMESTAMP\tEVENT KIND\tSUBJECT")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Seq, e.UTCTimestamp.Format("2006-01-02T15:04:05Z"), e.EventKind, truncate(e.SubjectRef, 48))
	}
	return w.Flush()
}

func runLedgerAppend(cmd *cobra.Command, args []string) error {
	entry, err := eng.Ledger.Append(args[0], args[1], nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to append: %w", err)
	}
	fmt.Printf("✓ appended entry seq=%d\n", entry.Seq)
	return nil
}
