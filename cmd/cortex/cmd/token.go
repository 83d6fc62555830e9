/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenScopes  []string
	tokenTTL     time.Duration
	tokenNonce   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue or revoke capability tokens",
	Long: `Capability tokens are signed in-process and are not persisted across
invocations: each "cortex token issue" call mints against a fresh signing
key, so a token can only be verified or revoked within the same process
that issued it (see cortex run, which issues and verifies its own tokens
internally). This subcommand exists for inspection and scripting against
a single long-lived "cortex" process.`,
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a capability token",
	RunE:  runTokenIssue,
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke a capability token by its nonce",
	RunE:  runTokenRevoke,
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenSubject, "subject", "", "Subject the token is issued to (required)")
	tokenIssueCmd.Flags().StringSliceVar(&tokenScopes, "scopes", nil, "Comma-separated scopes granted")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime, capped at 24h")
	_ = tokenIssueCmd.MarkFlagRequired("subject")

	tokenRevokeCmd.Flags().StringVar(&tokenNonce, "nonce", "", "Hex-encoded token nonce (required)")
	_ = tokenRevokeCmd.MarkFlagRequired("nonce")

	tokenCmd.AddCommand(tokenIssueCmd, tokenRevokeCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	tok, err := eng.Tokens.Issue(tokenSubject, tokenScopes, tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(map[string]interface{}{
			"subject":   tok.Subject,
			"scopes":    tok.Scopes,
			"notBefore": tok.NotBefore,
			"notAfter":  tok.NotAfter,
			"nonce":     hex.EncodeToString(tok.Nonce[:]),
			"mac":       hex.EncodeToString(tok.MAC[:]),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Subject:  %s\n", tok.Subject)
	fmt.Printf("Scopes:   %v\n", tok.Scopes)
	fmt.Printf("Expires:  %s\n", tok.NotAfter.Format(time.RFC3339))
	fmt.Printf("Nonce:    %s\n", hex.EncodeToString(tok.Nonce[:]))
	return nil
}

func runTokenRevoke(cmd *cobra.Command, args []string) error {
	raw, err := hex.DecodeString(tokenNonce)
	if err != nil || len(raw) != 16 {
		return fmt.Errorf("nonce must be 32 hex characters (16 bytes)")
	}
	var nonce [16]byte
	copy(nonce[:], raw)
	eng.Tokens.Revoke(nonce)
	fmt.Println("✓ token revoked")
	return nil
}
