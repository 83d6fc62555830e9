/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package ledger

import (
	"encoding/hex"
	"sort"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

// BuildMerkleRoot builds the deterministic Merkle root over components,
// sorted lexicographically by Path. Leaves are SHA-256(path || 0x00 ||
// digest); pairs are combined left-to-right; an odd trailing leaf at any
// level is duplicated rather than promoted unchanged.
func BuildMerkleRoot(components []v1.Component) (string, error) {
	if len(components) == 0 {
		return HashBytes(nil), nil
	}
	sorted := make([]v1.Component, len(components))
	copy(sorted, components)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	level := make([][]byte, 0, len(sorted))
	for _, c := range sorted {
		digest := c.Hash
		if len(digest) > 7 && digest[:7] == "sha256:" {
			digest = digest[7:]
		}
		leaf, err := leafHash(c.Path, digest)
		if err != nil {
			return "", err
		}
		level = append(level, leaf)
	}

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, pairHash(level[i], level[i+1]))
			} else {
				next = append(next, pairHash(level[i], level[i]))
			}
		}
		level = next
	}
	return hex.EncodeToString(level[0]), nil
}
