/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package ledger

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes returns the hex-encoded SHA-256 digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// leafHash computes the Merkle leaf hash for a component: SHA-256(path ||
// 0x00 || digest), where digest is the raw (not hex) content hash bytes.
func leafHash(path string, digestHex string) ([]byte, error) {
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0x00})
	h.Write(digest)
	return h.Sum(nil), nil
}

func pairHash(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
