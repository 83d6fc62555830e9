/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package token implements the Capability Token Service (C2): HMAC-signed,
// length-prefixed binary tokens with bounded lifetime, nonce-based
// revocation, and key rotation with bounded prior-key retention — grounded
// on the teacher's policy/capability-escalation checks (internal/controller
// /policy.go, capability_test.go) generalized from Kubernetes admission
// rules into a standalone signed-token format.
package token

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sort"
)

var errMalformed = errors.New("token: malformed encoding")

// fields is the decoded canonical encoding before MAC verification.
type fields struct {
	Subject   string
	Scopes    []string
	NotBefore uint64 // ms since epoch
	NotAfter  uint64 // ms since epoch
	Nonce     [16]byte
}

// encodeUnsigned writes every field the MAC covers: subject, scopes
// (sorted), not_before, not_after, nonce. Each field is length-prefixed with
// a big-endian uint32, per spec §6; encode appends the MAC after them.
func encodeUnsigned(buf *bytes.Buffer, f fields) {
	writeLP(buf, []byte(f.Subject))

	scopes := make([]string, len(f.Scopes))
	copy(scopes, f.Scopes)
	sort.Strings(scopes)
	var scopesBuf bytes.Buffer
	for _, s := range scopes {
		writeLP(&scopesBuf, []byte(s))
	}
	writeLP(buf, scopesBuf.Bytes())

	var tb [8]byte
	binary.BigEndian.PutUint64(tb[:], f.NotBefore)
	writeLP(buf, tb[:])
	binary.BigEndian.PutUint64(tb[:], f.NotAfter)
	writeLP(buf, tb[:])

	writeLP(buf, f.Nonce[:])
}

func writeLP(buf *bytes.Buffer, b []byte) {
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(len(b)))
	buf.Write(lb[:])
	buf.Write(b)
}

func readLP(r *bytes.Reader) ([]byte, error) {
	var lb [4]byte
	if _, err := io.ReadFull(r, lb[:]); err != nil {
		return nil, errMalformed
	}
	n := binary.BigEndian.Uint32(lb[:])
	b := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, errMalformed
		}
	}
	return b, nil
}

// encode builds the full wire format: unsigned fields followed by the
// length-prefixed 32-byte MAC.
func encode(f fields, mac [32]byte) []byte {
	var buf bytes.Buffer
	encodeUnsigned(&buf, f)
	writeLP(&buf, mac[:])
	return buf.Bytes()
}

// decode parses the wire format back into fields and the carried MAC.
func decode(raw []byte) (fields, [32]byte, error) {
	var f fields
	var mac [32]byte
	r := bytes.NewReader(raw)

	subj, err := readLP(r)
	if err != nil {
		return f, mac, err
	}
	f.Subject = string(subj)

	scopesRaw, err := readLP(r)
	if err != nil {
		return f, mac, err
	}
	sr := bytes.NewReader(scopesRaw)
	for sr.Len() > 0 {
		s, err := readLP(sr)
		if err != nil {
			return f, mac, err
		}
		f.Scopes = append(f.Scopes, string(s))
	}

	nb, err := readLP(r)
	if err != nil || len(nb) != 8 {
		return f, mac, errMalformed
	}
	f.NotBefore = binary.BigEndian.Uint64(nb)

	na, err := readLP(r)
	if err != nil || len(na) != 8 {
		return f, mac, errMalformed
	}
	f.NotAfter = binary.BigEndian.Uint64(na)

	nonce, err := readLP(r)
	if err != nil || len(nonce) != 16 {
		return f, mac, errMalformed
	}
	copy(f.Nonce[:], nonce)

	macBytes, err := readLP(r)
	if err != nil || len(macBytes) != 32 {
		return f, mac, errMalformed
	}
	copy(mac[:], macBytes)

	return f, mac, nil
}

// unsignedBytes re-derives the exact byte range the MAC was computed over,
// used by Verify to recompute the MAC under a candidate key.
func unsignedBytes(f fields) []byte {
	var buf bytes.Buffer
	encodeUnsigned(&buf, f)
	return buf.Bytes()
}
