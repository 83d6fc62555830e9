/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package ledger implements the Integrity Ledger (C1): an append-only
// sequence of events, a content-hash manifest over tracked artifacts, and
// periodic Merkle anchors over that manifest — grounded on the teacher's
// AttemptRecord history (append-only per-object audit trail) generalized to
// a standalone, cluster-wide log.
package ledger

import (
	"sort"
	"sync"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/cortexerr"
	"github.com/hortator-ai/cortex/internal/metrics"
	"go.uber.org/zap"
)

// Ledger is the append-only event log plus the derived hash manifest.
type Ledger struct {
	mu       sync.Mutex
	backend  Backend
	manifest *Manifest
	seq      uint64
	log      *zap.Logger
}

// New constructs a Ledger backed by backend, replaying any existing entries
// to recover the next sequence number.
func New(backend Backend, log *zap.Logger) (*Ledger, error) {
	l := &Ledger{backend: backend, manifest: NewManifest(), log: log}
	existing, err := backend.All()
	if err != nil {
		return nil, cortexerr.New(cortexerr.Storage, "ledger.New", "replay_failed", err)
	}
	for _, e := range existing {
		if e.Seq > l.seq {
			l.seq = e.Seq
		}
	}
	return l, nil
}

// Append records a new entry with the next monotonic sequence number and
// the current UTC timestamp. Appends are serialized: entries are visible to
// All/Verify in the exact order Append was called, never reordered or
// coalesced across concurrent callers.
func (l *Ledger) Append(eventKind, subjectRef string, artifactPaths, contentHashes []string, notes map[string]string) (v1.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	entry := v1.LedgerEntry{
		Seq:           l.seq,
		UTCTimestamp:  time.Now().UTC(),
		EventKind:     eventKind,
		SubjectRef:    subjectRef,
		ArtifactPaths: artifactPaths,
		ContentHashes: contentHashes,
		Notes:         notes,
	}
	if err := l.backend.Append(entry); err != nil {
		l.seq--
		return v1.LedgerEntry{}, cortexerr.New(cortexerr.Storage, "ledger.Append", "write_failed", err)
	}
	metrics.LedgerEntriesTotal.WithLabelValues(eventKind).Inc()
	if l.log != nil {
		l.log.Debug("ledger entry appended",
			zap.Uint64("seq", entry.Seq),
			zap.String("event_kind", eventKind),
			zap.String("subject_ref", subjectRef),
		)
	}
	return entry, nil
}

// RecordArtifact hashes content, updates the manifest, and appends an
// "ArtifactRecorded" ledger entry — the single entry point components use
// to both hash and log a produced artifact in one atomic step.
func (l *Ledger) RecordArtifact(path string, content []byte, subjectRef string) (v1.LedgerEntry, error) {
	digest := HashBytes(content)
	changed := l.manifest.Update(path, digest)
	notes := map[string]string{"changed": boolStr(changed)}
	return l.Append("ArtifactRecorded", subjectRef, []string{path}, []string{digest}, notes)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// All returns every entry in append order.
func (l *Ledger) All() ([]v1.LedgerEntry, error) {
	entries, err := l.backend.All()
	if err != nil {
		return nil, cortexerr.New(cortexerr.Storage, "ledger.All", "read_failed", err)
	}
	return entries, nil
}

// Verify walks the log checking strict sequence monotonicity (no gaps, no
// repeats, non-decreasing timestamps) and returns the first violation found,
// or nil if the log is internally consistent.
func (l *Ledger) Verify() error {
	entries, err := l.All()
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	var lastSeq uint64
	var lastTime time.Time
	for i, e := range entries {
		if i == 0 {
			lastSeq = e.Seq
			lastTime = e.UTCTimestamp
			continue
		}
		if e.Seq != lastSeq+1 {
			return cortexerr.New(cortexerr.Integrity, "ledger.Verify", "sequence_gap", nil)
		}
		if e.UTCTimestamp.Before(lastTime) {
			return cortexerr.New(cortexerr.Integrity, "ledger.Verify", "timestamp_regression", nil)
		}
		lastSeq = e.Seq
		lastTime = e.UTCTimestamp
	}
	return nil
}

// Anchor builds a MerkleAnchor over the current manifest snapshot.
func (l *Ledger) Anchor(version string) (v1.MerkleAnchor, error) {
	entries := l.manifest.Entries()
	components := make([]v1.Component, 0, len(entries))
	for _, e := range entries {
		components = append(components, v1.Component{
			Path: e.Path,
			Hash: "sha256:" + e.Digest,
		})
	}
	root, err := BuildMerkleRoot(components)
	if err != nil {
		return v1.MerkleAnchor{}, cortexerr.New(cortexerr.Integrity, "ledger.Anchor", "merkle_build_failed", err)
	}
	anchor := v1.MerkleAnchor{
		Timestamp:  time.Now().UTC(),
		Version:    version,
		MerkleRoot: root,
		Components: components,
	}
	if _, err := l.Append("AnchorCreated", version, nil, []string{root}, nil); err != nil {
		return v1.MerkleAnchor{}, err
	}
	return anchor, nil
}

// VerifyAnchor recomputes the Merkle root from anchor.Components and
// confirms it matches anchor.MerkleRoot, detecting tampering of the
// recorded component list itself.
func VerifyAnchor(anchor v1.MerkleAnchor) (bool, error) {
	root, err := BuildMerkleRoot(anchor.Components)
	if err != nil {
		return false, err
	}
	return root == anchor.MerkleRoot, nil
}

// Manifest exposes the live manifest (path -> recorded content digest).
func (l *Ledger) Manifest() *Manifest {
	return l.manifest
}
