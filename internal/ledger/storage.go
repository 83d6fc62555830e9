/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package ledger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

// Backend persists ledger entries durably and returns them back in append
// order. The default FileBackend appends newline-delimited JSON, the
// simplest durable format that still lets an operator `tail -f` the ledger,
// matching the teacher's preference for plain, inspectable artifacts over a
// binary log format.
type Backend interface {
	Append(entry v1.LedgerEntry) error
	All() ([]v1.LedgerEntry, error)
}

// FileBackend appends newline-delimited JSON entries to a single file.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFileBackend opens (creating if necessary) the ledger file at path.
func NewFileBackend(path string) (*FileBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	f.Close()
	return &FileBackend{path: path}, nil
}

// Append writes entry as one JSON line, fsyncing before returning so the
// ledger entry is durable once Append succeeds.
func (b *FileBackend) Append(entry v1.LedgerEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, err := os.OpenFile(b.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	if err := enc.Encode(entry); err != nil {
		return err
	}
	return f.Sync()
}

// All reads every entry back in append order.
func (b *FileBackend) All() ([]v1.LedgerEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, err := os.Open(b.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []v1.LedgerEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e v1.LedgerEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MemBackend is an in-memory Backend for tests and ephemeral runs.
type MemBackend struct {
	mu      sync.Mutex
	entries []v1.LedgerEntry
}

// NewMemBackend returns an empty in-memory backend.
func NewMemBackend() *MemBackend {
	return &MemBackend{}
}

func (b *MemBackend) Append(entry v1.LedgerEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	return nil
}

func (b *MemBackend) All() ([]v1.LedgerEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]v1.LedgerEntry, len(b.entries))
	copy(out, b.entries)
	return out, nil
}
