/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package ledger

import (
	"sort"
	"sync"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

// Manifest is the in-memory hash manifest: path -> digest. Updates are
// idempotent — re-hashing an unchanged artifact is a no-op against the
// stored digest.
type Manifest struct {
	mu      sync.RWMutex
	entries map[string]v1.ManifestEntry
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{entries: make(map[string]v1.ManifestEntry)}
}

// Update records path's digest, returning true if the digest changed (or
// the path is new). Re-submitting the same (path, digest) pair is a no-op.
func (m *Manifest) Update(path, digestHex string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.entries[path]
	if ok && existing.Digest == digestHex {
		return false
	}
	m.entries[path] = v1.ManifestEntry{Path: path, Digest: digestHex}
	return true
}

// Remove deletes path from the manifest, reporting whether it was present.
func (m *Manifest) Remove(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[path]; !ok {
		return false
	}
	delete(m.entries, path)
	return true
}

// Get returns the recorded digest for path, if any.
func (m *Manifest) Get(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[path]
	return e.Digest, ok
}

// Entries returns a sorted-by-path snapshot of the manifest.
func (m *Manifest) Entries() []v1.ManifestEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]v1.ManifestEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
