/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package ledger

import (
	"testing"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

func TestAppendMonotonicSeq(t *testing.T) {
	l, err := New(NewMemBackend(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e1, err := l.Append("TaskCreated", "task-1", nil, nil, nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	e2, err := l.Append("TaskCreated", "task-2", nil, nil, nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if e1.Seq != 1 || e2.Seq != 2 {
		t.Errorf("expected seq 1,2 got %d,%d", e1.Seq, e2.Seq)
	}
}

func TestVerifyDetectsGap(t *testing.T) {
	backend := NewMemBackend()
	backend.Append(v1.LedgerEntry{Seq: 1, EventKind: "A"})
	backend.Append(v1.LedgerEntry{Seq: 3, EventKind: "B"})
	l, err := New(backend, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Verify(); err == nil {
		t.Error("expected Verify to detect sequence gap")
	}
}

func TestRecordArtifactIdempotent(t *testing.T) {
	l, err := New(NewMemBackend(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	content := []byte("hello world")
	if _, err := l.RecordArtifact("a/b.txt", content, "task-1"); err != nil {
		t.Fatalf("RecordArtifact: %v", err)
	}
	entries, _ := l.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Notes["changed"] != "true" {
		t.Errorf("expected first record to report changed=true")
	}

	if _, err := l.RecordArtifact("a/b.txt", content, "task-1"); err != nil {
		t.Fatalf("RecordArtifact (repeat): %v", err)
	}
	entries, _ = l.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Notes["changed"] != "false" {
		t.Errorf("expected repeat record to report changed=false")
	}
}

func TestMerkleRootStableUnderComponentOrder(t *testing.T) {
	c1 := v1.Component{Path: "b.txt", Hash: "sha256:" + HashBytes([]byte("b"))}
	c2 := v1.Component{Path: "a.txt", Hash: "sha256:" + HashBytes([]byte("a"))}

	r1, err := BuildMerkleRoot([]v1.Component{c1, c2})
	if err != nil {
		t.Fatalf("BuildMerkleRoot: %v", err)
	}
	r2, err := BuildMerkleRoot([]v1.Component{c2, c1})
	if err != nil {
		t.Fatalf("BuildMerkleRoot: %v", err)
	}
	if r1 != r2 {
		t.Error("expected merkle root to be independent of input order")
	}
}

func TestMerkleRootChangesWithContent(t *testing.T) {
	c1 := v1.Component{Path: "a.txt", Hash: "sha256:" + HashBytes([]byte("a"))}
	c1Changed := v1.Component{Path: "a.txt", Hash: "sha256:" + HashBytes([]byte("a-changed"))}

	r1, _ := BuildMerkleRoot([]v1.Component{c1})
	r2, _ := BuildMerkleRoot([]v1.Component{c1Changed})
	if r1 == r2 {
		t.Error("expected merkle root to change when content hash changes")
	}
}

func TestAnchorVerifyRoundTrip(t *testing.T) {
	l, err := New(NewMemBackend(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Manifest().Update("x/y.go", HashBytes([]byte("package x")))
	l.Manifest().Update("x/z.go", HashBytes([]byte("package x; const z = 1")))

	anchor, err := l.Anchor("v0.1.0")
	if err != nil {
		t.Fatalf("Anchor: %v", err)
	}
	ok, err := VerifyAnchor(anchor)
	if err != nil {
		t.Fatalf("VerifyAnchor: %v", err)
	}
	if !ok {
		t.Error("expected freshly built anchor to verify")
	}

	anchor.MerkleRoot = "0000000000000000000000000000000000000000000000000000000000000000"
	ok, err = VerifyAnchor(anchor)
	if err != nil {
		t.Fatalf("VerifyAnchor: %v", err)
	}
	if ok {
		t.Error("expected tampered root to fail verification")
	}
}

func TestManifestUpdateReturnsFalseWhenUnchanged(t *testing.T) {
	m := NewManifest()
	if !m.Update("p", "digest1") {
		t.Error("expected first update to report changed")
	}
	if m.Update("p", "digest1") {
		t.Error("expected repeat update with same digest to report unchanged")
	}
	if !m.Update("p", "digest2") {
		t.Error("expected update with new digest to report changed")
	}
}
