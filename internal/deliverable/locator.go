/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package deliverable implements the Deliverable Planner & Locator (C8):
// resolving abstract deliverable requirements to concrete, workspace-relative
// target paths, with validation, organization rules, and backup coordination.
package deliverable

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

// Workspace marker filenames checked in order; the first one found walking
// upward from the invocation directory wins (spec §4.8 workspace detection).
// WorkspaceMarker is this module's own marker file; ProjectMetadata is the Go
// module file every workspace root carries; ProceduralLedger is the
// human-authored SOP document C7 parses at phase 2.
const (
	WorkspaceMarker  = ".cortex-workspace"
	ProjectMetadata  = "go.mod"
	ProceduralLedger = "SOP.md"
)

var markerFiles = []string{WorkspaceMarker, ProjectMetadata, ProceduralLedger}

// DetectWorkspaceRoot walks upward from start looking for any marker file.
// The first directory containing one is the workspace root. If none is
// found by the filesystem root, start itself is returned along with
// found=false so the caller can emit the spec-mandated warning.
func DetectWorkspaceRoot(start string) (root string, found bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start, false
	}
	for {
		for _, marker := range markerFiles {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, false
		}
		dir = parent
	}
}

// categoryKeywords maps a fixed category to the keywords whose presence in
// requirement text (case-insensitive) infers that category. Order matters:
// the first category whose keyword set matches wins, so more specific
// categories are listed before the generic workflow fallback.
var categoryKeywords = map[v1.Category][]string{
	v1.CategorySecurity:      {"auth", "token", "capability", "credential", "secret", "encrypt"},
	v1.CategoryMonitoring:    {"metric", "trace", "log", "health", "alert", "dashboard"},
	v1.CategoryOrchestration: {"schedule", "dispatch", "orchestrat", "graph", "retry", "backoff"},
	v1.CategoryAgent:         {"agent", "registry", "heartbeat", "escalat", "tier"},
	v1.CategoryUI:            {"ui", "tui", "display", "render", "terminal"},
	v1.CategoryTests:         {"test", "e2e", "spec", "assertion"},
	v1.CategoryDocs:          {"doc", "readme", "guide", "manual"},
}

// categoryOrder fixes iteration order over categoryKeywords so inference is
// deterministic regardless of Go's randomized map iteration.
var categoryOrder = []v1.Category{
	v1.CategorySecurity,
	v1.CategoryMonitoring,
	v1.CategoryOrchestration,
	v1.CategoryAgent,
	v1.CategoryUI,
	v1.CategoryTests,
	v1.CategoryDocs,
}

// InferCategory applies deterministic, case-insensitive keyword matching
// over requirement text; an unmatched text infers CategoryWorkflow (spec
// §4.8 category inference).
func InferCategory(requirementText string) v1.Category {
	lower := strings.ToLower(requirementText)
	for _, category := range categoryOrder {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lower, keyword) {
				return category
			}
		}
	}
	return v1.CategoryWorkflow
}

// TargetLocation is the resolved relative root plus the full planned path
// for one deliverable.
type TargetLocation struct {
	RelativeRoot string
	FullPath     string
}

// Resolve applies the kind x category -> relative root location matrix
// (spec §4.8) and joins name onto that root as the file name. For KindTemp,
// name is the directory under .tmp and FullPath is that directory.
func (l *Locator) Resolve(kind v1.DeliverableKind, category v1.Category, name string) TargetLocation {
	var relRoot string
	switch kind {
	case v1.KindSource:
		relRoot = filepath.Join("core", "src", string(category))
	case v1.KindDoc:
		relRoot = filepath.Join("docs", string(category))
	case v1.KindTest:
		relRoot = filepath.Join("tests", string(category))
	case v1.KindConfig:
		relRoot = filepath.Join("configs", string(category))
	case v1.KindScript:
		relRoot = filepath.Join("scripts", string(category))
	case v1.KindArchive:
		relRoot = filepath.Join("archive", time.Now().UTC().Format("20060102"))
	case v1.KindTemp:
		relRoot = filepath.Join(".tmp", name)
		return TargetLocation{RelativeRoot: relRoot, FullPath: filepath.Join(l.Root, relRoot)}
	default:
		relRoot = filepath.Join("core", "src", string(v1.CategoryWorkflow))
	}
	full := filepath.Join(l.Root, relRoot, name)
	return TargetLocation{RelativeRoot: relRoot, FullPath: full}
}

// Locator owns the detected workspace root and resolves deliverables
// against it.
type Locator struct {
	Root  string
	Found bool
}

// NewLocator detects the workspace root starting from start.
func NewLocator(start string) *Locator {
	root, found := DetectWorkspaceRoot(start)
	return &Locator{Root: root, Found: found}
}

// BackupFor returns a timestamp-suffixed sibling path for path (spec §4.8
// backup_for).
func BackupFor(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + ".bak." + time.Now().UTC().Format("20060102T150405Z") + ext
}
