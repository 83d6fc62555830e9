/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package deliverable

import (
	"os"
	"path/filepath"
	"testing"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

func TestDetectWorkspaceRootFindsMarker(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, WorkspaceMarker), []byte(""), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	root, found := DetectWorkspaceRoot(sub)
	if !found {
		t.Fatal("expected marker to be found")
	}
	if root != dir {
		t.Errorf("expected root %s, got %s", dir, root)
	}
}

func TestDetectWorkspaceRootFallsBackWhenNoMarker(t *testing.T) {
	dir := t.TempDir()
	root, found := DetectWorkspaceRoot(dir)
	if found {
		t.Error("expected no marker found")
	}
	if root != dir {
		t.Errorf("expected fallback to start dir, got %s", root)
	}
}

func TestInferCategoryMatchesKeywords(t *testing.T) {
	cases := map[string]v1.Category{
		"rotate the capability token":    v1.CategorySecurity,
		"emit a prometheus metric":       v1.CategoryMonitoring,
		"schedule the retry backoff":     v1.CategoryOrchestration,
		"register the agent heartbeat":   v1.CategoryAgent,
		"render the terminal dashboard view": v1.CategoryMonitoring, // dashboard keyword wins before ui is checked
		"write the e2e test":             v1.CategoryTests,
		"update the readme":              v1.CategoryDocs,
		"completely unrelated content":   v1.CategoryWorkflow,
	}
	for text, want := range cases {
		got := InferCategory(text)
		if got != want {
			t.Errorf("InferCategory(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestResolveLocationMatrix(t *testing.T) {
	loc := &Locator{Root: "/ws", Found: true}

	cases := []struct {
		kind     v1.DeliverableKind
		category v1.Category
		wantRoot string
	}{
		{v1.KindSource, v1.CategoryAgent, "core/src/agent"},
		{v1.KindDoc, v1.CategoryDocs, "docs/docs"},
		{v1.KindTest, v1.CategoryTests, "tests/tests"},
		{v1.KindConfig, v1.CategoryOrchestration, "configs/orchestration"},
		{v1.KindScript, v1.CategoryWorkflow, "scripts/workflow"},
	}
	for _, c := range cases {
		got := loc.Resolve(c.kind, c.category, "x")
		if filepath.ToSlash(got.RelativeRoot) != c.wantRoot {
			t.Errorf("Resolve(%s,%s) relRoot = %s, want %s", c.kind, c.category, got.RelativeRoot, c.wantRoot)
		}
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	loc := &Locator{Root: dir, Found: true}
	planner := NewPlanner(loc, true)

	spec := v1.DeliverableSpec{Name: "r1.json", RequirementText: "compute-sum", Kind: v1.KindSource}
	d1, err := planner.Plan(spec)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	d2, err := planner.Plan(spec)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if d1.PlannedLocation != d2.PlannedLocation {
		t.Errorf("expected deterministic path, got %s vs %s", d1.PlannedLocation, d2.PlannedLocation)
	}
}

func TestValidateRejectsExistingTargetWithoutOverwrite(t *testing.T) {
	dir := t.TempDir()
	loc := &Locator{Root: dir, Found: true}
	planner := NewPlanner(loc, false)

	d, err := planner.Plan(v1.DeliverableSpec{Name: "out.txt", Kind: v1.KindSource, RequirementText: "generic"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.PlannedLocation), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(d.PlannedLocation, []byte("existing"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ok, violations, _ := planner.Validate(d)
	if ok {
		t.Fatal("expected validation failure for existing target")
	}
	found := false
	for _, v := range violations {
		if v == "target already exists and overwrite not permitted" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected overwrite violation, got %v", violations)
	}
}

func TestBackupForAddsTimestampSuffix(t *testing.T) {
	b := BackupFor("core/src/workflow/out.json")
	if b == "core/src/workflow/out.json" {
		t.Error("expected backup path to differ from original")
	}
	if filepath.Ext(b) != ".json" {
		t.Errorf("expected .json extension preserved, got %s", b)
	}
}
