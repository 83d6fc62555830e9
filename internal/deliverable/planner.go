/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package deliverable

import (
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

// Planner converts abstract DeliverableSpecs into concrete Deliverables,
// backed by a Locator for path resolution.
type Planner struct {
	locator  *Locator
	overwrite bool
}

// NewPlanner constructs a Planner over locator. overwrite controls whether
// Validate treats an existing target path as a violation.
func NewPlanner(locator *Locator, overwrite bool) *Planner {
	return &Planner{locator: locator, overwrite: overwrite}
}

// Plan resolves spec to a concrete path, format requirements, and
// organization rules (spec §4.8 plan contract). Plan is a pure function of
// spec and the Planner's workspace root: identical inputs always produce an
// equal PlannedDeliverable (spec §8 invariant 11).
func (p *Planner) Plan(spec v1.DeliverableSpec) (v1.Deliverable, error) {
	category := spec.CategoryHint
	if category == "" {
		category = InferCategory(spec.RequirementText)
	}
	loc := p.locator.Resolve(spec.Kind, category, spec.Name)

	d := v1.Deliverable{
		Name:               spec.Name,
		Kind:               spec.Kind,
		Category:           category,
		Priority:           spec.Priority,
		PlannedLocation:    filepath.ToSlash(loc.FullPath),
		OrganizationRules:  organizationRules(spec.Kind),
		FormatRequirements: formatRequirements(spec.Kind),
		BackupLocation:     BackupFor(filepath.ToSlash(loc.FullPath)),
	}
	return d, nil
}

// organizationRules names the structural conventions a deliverable of kind
// must follow once written, mirroring the location matrix's grouping intent.
func organizationRules(kind v1.DeliverableKind) []string {
	switch kind {
	case v1.KindSource:
		return []string{"one package per directory", "exported identifiers documented"}
	case v1.KindTest:
		return []string{"co-located with the package under test"}
	case v1.KindDoc:
		return []string{"markdown, one top-level heading per document"}
	default:
		return nil
	}
}

func formatRequirements(kind v1.DeliverableKind) []string {
	switch kind {
	case v1.KindConfig:
		return []string{"valid YAML"}
	case v1.KindDoc:
		return []string{"UTF-8 text"}
	default:
		return nil
	}
}

// Validate checks a planned Deliverable against the workspace root and the
// filesystem, returning violations (spec §4.8: "path escapes workspace,"
// "target already exists and overwrite not permitted," "parent unwritable")
// and warnings ("no backup location configured," "category inferred with
// low confidence").
func (p *Planner) Validate(d v1.Deliverable) (ok bool, violations, warnings []string) {
	rel, err := filepath.Rel(p.locator.Root, d.PlannedLocation)
	if err != nil || strings.HasPrefix(rel, "..") {
		violations = append(violations, "path escapes workspace")
	}

	if !p.overwrite {
		if _, err := os.Stat(d.PlannedLocation); err == nil {
			violations = append(violations, "target already exists and overwrite not permitted")
		}
	}

	parent := filepath.Dir(d.PlannedLocation)
	if info, err := os.Stat(parent); err == nil {
		if info.Mode().Perm()&0200 == 0 {
			violations = append(violations, "parent unwritable")
		}
	}

	if d.BackupLocation == "" {
		warnings = append(warnings, "no backup location configured")
	}
	if d.Category == v1.CategoryWorkflow {
		warnings = append(warnings, "category inferred with low confidence")
	}

	return len(violations) == 0, violations, warnings
}
