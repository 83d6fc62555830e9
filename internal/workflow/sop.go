/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package workflow implements the Workflow Processor (C7): the seven-phase
// request pipeline and the 4D scoring method applied at phase 2. The SOP
// parser here is a tolerant line-oriented scanner in the same style the
// teacher uses for its YAML/annotation parsing (bufio.Scanner plus a small
// state machine), generalized from single-document YAML to the nine fixed
// sections of a Standard Operating Procedure text document.
package workflow

import (
	"bufio"
	"strings"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

type sopSection int

const (
	sectionNone sopSection = iota
	sectionTitle
	sectionPurpose
	sectionScope
	sectionRoles
	sectionMaterials
	sectionArchitecture
	sectionProcedures
	sectionQualityChecks
	sectionGlossary
)

var sectionHeadings = map[string]sopSection{
	"title":          sectionTitle,
	"purpose":        sectionPurpose,
	"scope":          sectionScope,
	"roles":          sectionRoles,
	"materials":      sectionMaterials,
	"architecture":   sectionArchitecture,
	"procedures":     sectionProcedures,
	"quality checks": sectionQualityChecks,
	"glossary":       sectionGlossary,
}

// ParseSOP parses the nine fixed sections of a Standard Operating Procedure
// document (spec §6 SOP source): Title, Purpose, Scope, Roles, Materials,
// Architecture, Procedures, Quality Checks, Glossary. The parser is tolerant
// of extra whitespace and trailing notes; it recognizes a heading line by a
// trailing colon matching one of the nine names, case-insensitively.
func ParseSOP(raw string) v1.SOPDocument {
	var doc v1.SOPDocument
	var current sopSection
	var curProc *v1.Procedure

	flushProc := func() {
		if curProc != nil {
			doc.Procedures = append(doc.Procedures, *curProc)
			curProc = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if heading, ok := matchHeading(trimmed); ok {
			flushProc()
			current = heading
			continue
		}

		switch current {
		case sectionTitle:
			doc.Title = appendLine(doc.Title, trimmed)
		case sectionPurpose:
			doc.Purpose = appendLine(doc.Purpose, trimmed)
		case sectionScope:
			doc.Scope = appendLine(doc.Scope, trimmed)
		case sectionRoles:
			doc.Roles = append(doc.Roles, stripBullet(trimmed))
		case sectionMaterials:
			doc.Materials = append(doc.Materials, stripBullet(trimmed))
		case sectionArchitecture:
			doc.Architecture = appendLine(doc.Architecture, trimmed)
		case sectionProcedures:
			if id, ok := matchProcedureID(trimmed); ok {
				flushProc()
				curProc = &v1.Procedure{ID: id}
				continue
			}
			if curProc != nil {
				curProc.Steps = append(curProc.Steps, stripStepNumber(trimmed))
			}
		case sectionQualityChecks:
			doc.QualityChecks = append(doc.QualityChecks, stripBullet(trimmed))
		case sectionGlossary:
			doc.Glossary = append(doc.Glossary, stripBullet(trimmed))
		}
	}
	flushProc()
	return doc
}

func matchHeading(line string) (sopSection, bool) {
	if !strings.HasSuffix(line, ":") {
		return sectionNone, false
	}
	name := strings.ToLower(strings.TrimSuffix(line, ":"))
	name = strings.TrimSpace(name)
	if s, ok := sectionHeadings[name]; ok {
		return s, true
	}
	return sectionNone, false
}

// matchProcedureID recognizes "ID: <id>" (tolerant of case and spacing).
func matchProcedureID(line string) (string, bool) {
	lower := strings.ToLower(line)
	if !strings.HasPrefix(lower, "id:") {
		return "", false
	}
	return strings.TrimSpace(line[len("id:"):]), true
}

func stripBullet(line string) string {
	line = strings.TrimPrefix(line, "-")
	line = strings.TrimPrefix(line, "*")
	return strings.TrimSpace(line)
}

func stripStepNumber(line string) string {
	// "1. do the thing" / "1) do the thing" -> "do the thing"
	for i, r := range line {
		if r == '.' || r == ')' {
			if prefix := line[:i]; isDigits(prefix) {
				return strings.TrimSpace(line[i+1:])
			}
			break
		}
		if r < '0' || r > '9' {
			break
		}
	}
	return stripBullet(line)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func appendLine(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + " " + line
}

// CompletenessScore returns the fraction in [0,1] of the nine fixed sections
// that are non-empty, the content-completeness term of the alignment score
// (spec §4.7).
func CompletenessScore(doc v1.SOPDocument) float64 {
	total := 9.0
	present := 0.0
	if doc.Title != "" {
		present++
	}
	if doc.Purpose != "" {
		present++
	}
	if doc.Scope != "" {
		present++
	}
	if len(doc.Roles) > 0 {
		present++
	}
	if len(doc.Materials) > 0 {
		present++
	}
	if doc.Architecture != "" {
		present++
	}
	if len(doc.Procedures) > 0 {
		present++
	}
	if len(doc.QualityChecks) > 0 {
		present++
	}
	if len(doc.Glossary) > 0 {
		present++
	}
	return present / total
}

// AlignmentScore is the SOP analyzer's content-completeness score multiplied
// by a validity indicator: 0.5 if requestedProcedureID is not recognized in
// doc, 1.0 otherwise (spec §4.7). An empty requestedProcedureID is treated as
// "no specific procedure requested" and always scores validity 1.0.
func AlignmentScore(doc v1.SOPDocument, requestedProcedureID string) float64 {
	completeness := CompletenessScore(doc)
	validity := 1.0
	if requestedProcedureID != "" {
		if _, ok := doc.Procedure(requestedProcedureID); !ok {
			validity = 0.5
		}
	}
	return completeness * validity
}
