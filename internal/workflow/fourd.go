/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package workflow

import (
	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/config"
)

// RubricItem is one unmet-or-met checkpoint in a 4D phase's fixed rubric.
type RubricItem struct {
	Phase string
	Name  string
	Met   bool
}

// QualityReport is the structured output of a failed gate: every unmet
// rubric item plus a short recommendation per item (spec §4.7).
type QualityReport struct {
	Unmet           []RubricItem
	Recommendations []string
}

// scorePhase scales "points satisfied" over "points possible" to [0,100],
// rounding down, and returns the unmet items for the quality report.
func scorePhase(phase string, checks []RubricItem) (int, []RubricItem) {
	if len(checks) == 0 {
		return 100, nil
	}
	met := 0
	var unmet []RubricItem
	for _, c := range checks {
		if c.Met {
			met++
		} else {
			unmet = append(unmet, c)
		}
	}
	score := (met * 100) / len(checks)
	return score, unmet
}

// ScoreDeconstruct checks presence of inputs, output requirements,
// constraints, and acceptance criteria — one point per satisfied item.
func ScoreDeconstruct(d v1.Deconstruct) (int, []RubricItem) {
	checks := []RubricItem{
		{Phase: "Deconstruct", Name: "inputs identified", Met: len(d.Inputs) > 0},
		{Phase: "Deconstruct", Name: "output requirements stated", Met: len(d.OutputRequirements) > 0},
		{Phase: "Deconstruct", Name: "constraints captured", Met: len(d.Constraints) > 0},
		{Phase: "Deconstruct", Name: "acceptance criteria defined", Met: len(d.AcceptanceCriteria) > 0},
	}
	return scorePhase("Deconstruct", checks)
}

// ScoreDiagnose checks that risks and gaps were both considered, and that
// the source SOP carried a Quality Checks section (its absence is the
// textbook Diagnose gap in spec §8 scenario S4).
func ScoreDiagnose(d v1.Diagnose, sop v1.SOPDocument) (int, []RubricItem) {
	checks := []RubricItem{
		{Phase: "Diagnose", Name: "risks enumerated", Met: len(d.Risks) > 0},
		{Phase: "Diagnose", Name: "gaps enumerated", Met: len(d.Gaps) > 0},
		{Phase: "Diagnose", Name: "SOP quality checks present", Met: len(sop.QualityChecks) > 0},
	}
	return scorePhase("Diagnose", checks)
}

// ScoreDevelop checks that a plan exists and names the agent capabilities
// it needs.
func ScoreDevelop(d v1.Develop) (int, []RubricItem) {
	checks := []RubricItem{
		{Phase: "Develop", Name: "plan steps present", Met: len(d.Plan) > 0},
		{Phase: "Develop", Name: "agent capabilities named", Met: len(d.AgentsNeeded) > 0},
	}
	return scorePhase("Develop", checks)
}

// ScoreDeliver checks that deliverables and their target locations were
// named before execution.
func ScoreDeliver(d v1.Deliver) (int, []RubricItem) {
	checks := []RubricItem{
		{Phase: "Deliver", Name: "deliverables named", Met: len(d.Deliverables) > 0},
		{Phase: "Deliver", Name: "locations named", Met: len(d.Locations) > 0},
	}
	return scorePhase("Deliver", checks)
}

// Score4D runs the full rubric over a TaskSubject's 4D fields and returns
// FourDScores plus a QualityReport (non-nil only when the gate fails).
func Score4D(subject v1.TaskSubject, sop v1.SOPDocument, gate config.GateConfig) (v1.FourDScores, *QualityReport) {
	deconstructScore, deconstructUnmet := ScoreDeconstruct(subject.Deconstruct)
	diagnoseScore, diagnoseUnmet := ScoreDiagnose(subject.Diagnose, sop)
	developScore, developUnmet := ScoreDevelop(subject.Develop)
	deliverScore, deliverUnmet := ScoreDeliver(subject.Deliver)

	overall := int(
		float64(deconstructScore)*gate.WeightDeconstruct +
			float64(diagnoseScore)*gate.WeightDiagnose +
			float64(developScore)*gate.WeightDevelop +
			float64(deliverScore)*gate.WeightDeliver,
	)

	scores := v1.FourDScores{
		Deconstruct: deconstructScore,
		Diagnose:    diagnoseScore,
		Develop:     developScore,
		Deliver:     deliverScore,
		Overall:     overall,
	}

	var unmet []RubricItem
	unmet = append(unmet, perPhaseUnmet(deconstructScore, gate.PerPhaseMin, deconstructUnmet)...)
	unmet = append(unmet, perPhaseUnmet(diagnoseScore, gate.PerPhaseMin, diagnoseUnmet)...)
	unmet = append(unmet, perPhaseUnmet(developScore, gate.PerPhaseMin, developUnmet)...)
	unmet = append(unmet, perPhaseUnmet(deliverScore, gate.PerPhaseMin, deliverUnmet)...)

	gatePassed := overall >= gate.OverallMin &&
		deconstructScore >= gate.PerPhaseMin &&
		diagnoseScore >= gate.PerPhaseMin &&
		developScore >= gate.PerPhaseMin &&
		deliverScore >= gate.PerPhaseMin
	scores.GatePassed = gatePassed

	if gatePassed {
		return scores, nil
	}

	report := &QualityReport{Unmet: unmet}
	for _, item := range unmet {
		report.Recommendations = append(report.Recommendations, "address: "+item.Phase+" / "+item.Name)
	}
	return scores, report
}

// perPhaseUnmet reports a phase's unmet rubric items only when the phase
// itself falls below the per-phase floor; a phase that clears the floor
// doesn't surface its individually-unmet items even if not every checklist
// point was satisfied.
func perPhaseUnmet(score, floor int, items []RubricItem) []RubricItem {
	if score >= floor {
		return nil
	}
	return items
}
