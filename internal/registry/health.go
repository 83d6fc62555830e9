/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package registry

import (
	"fmt"
	"strings"
)

// StuckDetectionConfig mirrors internal/config.StuckDetectionConfig's
// fields, kept as a standalone type here so registry has no import-cycle
// dependency on the config package.
type StuckDetectionConfig struct {
	ToolDiversityMin   float64
	MaxRepeatedInputs  int
	StatusStaleMinutes int
	Action             string // warn | kill | escalate
}

// BehaviorSample is one window's worth of observed agent activity, reported
// by the host running the agent (the registry itself never inspects agent
// internals — spec §6 treats execution hosts as opaque).
type BehaviorSample struct {
	ToolCalls       []string // tool name per call, in order
	InputHashes     []string // hash of each prompt/input issued, in order
	StaleMinutes    float64  // minutes since last reported progress
}

// StuckScore is the outcome of behavioral stuck-detection analysis,
// supplemental to spec.md and grounded on the teacher's StuckScore/
// checkStuckSignals (internal/controller/health.go).
type StuckScore struct {
	ToolDiversity   float64
	RepeatedInputs  int
	StatusStaleMins float64
	Aggregate       float64
	IsStuck         bool
	Reason          string
}

// stuckThreshold matches the teacher's fixed 0.5 aggregate cutoff.
const stuckThreshold = 0.5

// EvaluateStuck scores sample against cfg using the same weighted
// combination as the teacher: tool diversity 40%, input repetition 35%,
// staleness 25%.
func EvaluateStuck(sample BehaviorSample, cfg StuckDetectionConfig) StuckScore {
	score := StuckScore{}

	if len(sample.ToolCalls) > 2 {
		set := make(map[string]struct{})
		for _, t := range sample.ToolCalls {
			set[t] = struct{}{}
		}
		score.ToolDiversity = float64(len(set)) / float64(len(sample.ToolCalls))
	} else {
		score.ToolDiversity = 1.0
	}

	if len(sample.InputHashes) > 1 {
		counts := make(map[string]int)
		for _, h := range sample.InputHashes {
			counts[h]++
		}
		max := 0
		for _, c := range counts {
			if c > max {
				max = c
			}
		}
		score.RepeatedInputs = max
	}

	score.StatusStaleMins = sample.StaleMinutes

	diversityPenalty := 0.0
	if cfg.ToolDiversityMin > 0 && score.ToolDiversity < cfg.ToolDiversityMin {
		diversityPenalty = (cfg.ToolDiversityMin - score.ToolDiversity) / cfg.ToolDiversityMin
	}

	repetitionPenalty := 0.0
	if cfg.MaxRepeatedInputs > 0 && score.RepeatedInputs > cfg.MaxRepeatedInputs {
		repetitionPenalty = float64(score.RepeatedInputs-cfg.MaxRepeatedInputs) / float64(cfg.MaxRepeatedInputs)
		if repetitionPenalty > 1.0 {
			repetitionPenalty = 1.0
		}
	}

	stalenessPenalty := 0.0
	if cfg.StatusStaleMinutes > 0 && score.StatusStaleMins > float64(cfg.StatusStaleMinutes) {
		stalenessPenalty = (score.StatusStaleMins - float64(cfg.StatusStaleMinutes)) / float64(cfg.StatusStaleMinutes)
		if stalenessPenalty > 1.0 {
			stalenessPenalty = 1.0
		}
	}

	score.Aggregate = 0.40*diversityPenalty + 0.35*repetitionPenalty + 0.25*stalenessPenalty

	if score.Aggregate >= stuckThreshold {
		score.IsStuck = true
		var reasons []string
		if diversityPenalty > 0 {
			reasons = append(reasons, fmt.Sprintf("low tool diversity (%.2f < %.2f)", score.ToolDiversity, cfg.ToolDiversityMin))
		}
		if repetitionPenalty > 0 {
			reasons = append(reasons, fmt.Sprintf("repeated inputs (%d > %d)", score.RepeatedInputs, cfg.MaxRepeatedInputs))
		}
		if stalenessPenalty > 0 {
			reasons = append(reasons, fmt.Sprintf("stale progress (%.0fm > %dm)", score.StatusStaleMins, cfg.StatusStaleMinutes))
		}
		score.Reason = strings.Join(reasons, "; ")
	}

	return score
}
