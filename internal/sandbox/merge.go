/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package sandbox implements the Tri-Sandbox Executor (C6): fan-out a task
// to three isolated workers A, B, C, then merge under tie-break rules into
// one canonical TaskResult D — grounded on the pack's errgroup fan-out
// idiom (theRebelliousNerd-codenerd/internal/campaign/intelligence_gatherer.go)
// generalized from a best-effort data-gathering join into a strict
// merge-with-tie-break join.
package sandbox

import (
	"sort"

	"github.com/hortator-ai/cortex/internal/ledger"
)

// MergeKind labels which tie-break rule produced D.
type MergeKind string

const (
	MergeUnanimous   MergeKind = "MergeUnanimous"
	MergeMajority    MergeKind = "MergeMajority"
	MergeEvolutionary MergeKind = "MergeEvolutionary"
	MergeSingleton   MergeKind = "MergeSingleton"
	TriSandboxAllFailed MergeKind = "TriSandboxAllFailed"
)

// Scorer scores a candidate output in [0,1] on completeness, consistency,
// and validity; the default implementation is supplied by scorer.go. A
// scorer sees only the output bytes, not the originating task.
type Scorer func(output []byte) (completeness, consistency, validity float64)

// Outcome is one sandbox worker's result.
type Outcome struct {
	Label  string // "A", "B", or "C"
	Output []byte
	Err    error
}

// MergeResult is the product of Merge: the canonical output, the kind of
// merge that produced it, and every input hash for the ledger entry.
type MergeResult struct {
	Output     []byte
	Kind       MergeKind
	Hashes     map[string]string // label -> sha256 hex
	Scores     map[string]float64
	Degraded   []string // labels of sandboxes marked Degraded by the merge
}

func hashOf(b []byte) string { return ledger.HashBytes(b) }

// Merge applies spec §4.6's tie-break rules to the outcomes of A, B, and C
// (any subset of which may have failed).
func Merge(outcomes []Outcome, scorer Scorer) MergeResult {
	var ok []Outcome
	for _, o := range outcomes {
		if o.Err == nil {
			ok = append(ok, o)
		}
	}

	result := MergeResult{Hashes: make(map[string]string), Scores: make(map[string]float64)}
	for _, o := range outcomes {
		if o.Err == nil {
			result.Hashes[o.Label] = hashOf(o.Output)
		}
	}

	switch len(ok) {
	case 0:
		result.Kind = TriSandboxAllFailed
		return result
	case 1:
		result.Kind = MergeSingleton
		result.Output = ok[0].Output
		return result
	case 2:
		if hashOf(ok[0].Output) == hashOf(ok[1].Output) {
			result.Kind = MergeMajority
			result.Output = ok[0].Output
			return result
		}
		return scoredMerge(ok, scorer, MergeEvolutionary, result)
	default: // all three present
		h0, h1, h2 := hashOf(ok[0].Output), hashOf(ok[1].Output), hashOf(ok[2].Output)
		if h0 == h1 && h1 == h2 {
			result.Kind = MergeUnanimous
			result.Output = ok[0].Output
			return result
		}
		if h0 == h1 {
			result.Kind = MergeMajority
			result.Output = ok[0].Output
			result.Degraded = []string{ok[2].Label}
			return result
		}
		if h0 == h2 {
			result.Kind = MergeMajority
			result.Output = ok[0].Output
			result.Degraded = []string{ok[1].Label}
			return result
		}
		if h1 == h2 {
			result.Kind = MergeMajority
			result.Output = ok[1].Output
			result.Degraded = []string{ok[0].Label}
			return result
		}
		return scoredMerge(ok, scorer, MergeEvolutionary, result)
	}
}

// scoredMerge implements the scored-merger path (spec §4.6.4.c): each
// output's score is completeness x consistency x validity; the
// highest-scoring wins; ties resolve by lexical order of the canonical hash.
func scoredMerge(ok []Outcome, scorer Scorer, kind MergeKind, result MergeResult) MergeResult {
	if scorer == nil {
		scorer = DefaultScorer
	}
	type scored struct {
		outcome Outcome
		score   float64
		hash    string
	}
	var candidates []scored
	for _, o := range ok {
		c, cons, v := scorer(o.Output)
		candidates = append(candidates, scored{outcome: o, score: c * cons * v, hash: hashOf(o.Output)})
		result.Scores[o.Label] = c * cons * v
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].hash < candidates[j].hash
	})
	result.Kind = kind
	result.Output = candidates[0].outcome.Output
	return result
}

// MeetsAcceptance reports whether D's score clears threshold (default
// 0.9999 per spec §4.6), using scorer against the merged output.
func MeetsAcceptance(output []byte, scorer Scorer, threshold float64) bool {
	if scorer == nil {
		scorer = DefaultScorer
	}
	c, cons, v := scorer(output)
	return c*cons*v >= threshold
}
