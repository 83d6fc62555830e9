//go:build e2e

/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package e2e

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/config"
	"github.com/hortator-ai/cortex/internal/ledger"
	"github.com/hortator-ai/cortex/internal/sandbox"
	"github.com/hortator-ai/cortex/internal/token"
	"github.com/hortator-ai/cortex/internal/workflow"
)

func always(payload string) sandbox.Worker {
	return func(ctx context.Context, tok v1.CapabilityToken, input []byte) ([]byte, error) {
		return []byte(payload), nil
	}
}

var _ = Describe("tri-sandbox merge", func() {
	var (
		tokens *token.Service
		led    *ledger.Ledger
	)

	BeforeEach(func() {
		var err error
		tokens, err = token.NewService()
		Expect(err).NotTo(HaveOccurred())
		led, err = ledger.New(ledger.NewMemBackend(), nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("unanimously accepts three byte-identical sandbox outputs", func() {
		exec := sandbox.New(tokens, led, sandbox.DefaultConfig())
		result, merge, err := exec.Run(context.Background(), "T1", []byte("compute-sum"), time.Second,
			always(`{"result": 5}`), always(`{"result": 5}`), always(`{"result": 5}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(merge.Kind).To(Equal(sandbox.MergeUnanimous))
		Expect(string(result.OutputData)).To(Equal(`{"result": 5}`))

		entries, err := led.All()
		Expect(err).NotTo(HaveOccurred())
		Expect(entryKinds(entries)).To(ContainElement("SandboxMerged"))
	})

	It("degrades the minority sandbox on a 2-1 split", func() {
		exec := sandbox.New(tokens, led, sandbox.DefaultConfig())
		_, merge, err := exec.Run(context.Background(), "T1", []byte("compute-sum"), time.Second,
			always(`{"result": 5}`), always(`{"result": 5}`), always(`{"result": 6}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(merge.Kind).To(Equal(sandbox.MergeMajority))
		Expect(merge.Degraded).To(ConsistOf("C"))
	})

	It("picks the highest-scoring output and then rejects it under the default acceptance threshold", func() {
		scores := map[string]float64{
			`{"result": 5}`:   0.95,
			`{"result": 5.0}`: 0.90,
			`{"result": "5"}`: 0.40,
		}
		scorer := func(output []byte) (float64, float64, float64) {
			return scores[string(output)], 1.0, 1.0
		}
		exec := sandbox.New(tokens, led, sandbox.Config{AcceptanceThreshold: 0.9999, Scorer: scorer})
		_, merge, err := exec.Run(context.Background(), "T1", []byte("compute-sum"), time.Second,
			always(`{"result": 5}`), always(`{"result": 5.0}`), always(`{"result": "5"}`))

		Expect(merge.Kind).To(Equal(sandbox.MergeEvolutionary))
		Expect(string(merge.Output)).To(Equal(`{"result": 5}`))
		Expect(merge.Scores["A"]).To(BeNumerically("~", 0.95, 1e-9))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("acceptance_below_threshold"))
	})
})

var _ = Describe("4D quality gate", func() {
	It("blocks dispatch when a phase falls below the per-phase floor and surfaces its unmet items", func() {
		sop := workflow.ParseSOP(sopMissingQualityChecks)
		subject := v1.TaskSubject{
			Deconstruct: v1.Deconstruct{
				Inputs: []string{"logs"}, OutputRequirements: []string{"summary"},
				Constraints: []string{"no PII"}, AcceptanceCriteria: []string{"under 200 words"},
			},
			Diagnose: v1.Diagnose{Risks: []string{"log volume"}}, // gaps left empty, and SOP lacks Quality Checks
			Develop:  v1.Develop{Plan: []string{"parse", "summarize"}, AgentsNeeded: []string{"compute"}},
			Deliver:  v1.Deliver{Deliverables: []string{"summary.txt"}, Locations: []string{"summary.txt"}},
		}
		scores, report := workflow.Score4D(subject, sop, config.DefaultGateConfig())

		Expect(scores.GatePassed).To(BeFalse())
		Expect(scores.Diagnose).To(BeNumerically("<", 70))
		Expect(report).NotTo(BeNil())
		foundDiagnose := false
		for _, item := range report.Unmet {
			if item.Phase == "Diagnose" {
				foundDiagnose = true
			}
		}
		Expect(foundDiagnose).To(BeTrue())
	})
})

var _ = Describe("capability token expiry", func() {
	It("rejects a reply that arrives after the token's not_after boundary", func() {
		svc, err := token.NewService()
		Expect(err).NotTo(HaveOccurred())

		tok, err := svc.Issue("agent-1", []string{"task-execute"}, 10*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())

		time.Sleep(25 * time.Millisecond)

		result := svc.Verify(tok, "task-execute", time.Now())
		Expect(result).To(Equal(token.ExpiredError))

		retried, err := svc.Issue("agent-1", []string{"task-execute"}, time.Hour)
		Expect(err).NotTo(HaveOccurred())
		Expect(svc.Verify(retried, "task-execute", time.Now())).To(Equal(token.Ok))
	})
})

var _ = Describe("ledger integrity", func() {
	It("exposes a manifest digest that diverges after an out-of-band update", func() {
		backend := ledger.NewMemBackend()
		led, err := ledger.New(backend, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = led.RecordArtifact("core/src/workflow/r1.json", []byte(`{"result": 5}`), "r1")
		Expect(err).NotTo(HaveOccurred())
		Expect(led.Verify()).To(Succeed())

		digest, ok := led.Manifest().Get("core/src/workflow/r1.json")
		Expect(ok).To(BeTrue())
		Expect(digest).NotTo(BeEmpty())

		// the operator overwrites the file on disk without going through
		// RecordArtifact; simulate that by forcing the manifest's recorded
		// digest out of sync with a hand-rolled Update call. Ledger.Verify
		// checks only sequence and timestamp order, so the divergence is
		// observed through the manifest itself.
		changed := led.Manifest().Update("core/src/workflow/r1.json", "0000000000000000000000000000000000000000000000000000000000000000"[:64])
		Expect(changed).To(BeTrue())

		tampered, ok := led.Manifest().Get("core/src/workflow/r1.json")
		Expect(ok).To(BeTrue())
		Expect(tampered).NotTo(Equal(digest))
	})
})

func entryKinds(entries []v1.LedgerEntry) []string {
	var kinds []string
	for _, e := range entries {
		kinds = append(kinds, e.EventKind)
	}
	return kinds
}

const sopMissingQualityChecks = `Title: Log Summary Procedure
Purpose: Summarize access logs for the on-call engineer.
Scope: Applies to web-tier access logs only.
Roles: requester, summarizer
Materials: access.log
Architecture: single-pass streaming summarizer
Procedures:
ID: P1
1. Read the log file
2. Emit a summary
Glossary: none
`
