/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/engine"
	"github.com/hortator-ai/cortex/internal/workflow"
)

var (
	runMessage      string
	runSubject      string
	runPriority     string
	runSOPFile      string
	runProcedureID  string
	runOverrideGate bool
	runPlanFile        string
	runDeliverableName string
)

// runPlan is the on-disk shape of a 4D plan supplied to `cortex run`. It
// mirrors workflow.Input's nested phase fields one for one.
type runPlan struct {
	Deconstruct v1.Deconstruct `yaml:"deconstruct"`
	Diagnose    v1.Diagnose    `yaml:"diagnose"`
	Develop     v1.Develop     `yaml:"develop"`
	Deliver     v1.Deliver     `yaml:"deliver"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive a request through the full seven-phase workflow",
	Long: `Ingest a chat request, run it through Analysis & Planning (4D
scoring against the quality gate), Resource Allocation, Execution,
Verification, Integration, and Post-Delivery, printing a summary of the
resulting Result (the full Result as JSON with -o json).

A --plan file supplies the Deconstruct/Diagnose/Develop/Deliver phase
data the 4D rubric scores; without one, a minimal single-step plan is
synthesized from --message and --deliverable. The Diagnose rubric also
requires the SOP to carry a Quality Checks section, so without a
--sop-file that has one the gate fails unless --override-gate is given.

Examples:
  cortex run --message "summarize the access logs" --deliverable report.md
  cortex run --message "..." --plan plan.yaml --sop-file procedure.md`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runMessage, "message", "", "Request message (required)")
	runCmd.Flags().StringVar(&runSubject, "subject", "", "Request subject line")
	runCmd.Flags().StringVar(&runPriority, "priority", "Normal", "Low, Normal, High, or Critical")
	runCmd.Flags().StringVar(&runSOPFile, "sop-file", "", "Path to an SOP document to parse and score against")
	runCmd.Flags().StringVar(&runProcedureID, "procedure-id", "", "Procedure ID the request should align to")
	runCmd.Flags().BoolVar(&runOverrideGate, "override-gate", false, "Proceed past a failed quality gate")
	runCmd.Flags().StringVar(&runPlanFile, "plan", "", "Path to a YAML file with deconstruct/diagnose/develop/deliver fields")
	runCmd.Flags().StringVar(&runDeliverableName, "deliverable", "", "Name of a single deliverable to plan and record (shorthand for a one-entry Deliver.Deliverables)")
	_ = runCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	plan, err := loadOrSynthesizePlan()
	if err != nil {
		return err
	}

	sopRaw := ""
	if runSOPFile != "" {
		b, err := os.ReadFile(runSOPFile)
		if err != nil {
			return fmt.Errorf("failed to read SOP file: %w", err)
		}
		sopRaw = string(b)
	}

	in := workflow.Input{
		Request: v1.ChatRequest{
			ID:       v1.NewTaskID().String(),
			Subject:  runSubject,
			Message:  runMessage,
			Priority: v1.TaskPriority(runPriority),
		},
		SOPRaw:               sopRaw,
		RequestedProcedureID: runProcedureID,
		OverrideGate:         runOverrideGate,
		Deconstruct:          plan.Deconstruct,
		Diagnose:             plan.Diagnose,
		Develop:              plan.Develop,
		Deliver:              plan.Deliver,
		Execute:              nullExecutor,
		ReproCommand:         fmt.Sprintf("cortex run --message %q", runMessage),
	}

	result, err := eng.Processor.Run(context.Background(), in)
	if saveErr := engine.SaveTasks(filepath.Join(dataDir, engine.TasksFile), result.Tasks); saveErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to persist task snapshot: %v\n", saveErr)
	}
	if err != nil {
		printResult(result)
		return fmt.Errorf("run failed: %w", err)
	}
	printResult(result)
	return nil
}

// nullExecutor stands in for an attached agent backend: it marks every
// dispatched task as succeeded with its input echoed back as output. A real
// deployment wires Execute to the tri-sandbox Executor or a direct
// single-agent dispatch over the message fabric.
func nullExecutor(ctx context.Context, task v1.Task) (v1.TaskResult, error) {
	return v1.TaskResult{
		TaskID:      task.ID,
		OutputData:  task.Input,
		CompletedAt: time.Now().UTC(),
	}, nil
}

func loadOrSynthesizePlan() (runPlan, error) {
	if runPlanFile != "" {
		b, err := os.ReadFile(runPlanFile)
		if err != nil {
			return runPlan{}, fmt.Errorf("failed to read plan file: %w", err)
		}
		var p runPlan
		if err := yaml.Unmarshal(b, &p); err != nil {
			return runPlan{}, fmt.Errorf("failed to parse plan file: %w", err)
		}
		return p, nil
	}

	deliverableName := runDeliverableName
	if deliverableName == "" {
		deliverableName = "result.txt"
	}
	return runPlan{
		Deconstruct: v1.Deconstruct{
			Inputs:             []string{runMessage},
			OutputRequirements: []string{"respond to the request"},
			Constraints:        []string{"no fabricated data"},
			AcceptanceCriteria: []string{"deliverable recorded in the ledger"},
		},
		Diagnose: v1.Diagnose{
			Risks: []string{"insufficient context"},
			Gaps:  []string{"no prior plan supplied"},
		},
		Develop: v1.Develop{
			Plan:         []string{"produce " + deliverableName},
			AgentsNeeded: []string{"compute"},
		},
		Deliver: v1.Deliver{
			Deliverables: []string{deliverableName},
			Locations:    []string{deliverableName},
		},
	}, nil
}

func printResult(result workflow.Result) {
	if outputFormat == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err == nil {
			fmt.Println(string(data))
			return
		}
	}

	fmt.Printf("Request:        %s\n", result.RequestID)
	fmt.Printf("Gate passed:    %v\n", result.Subject.Scores.GatePassed)
	fmt.Printf("Gate overridden: %v\n", result.GateOverridden)
	fmt.Printf("Overall score:  %d\n", result.Subject.Scores.Overall)
	if result.QualityReport != nil {
		fmt.Println("\nUnmet rubric items:")
		for _, item := range result.QualityReport.Unmet {
			fmt.Printf("  ✗ %s / %s\n", item.Phase, item.Name)
		}
	}
	if len(result.Deliverables) > 0 {
		fmt.Println("\nDeliverables:")
		for _, d := range result.Deliverables {
			fmt.Printf("  %s -> %s\n", d.Name, d.PlannedLocation)
		}
	}
	if result.MerkleAnchor != nil {
		fmt.Printf("\nMerkle root: %s\n", result.MerkleAnchor.MerkleRoot)
	}
}
