/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package scheduler

import (
	"fmt"
	"path"

	v1 "github.com/hortator-ai/cortex/api/v1"
)

// Policy is an admission rule checked before a task is let into Ready,
// supplemental to spec.md and grounded on the teacher's AgentPolicy CRD and
// enforcePolicy (internal/controller/policy.go).
type Policy struct {
	Name                string
	AllowedCapabilities []string
	DeniedCapabilities  []string
	MaxTier             v1.AgentTier
	MaxConcurrentTasks  *int
	MaxBudget           *v1.BudgetSpec
	AllowedTypes        []string // glob patterns matched against Task.Type
}

// EnforcePolicies checks task against every policy, returning the first
// violation description or "" if all policies pass.
func EnforcePolicies(policies []Policy, task v1.Task, runningInTier int) string {
	for _, p := range policies {
		if v := checkDenied(p, task); v != "" {
			return v
		}
		if v := checkAllowed(p, task); v != "" {
			return v
		}
		if v := checkAllowedTypes(p, task); v != "" {
			return v
		}
		if v := checkBudget(p, task); v != "" {
			return v
		}
		if v := checkTier(p, task); v != "" {
			return v
		}
		if p.MaxConcurrentTasks != nil && runningInTier >= *p.MaxConcurrentTasks {
			return fmt.Sprintf("tier has %d running tasks, policy %s limits to %d", runningInTier, p.Name, *p.MaxConcurrentTasks)
		}
	}
	return ""
}

func checkDenied(p Policy, task v1.Task) string {
	if len(p.DeniedCapabilities) == 0 {
		return ""
	}
	denied := toSet(p.DeniedCapabilities)
	for _, cap := range task.RequiredCapabilities {
		if denied[cap] {
			return fmt.Sprintf("capability %q is denied by policy %s", cap, p.Name)
		}
	}
	return ""
}

func checkAllowed(p Policy, task v1.Task) string {
	if len(p.AllowedCapabilities) == 0 {
		return ""
	}
	allowed := toSet(p.AllowedCapabilities)
	for _, cap := range task.RequiredCapabilities {
		if !allowed[cap] {
			return fmt.Sprintf("capability %q is not allowed by policy %s", cap, p.Name)
		}
	}
	return ""
}

func checkAllowedTypes(p Policy, task v1.Task) string {
	if len(p.AllowedTypes) == 0 {
		return ""
	}
	for _, pattern := range p.AllowedTypes {
		if ok, _ := path.Match(pattern, task.Type); ok {
			return ""
		}
	}
	return fmt.Sprintf("task type %q is not allowed by policy %s", task.Type, p.Name)
}

func checkBudget(p Policy, task v1.Task) string {
	if p.MaxBudget == nil || task.Budget == nil {
		return ""
	}
	if p.MaxBudget.MaxTokens != nil && task.Budget.MaxTokens != nil && *task.Budget.MaxTokens > *p.MaxBudget.MaxTokens {
		return fmt.Sprintf("token budget %d exceeds policy %s limit of %d", *task.Budget.MaxTokens, p.Name, *p.MaxBudget.MaxTokens)
	}
	if p.MaxBudget.MaxCostUSD != nil && task.Budget.MaxCostUSD != nil && *task.Budget.MaxCostUSD > *p.MaxBudget.MaxCostUSD {
		return fmt.Sprintf("cost budget %.2f exceeds policy %s limit of %.2f", *task.Budget.MaxCostUSD, p.Name, *p.MaxBudget.MaxCostUSD)
	}
	return ""
}

func checkTier(p Policy, task v1.Task) string {
	if p.MaxTier == "" || task.TierHint == "" {
		return ""
	}
	if task.TierHint.Rank() > p.MaxTier.Rank() {
		return fmt.Sprintf("tier %q exceeds policy %s max tier %q", task.TierHint, p.Name, p.MaxTier)
	}
	return ""
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, i := range items {
		s[i] = true
	}
	return s
}
