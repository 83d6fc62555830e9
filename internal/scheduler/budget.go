/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package scheduler

import (
	"sync"

	"github.com/hortator-ai/cortex/internal/cortexerr"
)

// Spend is one task's consumption against a budget.
type Spend struct {
	Tokens  int64
	CostUSD float64
}

// BudgetTracker accumulates Spend per task and checks it against an
// optional ceiling, supplemental to spec.md and grounded on the teacher's
// PriceMap/budget.go (there: LiteLLM-sourced per-token pricing feeding a
// dollar ceiling check; here: the pricing source is left to the caller,
// which reports already-priced Spend, since the core makes no prescription
// on model hosts per spec §6).
type BudgetTracker struct {
	mu    sync.Mutex
	spent map[string]Spend // keyed by task or hierarchy-root id
}

// NewBudgetTracker returns an empty tracker.
func NewBudgetTracker() *BudgetTracker {
	return &BudgetTracker{spent: make(map[string]Spend)}
}

// Record adds s to key's accumulated spend.
func (b *BudgetTracker) Record(key string, s Spend) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.spent[key]
	cur.Tokens += s.Tokens
	cur.CostUSD += s.CostUSD
	b.spent[key] = cur
}

// Spent returns key's accumulated spend.
func (b *BudgetTracker) Spent(key string) Spend {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent[key]
}

// CheckExceeded reports whether key's accumulated spend has crossed budget.
// A nil budget or a nil field within it means "no ceiling" for that
// dimension.
func (b *BudgetTracker) CheckExceeded(key string, maxTokens *int64, maxCostUSD *float64) error {
	spent := b.Spent(key)
	if maxTokens != nil && spent.Tokens > *maxTokens {
		return cortexerr.New(cortexerr.Capacity, "scheduler.CheckExceeded", "token_budget_exceeded", nil)
	}
	if maxCostUSD != nil && spent.CostUSD > *maxCostUSD {
		return cortexerr.New(cortexerr.Capacity, "scheduler.CheckExceeded", "cost_budget_exceeded", nil)
	}
	return nil
}

// WarningThreshold reports whether spend has crossed percent% of the
// ceiling without yet exceeding it, used to emit an early warning before the
// hard CapacityError.
func WarningThreshold(spent Spend, maxCostUSD *float64, percent int) bool {
	if maxCostUSD == nil || *maxCostUSD <= 0 {
		return false
	}
	ratio := spent.CostUSD / *maxCostUSD * 100
	return ratio >= float64(percent) && ratio < 100
}
