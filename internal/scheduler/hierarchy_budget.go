/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package scheduler

import (
	"github.com/hortator-ai/cortex/internal/cortexerr"
)

// maxHierarchyDepth bounds ParentTaskID chain walks, translated 1:1 from
// the teacher's findRootTask guard.
const maxHierarchyDepth = 10

// ParentLookup resolves a task's parent by ID, used to walk to the
// hierarchy root without the scheduler package depending on a concrete
// task store.
type ParentLookup func(taskID string) (parentID string, hasParent bool)

// FindRootID walks lookup's ParentTaskID chain up to the root task id.
func FindRootID(taskID string, lookup ParentLookup) (string, error) {
	current := taskID
	for i := 0; i < maxHierarchyDepth; i++ {
		parent, ok := lookup(current)
		if !ok || parent == "" {
			return current, nil
		}
		current = parent
	}
	return "", cortexerr.New(cortexerr.Validation, "scheduler.FindRootID", "hierarchy_depth_exceeded", nil)
}

// CheckHierarchyBudgetExceeded reports whether the hierarchy rooted at
// rootID has exceeded its token/cost budget, supplemental to spec.md and
// grounded on the teacher's checkHierarchyBudgetExhausted.
func CheckHierarchyBudgetExceeded(tracker *BudgetTracker, rootID string, maxTokens *int64, maxCostUSD *float64) error {
	if maxTokens == nil && maxCostUSD == nil {
		return nil
	}
	return tracker.CheckExceeded(rootID, maxTokens, maxCostUSD)
}
