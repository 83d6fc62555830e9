/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	v1 "github.com/hortator-ai/cortex/api/v1"
)

// tierFromString maps a tier name to its typed constant, defaulting to
// TierMicro for unrecognized input.
func tierFromString(s string) v1.AgentTier {
	switch s {
	case "CECCA":
		return v1.TierCECCA
	case "Board":
		return v1.TierBoard
	case "Executive":
		return v1.TierExecutive
	case "StackChief":
		return v1.TierStackChief
	case "Specialist":
		return v1.TierSpecialist
	default:
		return v1.TierMicro
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
