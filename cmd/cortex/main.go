/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package main

import (
	"os"

	"github.com/hortator-ai/cortex/cmd/cortex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
