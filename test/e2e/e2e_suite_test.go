//go:build e2e

/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package e2e

import (
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	fmt.Fprintf(GinkgoWriter, "Starting cortex end-to-end suite\n")
	RunSpecs(t, "cortex e2e suite")
}
