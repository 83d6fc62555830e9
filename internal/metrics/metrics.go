/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package metrics declares the Prometheus vectors shared across components,
// translated 1:1 from the teacher's internal/controller/metrics.go.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_tasks_total",
			Help: "Total number of tasks by terminal status.",
		},
		[]string{"status"},
	)
	TasksActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cortex_tasks_active",
			Help: "Number of tasks currently Running.",
		},
	)
	TaskDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cortex_task_duration_seconds",
			Help:    "Duration of completed tasks in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 15),
		},
	)
	SandboxMergeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_sandbox_merge_total",
			Help: "Tri-sandbox merges by merge kind.",
		},
		[]string{"merge_kind"},
	)
	LedgerEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_ledger_entries_total",
			Help: "Ledger entries appended by event kind.",
		},
		[]string{"event_kind"},
	)
	TokenIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cortex_token_issued_total",
			Help: "Capability tokens issued.",
		},
	)
	FabricQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cortex_fabric_queue_depth",
			Help: "Per-agent message queue depth.",
		},
		[]string{"agent", "priority"},
	)
)

func init() {
	prometheus.MustRegister(
		TasksTotal, TasksActive, TaskDuration,
		SandboxMergeTotal, LedgerEntriesTotal, TokenIssuedTotal, FabricQueueDepth,
	)
}
