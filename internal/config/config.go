/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package config holds cluster-wide defaults, grouped the way the teacher's
// ClusterDefaults/BudgetConfig/HealthConfig are grouped, loaded from YAML
// with environment-variable overrides and refreshed on a TTL.
package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// BudgetConfig controls hierarchy/per-task budget enforcement.
type BudgetConfig struct {
	Enabled        bool    `yaml:"enabled"`
	DefaultMaxCostUSD float64 `yaml:"defaultMaxCostUsd"`
	WarningPercent int     `yaml:"warningPercent"`
}

// HealthConfig controls heartbeat and stuck-detection behavior.
type HealthConfig struct {
	Enabled              bool          `yaml:"enabled"`
	CheckInterval        time.Duration `yaml:"checkInterval"`
	MissedHeartbeatLimit int           `yaml:"missedHeartbeatLimit"`
	StuckDetection       StuckDetectionConfig `yaml:"stuckDetection"`
}

// StuckDetectionConfig controls the behavioral stuck-agent scoring.
type StuckDetectionConfig struct {
	Enabled            bool    `yaml:"enabled"`
	ToolDiversityMin   float64 `yaml:"toolDiversityMin"`
	MaxRepeatedInputs  int     `yaml:"maxRepeatedInputs"`
	StatusStaleMinutes int     `yaml:"statusStaleMinutes"`
	Action             string  `yaml:"action"` // warn | kill | escalate
}

// GateConfig holds the 4D quality-gate thresholds and the tri-sandbox
// acceptance threshold — independent gates per SPEC_FULL §5 item 3.
type GateConfig struct {
	PerPhaseMin      int     `yaml:"perPhaseMin"`
	OverallMin       int     `yaml:"overallMin"`
	WeightDeconstruct float64 `yaml:"weightDeconstruct"`
	WeightDiagnose   float64 `yaml:"weightDiagnose"`
	WeightDevelop    float64 `yaml:"weightDevelop"`
	WeightDeliver    float64 `yaml:"weightDeliver"`
	SandboxAcceptanceMin float64 `yaml:"sandboxAcceptanceMin"`
}

// DefaultGateConfig matches spec §4.7/§4.6 defaults.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		PerPhaseMin:          70,
		OverallMin:           75,
		WeightDeconstruct:    0.35,
		WeightDiagnose:       0.25,
		WeightDevelop:        0.25,
		WeightDeliver:        0.15,
		SandboxAcceptanceMin: 0.9999,
	}
}

// ResultCacheConfig controls the task-result deduplication cache.
type ResultCacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"maxEntries"`
}

// WarmPoolConfig controls the pre-registered idle agent pool.
type WarmPoolConfig struct {
	Enabled bool      `yaml:"enabled"`
	Size    int       `yaml:"size"`
	Tier    string    `yaml:"tier"`
}

// Defaults is the full cluster-wide configuration tree, mirroring the
// teacher's ClusterDefaults grouping.
type Defaults struct {
	DefaultTimeout time.Duration     `yaml:"defaultTimeout"`
	Budget         BudgetConfig      `yaml:"budget"`
	Health         HealthConfig      `yaml:"health"`
	Gate           GateConfig        `yaml:"gate"`
	ResultCache    ResultCacheConfig `yaml:"resultCache"`
	WarmPool       WarmPoolConfig    `yaml:"warmPool"`
	WorkspaceRoot  string            `yaml:"workspaceRoot"`
}

// Default returns the baseline configuration before any YAML/env overrides.
func Default() Defaults {
	return Defaults{
		DefaultTimeout: 600 * time.Second,
		Budget: BudgetConfig{
			Enabled:           false,
			DefaultMaxCostUSD: 0,
			WarningPercent:    80,
		},
		Health: HealthConfig{
			Enabled:              true,
			CheckInterval:        5 * time.Second,
			MissedHeartbeatLimit: 3,
			StuckDetection: StuckDetectionConfig{
				Enabled:            true,
				ToolDiversityMin:   0.3,
				MaxRepeatedInputs:  3,
				StatusStaleMinutes: 10,
				Action:             "warn",
			},
		},
		Gate:        DefaultGateConfig(),
		ResultCache: ResultCacheConfig{Enabled: true, TTL: 10 * time.Minute, MaxEntries: 1000},
		WarmPool:    WarmPoolConfig{Enabled: false, Size: 0, Tier: "Micro"},
	}
}

// Load reads YAML from path (if non-empty and present) over the defaults,
// then applies a small set of environment-variable overrides, matching the
// teacher's ConfigMap-then-env precedence.
func Load(path string) (Defaults, error) {
	d := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, &d); err != nil {
				return d, err
			}
		} else if !os.IsNotExist(err) {
			return d, err
		}
	}
	if v := os.Getenv("CORTEX_BUDGET_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			d.Budget.Enabled = b
		}
	}
	if v := os.Getenv("CORTEX_WORKSPACE_ROOT"); v != "" {
		d.WorkspaceRoot = v
	}
	return d, nil
}

// CachedDefaults refreshes a Defaults snapshot on a TTL, mirroring the
// teacher's defaultsMu/defaultsAt/defaultsTTL pattern so hot reconcile loops
// don't re-read the config file on every call.
type CachedDefaults struct {
	mu    sync.RWMutex
	value Defaults
	at    time.Time
	ttl   time.Duration
	path  string
}

// NewCachedDefaults loads once immediately and returns a cache that will
// reload from path at most once per ttl.
func NewCachedDefaults(path string, ttl time.Duration) (*CachedDefaults, error) {
	d, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &CachedDefaults{value: d, at: time.Now(), ttl: ttl, path: path}, nil
}

// Get returns the current snapshot, refreshing from disk if stale.
func (c *CachedDefaults) Get() Defaults {
	c.mu.RLock()
	stale := time.Since(c.at) > c.ttl
	v := c.value
	c.mu.RUnlock()
	if !stale {
		return v
	}
	if d, err := Load(c.path); err == nil {
		c.mu.Lock()
		c.value = d
		c.at = time.Now()
		c.mu.Unlock()
		return d
	}
	return v
}
