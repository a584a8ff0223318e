// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/x0rium/robust-semantic-agent/config"
)

func writeTestConfig(t *testing.T, cfg config.Configuration) string {
	t.Helper()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunRolloutProducesEpisodeLogsAndSummary(t *testing.T) {
	cfg := config.Fast()
	cfg.Seed = 7
	cfg.Horizon = 10
	cfg.Belief.Particles = 100
	configPath := writeTestConfig(t, cfg)

	logDir := t.TempDir()
	require.NoError(t, runRollout(configPath, 2, logDir, false, false))

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	runDir := filepath.Join(logDir, entries[0].Name())
	_, err = os.Stat(filepath.Join(runDir, "episodes.jsonl"))
	require.NoError(t, err)
}

func TestRunRolloutThenEvaluateProducesReports(t *testing.T) {
	cfg := config.Fast()
	cfg.Seed = 11
	cfg.Belief.Particles = 100
	configPath := writeTestConfig(t, cfg)

	logDir := t.TempDir()
	require.NoError(t, runRollout(configPath, 3, logDir, false, false))

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	runDir := filepath.Join(logDir, entries[0].Name())

	reportDir := t.TempDir()
	require.NoError(t, runEvaluate(runDir, "", reportDir))

	_, err = os.Stat(filepath.Join(reportDir, "summary.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(reportDir, "risk", "cvar_curve.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(reportDir, "safety", "violation_stats.json"))
	require.NoError(t, err)
}

func TestRunRolloutWithQueryEnabledWiresEnvironmentAsQueryChannel(t *testing.T) {
	cfg := config.Fast()
	cfg.Seed = 5
	cfg.Horizon = 20
	cfg.Belief.Particles = 200
	cfg.Query.DeltaStar = 1e-6 // any step with a positive EVI fires the query
	configPath := writeTestConfig(t, cfg)

	logDir := t.TempDir()
	require.NoError(t, runRollout(configPath, 1, logDir, true, false))

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	runDir := filepath.Join(logDir, entries[0].Name())

	data, err := os.ReadFile(filepath.Join(runDir, "episodes.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"query_triggered":true`)
}

func TestRunRolloutRejectsMissingConfig(t *testing.T) {
	err := runRollout(filepath.Join(t.TempDir(), "missing.yaml"), 1, t.TempDir(), false, false)
	require.Error(t, err)
	require.Equal(t, 1, exitCode(err))
}
