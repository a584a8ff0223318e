// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCalibrateWithSyntheticDataWritesResults(t *testing.T) {
	output := t.TempDir()

	err := runCalibrate("", 0.05, output, 200, 42)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(output, "calibration_results.json"))
	require.NoError(t, err)
	require.Contains(t, string(data), "tau_optimal")
}

func TestSyntheticCalibrationDataIsReproducibleForSameSeed(t *testing.T) {
	a := syntheticCalibrationData(50, 7)
	b := syntheticCalibrationData(50, 7)
	require.Equal(t, a, b)
}

func TestSyntheticCalibrationDataSplitsLabels(t *testing.T) {
	records := syntheticCalibrationData(100, 1)
	var positives, negatives int
	for _, r := range records {
		if r.GroundTruth == 1 {
			positives++
		} else {
			negatives++
		}
	}
	require.Equal(t, 50, positives)
	require.Equal(t, 50, negatives)
}
