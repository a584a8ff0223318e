// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReliabilityDiagramBinsByPrediction(t *testing.T) {
	predictions := []float64{0.05, 0.15, 0.85, 0.95}
	outcomes := []float64{0, 0, 1, 1}

	bins, err := ReliabilityDiagram(predictions, outcomes, 10)
	require.NoError(t, err)
	require.Len(t, bins, 10)
	require.Equal(t, 1, bins[0].Count)
	require.Equal(t, 1, bins[1].Count)
	require.Equal(t, 1, bins[8].Count)
	require.Equal(t, 1, bins[9].Count)
	require.InDelta(t, 1.0, bins[9].Accuracy, 1e-9)
}

func TestReliabilityDiagramRejectsMismatchedLength(t *testing.T) {
	_, err := ReliabilityDiagram([]float64{0.1}, nil, 10)
	require.Error(t, err)
}

func TestROCCurvePerfectSeparationHasAUC1(t *testing.T) {
	predictions := []float64{0.1, 0.2, 0.8, 0.9}
	outcomes := []float64{0, 0, 1, 1}

	_, auc, err := ROCCurve(predictions, outcomes)
	require.NoError(t, err)
	require.InDelta(t, 1.0, auc, 1e-9)
}

func TestROCCurveRandomGuessingHasAUCAroundHalf(t *testing.T) {
	predictions := []float64{0.9, 0.1, 0.9, 0.1}
	outcomes := []float64{0, 1, 1, 0}

	_, auc, err := ROCCurve(predictions, outcomes)
	require.NoError(t, err)
	require.InDelta(t, 0.5, auc, 1e-9)
}

func TestSummarizeBundlesAllFields(t *testing.T) {
	predictions := []float64{0.9, 0.8, 0.2, 0.1}
	outcomes := []float64{1, 1, 0, 0}

	summary, err := Summarize(predictions, outcomes, 5)
	require.NoError(t, err)
	require.InDelta(t, 0.0, summary.ECE, 0.15)
	require.Greater(t, summary.AUC, 0.9)
	require.Len(t, summary.Bins, 5)
}
