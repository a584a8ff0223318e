// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCVaRCurveMonotoneInAlpha(t *testing.T) {
	returns := []float64{-5, -3, -1, 0, 1, 3, 5, 7, 9, 11}
	points, err := CVaRCurve(returns, []float64{0.1, 0.5, 1.0}, nil)
	require.NoError(t, err)
	require.Len(t, points, 3)
	require.LessOrEqual(t, points[0].CVaR, points[1].CVaR)
	require.LessOrEqual(t, points[1].CVaR, points[2].CVaR)
	require.False(t, points[0].HasBaseline)
}

func TestCVaRCurveComparesBaseline(t *testing.T) {
	returns := []float64{5, 6, 7, 8, 9}
	baseline := []float64{-5, -4, -3, -2, -1}
	points, err := CVaRCurve(returns, []float64{0.2}, baseline)
	require.NoError(t, err)
	require.True(t, points[0].HasBaseline)
	require.True(t, points[0].RiskAverse)
}

func TestSummarizeTailComputesDescriptiveStats(t *testing.T) {
	returns := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	summary, err := SummarizeTail(returns)
	require.NoError(t, err)
	require.Equal(t, 10, summary.N)
	require.InDelta(t, 5.5, summary.Mean, 1e-9)
	require.Equal(t, 1.0, summary.Min)
	require.Equal(t, 10.0, summary.Max)
}

func TestSummarizeTailRejectsEmpty(t *testing.T) {
	_, err := SummarizeTail(nil)
	require.Error(t, err)
}
