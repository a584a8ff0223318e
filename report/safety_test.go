// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package report

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x0rium/robust-semantic-agent/episode"
)

func TestSummarizeSafetyComputesRates(t *testing.T) {
	ep1 := episode.New(1, "hash")
	ep1.AddStep([]float64{0, 0}, []float64{0, 0}, []float64{0, 0}, 0, map[string]interface{}{"filter_active": true})
	ep1.AddStep([]float64{0, 0}, []float64{0, 0}, []float64{0, 0}, 0, map[string]interface{}{"violated_safety": true})

	ep2 := episode.New(2, "hash")
	ep2.AddStep([]float64{0, 0}, []float64{0, 0}, []float64{0, 0}, 0, nil)

	summary := SummarizeSafety([]*episode.Episode{ep1, ep2})
	require.Equal(t, 3, summary.TotalSteps)
	require.Equal(t, 1, summary.Violations)
	require.Equal(t, 1, summary.FilterActivations)
	require.Equal(t, 1, summary.EpisodesWithViolations)
	require.False(t, summary.ZeroViolations)
	require.InDelta(t, 1.0/3.0, summary.ViolationRate, 1e-9)
}

func TestSummarizeSafetyZeroViolationsWhenClean(t *testing.T) {
	ep := episode.New(1, "hash")
	for i := 0; i < 5; i++ {
		ep.AddStep([]float64{0, 0}, []float64{0, 0}, []float64{0, 0}, 0, map[string]interface{}{"filter_active": i == 0})
	}
	summary := SummarizeSafety([]*episode.Episode{ep})
	require.True(t, summary.ZeroViolations)
	require.InDelta(t, 0.2, summary.FilterActivationRate, 1e-9)
	require.True(t, summary.FilterActivationAboveFloor)
}
