// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package belief

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x0rium/robust-semantic-agent/belnap"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
	"github.com/x0rium/robust-semantic-agent/message"
)

func newTestBelief(t *testing.T, n int) *Belief {
	t.Helper()
	b, err := New(n, 2, 0.5, rng.New(1))
	require.NoError(t, err)
	return b
}

func TestNewValidatesBounds(t *testing.T) {
	_, err := New(0, 2, 0.5, rng.New(1))
	require.Error(t, err)

	_, err = New(100, 0, 0.5, rng.New(1))
	require.Error(t, err)

	_, err = New(100, 2, 0.05, rng.New(1))
	require.Error(t, err)

	_, err = New(100, 2, 0.95, rng.New(1))
	require.Error(t, err)
}

func TestWeightsSumToOne(t *testing.T) {
	b := newTestBelief(t, 500)
	require.NoError(t, b.ObsUpdate([]float64{1, 1}, 0.5))

	weights := b.NormalizedWeights()
	var sum float64
	for _, w := range weights {
		sum += w
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestObsUpdateConcentratesWeight(t *testing.T) {
	b := newTestBelief(t, 200)
	for i, p := range b.Particles {
		p[0] = float64(i%20) - 10
		p[1] = 0
	}
	require.NoError(t, b.ObsUpdate([]float64{0, 0}, 1.0))

	before := b.ESS()
	require.Less(t, before, float64(b.NParticles))
}

func TestResampleRestoresUniformWeights(t *testing.T) {
	b := newTestBelief(t, 300)
	require.NoError(t, b.ObsUpdate([]float64{5, 5}, 0.2))
	b.Resample()

	want := -math.Log(float64(b.NParticles))
	for _, lw := range b.LogWeights {
		require.InDelta(t, want, lw, 1e-12)
	}
}

func TestESSBoundedByN(t *testing.T) {
	b := newTestBelief(t, 400)
	ess := b.ESS()
	require.GreaterOrEqual(t, ess, 1.0)
	require.LessOrEqual(t, ess, float64(b.NParticles)+1e-6)
}

func TestApplyMessageNeitherIsNoOp(t *testing.T) {
	b := newTestBelief(t, 50)
	before := append([]float64(nil), b.LogWeights...)

	claim := message.Claim{
		ID:        "c1",
		Predicate: message.DistanceThreshold([]float64{0, 0}, 1),
		Value:     belnap.Neither,
	}
	require.NoError(t, b.ApplyMessage(claim, 1.5))

	for i := range before {
		require.InDelta(t, before[i], b.LogWeights[i], 1e-12)
	}
}

func TestEntropyNonNegative(t *testing.T) {
	b := newTestBelief(t, 100)
	require.GreaterOrEqual(t, b.Entropy(), 0.0)
}

func TestCovarianceIsSymmetric(t *testing.T) {
	b := newTestBelief(t, 150)
	for i, p := range b.Particles {
		p[0] = float64(i % 7)
		p[1] = float64(i % 5)
	}
	cov := b.Covariance()
	for r := range cov {
		for c := range cov[r] {
			require.InDelta(t, cov[r][c], cov[c][r], 1e-9)
		}
	}
}
