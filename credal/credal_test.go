// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package credal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x0rium/robust-semantic-agent/belief"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
	"github.com/x0rium/robust-semantic-agent/message"
)

func newBaseBelief(t *testing.T) *belief.Belief {
	t.Helper()
	b, err := belief.New(200, 2, 0.5, rng.New(7))
	require.NoError(t, err)
	for i, p := range b.Particles {
		p[0] = float64(i%20) - 10
		p[1] = 0
	}
	return b
}

func TestFromLogitIntervalProducesKPosteriors(t *testing.T) {
	base := newBaseBelief(t)
	claim := message.Claim{
		ID:        "forbidden",
		Predicate: message.HalfPlane([]float64{1, 0}, 0),
		Value:     0,
	}

	set, err := FromLogitInterval(base, claim, 1.2, 5)
	require.NoError(t, err)
	require.Equal(t, 5, set.K())
}

func TestLowerExpectationIsMonotone(t *testing.T) {
	base := newBaseBelief(t)
	claim := message.Claim{
		ID:        "forbidden",
		Predicate: message.HalfPlane([]float64{1, 0}, 0),
	}
	set, err := FromLogitInterval(base, claim, 2.0, 5)
	require.NoError(t, err)

	f := func(x []float64) float64 { return x[0] }
	lower, err := set.LowerExpectation(f)
	require.NoError(t, err)

	for _, p := range set.Posteriors {
		weights := p.NormalizedWeights()
		var expected float64
		for i, particle := range p.Particles {
			expected += weights[i] * f(particle)
		}
		require.LessOrEqual(t, lower, expected+1e-9)
	}
}

func TestLowerExpectationRejectsEmptySet(t *testing.T) {
	set := New(nil)
	_, err := set.LowerExpectation(func([]float64) float64 { return 0 })
	require.Error(t, err)
}

func TestMeanAndVarianceDimensions(t *testing.T) {
	base := newBaseBelief(t)
	claim := message.Claim{
		ID:        "forbidden",
		Predicate: message.HalfPlane([]float64{1, 0}, 0),
	}
	set, err := FromLogitInterval(base, claim, 1.5, 3)
	require.NoError(t, err)

	mean, err := set.Mean()
	require.NoError(t, err)
	require.Len(t, mean, 2)

	variance, err := set.UpperVariance()
	require.NoError(t, err)
	require.Len(t, variance, 2)
	for _, v := range variance {
		require.GreaterOrEqual(t, v, 0.0)
	}
}

func TestFromLogitIntervalRejectsNonPositiveK(t *testing.T) {
	base := newBaseBelief(t)
	claim := message.Claim{Predicate: message.HalfPlane([]float64{1, 0}, 0)}
	_, err := FromLogitInterval(base, claim, 1.0, 0)
	require.Error(t, err)
}
