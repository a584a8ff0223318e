// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package beliefstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x0rium/robust-semantic-agent/belief"
	"github.com/x0rium/robust-semantic-agent/credal"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
	"github.com/x0rium/robust-semantic-agent/message"
)

func TestPlainMeanMatchesBelief(t *testing.T) {
	b, err := belief.New(50, 2, 0.5, rng.New(1))
	require.NoError(t, err)
	for i, p := range b.Particles {
		p[0] = float64(i)
		p[1] = 1.0
	}

	like := Plain(b)
	require.False(t, like.IsCredal())

	mean, err := like.Mean()
	require.NoError(t, err)
	require.Equal(t, b.Mean(), mean)
}

func TestCredalMeanUsesLowerExpectation(t *testing.T) {
	b, err := belief.New(50, 2, 0.5, rng.New(1))
	require.NoError(t, err)
	for i, p := range b.Particles {
		p[0] = float64(i%10) - 5
		p[1] = 0
	}

	claim := message.Claim{Predicate: message.HalfPlane([]float64{1, 0}, 0)}
	set, err := credal.FromLogitInterval(b, claim, 1.0, 3)
	require.NoError(t, err)

	like := Credal(set, b)
	require.True(t, like.IsCredal())
	require.Equal(t, 3, like.CredalK())

	mean, err := like.Mean()
	require.NoError(t, err)
	require.Len(t, mean, 2)

	lower, err := set.Mean()
	require.NoError(t, err)
	require.Equal(t, lower, mean)
}

func TestObsUpdateSynchronizesCredalPosteriors(t *testing.T) {
	b, err := belief.New(50, 2, 0.5, rng.New(1))
	require.NoError(t, err)
	for i, p := range b.Particles {
		p[0] = float64(i%10) - 5
		p[1] = 0
	}

	claim := message.Claim{Predicate: message.HalfPlane([]float64{1, 0}, 0)}
	set, err := credal.FromLogitInterval(b, claim, 1.0, 3)
	require.NoError(t, err)

	before := make([][]float64, len(set.Posteriors))
	for k, p := range set.Posteriors {
		before[k] = append([]float64(nil), p.LogWeights...)
	}

	like := Credal(set, b)
	require.NoError(t, like.ObsUpdate([]float64{0.1, 0.2}, 0.1))

	for k, p := range set.Posteriors {
		require.NotEqual(t, before[k], p.LogWeights)
	}
}

func TestZeroValueMeanErrors(t *testing.T) {
	var like Like
	_, err := like.Mean()
	require.Error(t, err)
}
