// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	s := New("src-1")
	require.InDelta(t, 0.7, s.Reliability(), 1e-9)
}

func TestUpdateIncreasesReliabilityOnSuccess(t *testing.T) {
	s := New("src-1")
	before := s.Reliability()
	require.NoError(t, s.Update(true, 1.0))
	require.Greater(t, s.Reliability(), before)
}

func TestUpdateDecreasesReliabilityOnFailure(t *testing.T) {
	s := New("src-1")
	before := s.Reliability()
	require.NoError(t, s.Update(false, 1.0))
	require.Less(t, s.Reliability(), before)
}

func TestUpdateRejectsNonPositiveWeight(t *testing.T) {
	s := New("src-1")
	require.Error(t, s.Update(true, 0))
	require.Error(t, s.Update(true, -1))
}

func TestLogitMonotoneInReliability(t *testing.T) {
	low, err := NewWithPrior("a", 1, 99)
	require.NoError(t, err)
	high, err := NewWithPrior("b", 99, 1)
	require.NoError(t, err)
	require.Less(t, low.Logit(), high.Logit())
}

func TestLogitFiniteAtExtremes(t *testing.T) {
	s, err := NewWithPrior("extreme", 1e9, 1)
	require.NoError(t, err)
	require.False(t, math.IsInf(s.Logit(), 0))
	require.False(t, math.IsNaN(s.Logit()))
}

func TestNewWithPriorRejectsNonPositive(t *testing.T) {
	_, err := NewWithPrior("bad", 0, 1)
	require.Error(t, err)
	_, err = NewWithPrior("bad", 1, -1)
	require.Error(t, err)
}
