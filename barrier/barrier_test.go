// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package barrier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCircleEvaluate(t *testing.T) {
	c, err := NewCircle(2.0, []float64{0, 0})
	require.NoError(t, err)

	require.InDelta(t, -4.0, c.Evaluate([]float64{0, 0}), 1e-9)
	require.InDelta(t, 0.0, c.Evaluate([]float64{2, 0}), 1e-9)
	require.Greater(t, c.Evaluate([]float64{3, 0}), 0.0)
	require.Less(t, c.Evaluate([]float64{1, 0}), 0.0)
}

func TestCircleGradient(t *testing.T) {
	c, err := NewCircle(1.0, []float64{1, 1})
	require.NoError(t, err)

	grad := c.Gradient([]float64{3, 1})
	require.InDelta(t, 4.0, grad[0], 1e-9)
	require.InDelta(t, 0.0, grad[1], 1e-9)
}

func TestNewCircleRejectsNonPositiveRadius(t *testing.T) {
	_, err := NewCircle(0, []float64{0, 0})
	require.Error(t, err)
	_, err = NewCircle(-1, []float64{0, 0})
	require.Error(t, err)
}
