// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package belnap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var allValues = []Value{Neither, True, False, Both}

func TestAlgebraicLaws(t *testing.T) {
	t.Run("commutativity", func(t *testing.T) {
		for _, x := range allValues {
			for _, y := range allValues {
				require.Equal(t, AndT(x, y), AndT(y, x))
				require.Equal(t, OrT(x, y), OrT(y, x))
				require.Equal(t, Consensus(x, y), Consensus(y, x))
				require.Equal(t, Gullibility(x, y), Gullibility(y, x))
			}
		}
	})

	t.Run("associativity", func(t *testing.T) {
		for _, x := range allValues {
			for _, y := range allValues {
				for _, z := range allValues {
					require.Equal(t, AndT(x, AndT(y, z)), AndT(AndT(x, y), z))
					require.Equal(t, OrT(x, OrT(y, z)), OrT(OrT(x, y), z))
				}
			}
		}
	})

	t.Run("absorption", func(t *testing.T) {
		for _, x := range allValues {
			for _, y := range allValues {
				require.Equal(t, x, AndT(x, OrT(x, y)))
				require.Equal(t, x, OrT(x, AndT(x, y)))
			}
		}
	})

	t.Run("involution", func(t *testing.T) {
		for _, x := range allValues {
			require.Equal(t, x, Not(Not(x)))
		}
	})

	t.Run("de morgan", func(t *testing.T) {
		for _, x := range allValues {
			for _, y := range allValues {
				require.Equal(t, Not(AndT(x, y)), OrT(Not(x), Not(y)))
				require.Equal(t, Not(OrT(x, y)), AndT(Not(x), Not(y)))
			}
		}
	})

	t.Run("identities", func(t *testing.T) {
		for _, x := range allValues {
			require.Equal(t, x, AndT(x, True))
			require.Equal(t, x, OrT(x, False))
			require.Equal(t, x, Consensus(x, Both))
		}
	})
}

func TestStatusAssignment(t *testing.T) {
	cases := []struct {
		name           string
		sC, sBarC      float64
		want           Value
	}{
		{"true", 0.9, 0.1, True},
		{"false", 0.1, 0.9, False},
		{"both", 0.9, 0.9, Both},
		{"neither", 0.5, 0.5, Neither},
		{"tie at tau is true", 0.68, 0.0, True},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Status(c.sC, c.sBarC, 0.68, 0.32)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestStatusDomainErrors(t *testing.T) {
	_, err := Status(1.5, 0.1, 0.68, 0.32)
	require.Error(t, err)

	_, err = Status(0.1, -0.2, 0.68, 0.32)
	require.Error(t, err)
}
