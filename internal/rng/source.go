// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rng provides the agent's owned, seedable random source.
//
// Every stochastic step in the system (resampling, jitter, EVI sampling,
// query synthesis) draws from one Source per agent; there is no hidden
// global generator, so runs are reproducible under a fixed seed.
package rng

import (
	"math/rand"

	"gonum.org/v1/gonum/mathext/prng"
)

// Source is a source of uniform and Gaussian randomness. It is intentionally
// narrow: callers build distributions (Gaussian jitter, categorical sampling)
// on top of it rather than reaching for math/rand globally.
type Source interface {
	Uint64() uint64
	Seed(seed uint64)
	Float64() float64
	NormFloat64() float64
	Intn(n int) int
}

// mt19937Source wraps gonum's Mersenne Twister the same way a sampler.Source
// wraps it for consensus sampling: a small adapter exposing exactly the
// primitives callers need.
type mt19937Source struct {
	mt *prng.MT19937
	// rand.Rand built on top of the MT19937 gives us Float64/NormFloat64/Intn
	// without reimplementing Box-Muller and rejection sampling by hand.
	r *rand.Rand
}

// New returns a new deterministic Source seeded with seed.
func New(seed int64) Source {
	mt := prng.NewMT19937()
	mt.Seed(uint64(seed))
	return &mt19937Source{
		mt: mt,
		r:  rand.New(mt19937RandSource{mt}),
	}
}

func (s *mt19937Source) Uint64() uint64 { return s.mt.Uint64() }

// Seed reseeds the underlying generator. It exists so Source satisfies
// golang.org/x/exp/rand.Source, letting gonum/stat/distuv distributions
// draw directly from a Source without an adapter type.
func (s *mt19937Source) Seed(seed uint64) { s.mt.Seed(seed) }

func (s *mt19937Source) Float64() float64 { return s.r.Float64() }

func (s *mt19937Source) NormFloat64() float64 { return s.r.NormFloat64() }

func (s *mt19937Source) Intn(n int) int { return s.r.Intn(n) }

// mt19937RandSource adapts *prng.MT19937 to the rand.Source64 interface so
// math/rand's distribution helpers (NormFloat64, Float64) can ride on top
// of the same underlying stream as direct Uint64 callers.
type mt19937RandSource struct {
	mt *prng.MT19937
}

func (s mt19937RandSource) Int63() int64 { return int64(s.mt.Uint64() >> 1) }

func (s mt19937RandSource) Seed(seed int64) { s.mt.Seed(uint64(seed)) }

func (s mt19937RandSource) Uint64() uint64 { return s.mt.Uint64() }
