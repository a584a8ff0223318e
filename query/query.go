// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package query implements active information acquisition: deciding
// whether the agent should pay a cost to request an extra, lower-noise
// observation, based on the Expected Value of Information (EVI) it would
// bring.
package query

import (
	"fmt"
	"sort"

	"github.com/x0rium/robust-semantic-agent/belief"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
)

// DomainError reports a boundary-level invalid input to the query package.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("query: %s: %s", e.Op, e.Msg)
}

// ValueFunc scores a belief; higher is better.
type ValueFunc func(b *belief.Belief) float64

// EVI computes the Expected Value of Information:
//
//	EVI = 𝔼_o[V(β_post(o))] - V(β)
//
// It samples nSamples potential observations from b's current particle
// cloud (each perturbed by obsNoise), forms the posterior belief for each,
// scores it with valueFn, and compares the average to the current value.
// A positive EVI means the agent expects the extra observation to help.
func EVI(b *belief.Belief, valueFn ValueFunc, obsNoise float64, nSamples int, source rng.Source) (float64, error) {
	if obsNoise <= 0 {
		return 0, &DomainError{Op: "EVI", Msg: fmt.Sprintf("obs_noise must be positive, got %v", obsNoise)}
	}
	if nSamples <= 0 {
		return 0, &DomainError{Op: "EVI", Msg: fmt.Sprintf("n_samples must be positive, got %d", nSamples)}
	}

	vCurrent := valueFn(b)

	weights := b.NormalizedWeights()
	cumsum := make([]float64, len(weights))
	var running float64
	for i, w := range weights {
		running += w
		cumsum[i] = running
	}

	var sumPost float64
	for s := 0; s < nSamples; s++ {
		u := source.Float64()
		idx := sort.SearchFloat64s(cumsum, u)
		if idx >= len(b.Particles) {
			idx = len(b.Particles) - 1
		}
		sampled := b.Particles[idx]

		obs := make([]float64, b.StateDim)
		for d := range obs {
			obs[d] = sampled[d] + source.NormFloat64()*obsNoise
		}

		posterior := b.Clone()
		if err := posterior.ObsUpdate(obs, obsNoise); err != nil {
			return 0, err
		}
		sumPost += valueFn(posterior)
	}

	vExpectedPost := sumPost / float64(nSamples)
	return vExpectedPost - vCurrent, nil
}

// ShouldQuery reports whether the query action should trigger: EVI >=
// deltaStar, the minimum expected-regret-reduction threshold.
func ShouldQuery(eviValue, deltaStar float64) bool {
	return eviValue >= deltaStar
}

// ComputeObservation returns a noisy observation of the true state, as
// produced by a query action. Query observations typically use a lower
// obsNoise than standard observations, trading query cost for precision.
func ComputeObservation(trueState []float64, obsNoise float64, source rng.Source) []float64 {
	obs := make([]float64, len(trueState))
	for i, v := range trueState {
		obs[i] = v + source.NormFloat64()*obsNoise
	}
	return obs
}
