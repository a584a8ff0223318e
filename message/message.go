// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package message defines claims asserted against the agent's belief: a
// claim pairs a predicate over the state space with the Belnap value a
// source assigns to it, and a message adds the id of the reporting source,
// which the agent uses to look up that source's trust.
package message

import "github.com/x0rium/robust-semantic-agent/belnap"

// Predicate is a boxed test over a particle state vector. Predicates are
// kept as plain functions rather than an interface hierarchy; belief.Belief
// calls them directly on each particle.
type Predicate func(state []float64) bool

// HalfPlane returns a predicate true when normal·state <= offset, i.e. the
// state lies on the negative side of the hyperplane normal·x = offset.
func HalfPlane(normal []float64, offset float64) Predicate {
	n := append([]float64(nil), normal...)
	return func(state []float64) bool {
		var dot float64
		for i, v := range n {
			if i < len(state) {
				dot += v * state[i]
			}
		}
		return dot <= offset
	}
}

// DistanceThreshold returns a predicate true when state is within radius of
// center (Euclidean distance, using the leading len(center) dimensions).
func DistanceThreshold(center []float64, radius float64) Predicate {
	c := append([]float64(nil), center...)
	return func(state []float64) bool {
		var sumSq float64
		for i, v := range c {
			if i < len(state) {
				d := state[i] - v
				sumSq += d * d
			}
		}
		return sumSq <= radius*radius
	}
}

// Conjunction returns a predicate true when all of preds are true.
func Conjunction(preds ...Predicate) Predicate {
	return func(state []float64) bool {
		for _, p := range preds {
			if !p(state) {
				return false
			}
		}
		return true
	}
}

// Claim is a single assertion about the state space: "predicate holds",
// tagged with the Belnap value a source assigned to it.
type Claim struct {
	ID        string
	Predicate Predicate
	Value     belnap.Value
}

// Message is one Claim as reported by a specific source.
type Message struct {
	Claim    Claim
	SourceID string
}
