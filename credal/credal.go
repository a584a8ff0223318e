// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package credal implements imprecise-probability credal sets: when a
// source's claim contradicts itself (Belnap value ⊤), the agent can no
// longer commit to one posterior belief, so it maintains an ensemble of K
// extreme posteriors and makes decisions from their lower expectation.
package credal

import (
	"fmt"

	"github.com/x0rium/robust-semantic-agent/belief"
	"github.com/x0rium/robust-semantic-agent/message"
)

// DomainError reports a boundary-level invalid input to the credal package.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("credal: %s: %s", e.Op, e.Msg)
}

// Set is an ensemble of K extreme posterior beliefs Γ = {β_1, ..., β_K}.
type Set struct {
	Posteriors []*belief.Belief
}

// New returns a credal Set wrapping the given posteriors.
func New(posteriors []*belief.Belief) *Set {
	return &Set{Posteriors: append([]*belief.Belief(nil), posteriors...)}
}

// K returns the number of posteriors in the set.
func (s *Set) K() int { return len(s.Posteriors) }

// AddPosterior appends a posterior belief to the set.
func (s *Set) AddPosterior(b *belief.Belief) {
	s.Posteriors = append(s.Posteriors, b)
}

// LowerExpectation computes 𝔼_[f] = min_{P ∈ Γ} 𝔼_P[f(x)], the worst-case
// expected value of f across all extreme posteriors. This is the quantity
// decision-making should use under contradictory evidence: it guarantees
// 𝔼_[f] ≤ 𝔼_P[f] for every P ∈ Γ (the monotonicity invariant).
func (s *Set) LowerExpectation(f func(state []float64) float64) (float64, error) {
	if len(s.Posteriors) == 0 {
		return 0, &DomainError{Op: "LowerExpectation", Msg: "empty credal set"}
	}

	lowest := 0.0
	for k, p := range s.Posteriors {
		expected := expectationUnder(p, f)
		if k == 0 || expected < lowest {
			lowest = expected
		}
	}
	return lowest, nil
}

func expectationUnder(b *belief.Belief, f func([]float64) float64) float64 {
	weights := b.NormalizedWeights()
	var expected float64
	for i, p := range b.Particles {
		expected += weights[i] * f(p)
	}
	return expected
}

// Mean returns the conservative mean estimate: for each dimension d,
// 𝔼_[x_d] = min_P 𝔼_P[x_d]. This can be pessimistic by construction; it is
// the credal-set analogue of Belief.Mean.
func (s *Set) Mean() ([]float64, error) {
	if len(s.Posteriors) == 0 {
		return nil, &DomainError{Op: "Mean", Msg: "empty credal set"}
	}
	stateDim := s.Posteriors[0].StateDim
	mean := make([]float64, stateDim)
	for d := 0; d < stateDim; d++ {
		dim := d
		lower, err := s.LowerExpectation(func(x []float64) float64 { return x[dim] })
		if err != nil {
			return nil, err
		}
		mean[d] = lower
	}
	return mean, nil
}

// UpperVariance returns the conservative (maximum-across-posteriors)
// variance per dimension: var̄_d = max_P Var_P[x_d].
func (s *Set) UpperVariance() ([]float64, error) {
	if len(s.Posteriors) == 0 {
		return nil, &DomainError{Op: "UpperVariance", Msg: "empty credal set"}
	}
	stateDim := s.Posteriors[0].StateDim
	maxVar := make([]float64, stateDim)

	for k, p := range s.Posteriors {
		weights := p.NormalizedWeights()
		mean := make([]float64, stateDim)
		for i, particle := range p.Particles {
			for d, v := range particle {
				mean[d] += weights[i] * v
			}
		}
		variance := make([]float64, stateDim)
		for i, particle := range p.Particles {
			for d, v := range particle {
				diff := v - mean[d]
				variance[d] += weights[i] * diff * diff
			}
		}
		for d := range variance {
			if k == 0 || variance[d] > maxVar[d] {
				maxVar[d] = variance[d]
			}
		}
	}
	return maxVar, nil
}

// FromLogitInterval builds a credal set of K extreme posteriors spanning
// the logit interval [-lambdaS, +lambdaS], evenly spaced, per a
// contradictory (Belnap ⊤) claim. Each posterior β_k applies the log
// multiplier +λ_k where the claim holds and -λ_k where it does not.
func FromLogitInterval(base *belief.Belief, claim message.Claim, lambdaS float64, k int) (*Set, error) {
	if k <= 0 {
		return nil, &DomainError{Op: "FromLogitInterval", Msg: fmt.Sprintf("K must be positive, got %d", k)}
	}

	posteriors := make([]*belief.Belief, 0, k)
	for i := 0; i < k; i++ {
		var logitValue float64
		if k == 1 {
			logitValue = 0.0
		} else {
			logitValue = -lambdaS + (2*lambdaS*float64(i))/float64(k-1)
		}

		posterior := base.Clone()
		for p, particle := range posterior.Particles {
			if claim.Predicate(particle) {
				posterior.LogWeights[p] += logitValue
			} else {
				posterior.LogWeights[p] -= logitValue
			}
		}
		posterior.NormalizeLogWeights()
		posteriors = append(posteriors, posterior)
	}

	return New(posteriors), nil
}
