// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package risk implements Conditional Value at Risk (CVaR) over empirical
// and particle-weighted outcome distributions, plus a risk-sensitive
// Bellman backup operator.
package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/x0rium/robust-semantic-agent/belief"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
)

// DomainError reports a boundary-level invalid input to the risk package.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("risk: %s: %s", e.Op, e.Msg)
}

// CVaR computes CVaR@alpha from unweighted empirical samples via
// sort-and-average: the mean of the worst ceil(alpha*n) outcomes, where
// "worst" means lowest value.
func CVaR(values []float64, alpha float64) (float64, error) {
	if len(values) == 0 {
		return 0, &DomainError{Op: "CVaR", Msg: "no samples supplied"}
	}
	if alpha <= 0 || alpha > 1 {
		return 0, &DomainError{Op: "CVaR", Msg: fmt.Sprintf("alpha must be in (0,1], got %v", alpha)}
	}

	n := len(values)
	cutoff := int(math.Ceil(alpha * float64(n)))
	if cutoff < 1 {
		cutoff = 1
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted[:cutoff] {
		sum += v
	}
	return sum / float64(cutoff), nil
}

// CVaRWeighted computes CVaR@alpha from log-weighted particles: the
// weighted average of the tail of worst outcomes whose cumulative weight
// first reaches alpha.
func CVaRWeighted(logWeights, values []float64, alpha float64) (float64, error) {
	if len(logWeights) != len(values) {
		return 0, &DomainError{Op: "CVaRWeighted", Msg: "log_weights and values length mismatch"}
	}
	if len(values) == 0 {
		return 0, &DomainError{Op: "CVaRWeighted", Msg: "no samples supplied"}
	}
	if alpha <= 0 || alpha > 1 {
		return 0, &DomainError{Op: "CVaRWeighted", Msg: fmt.Sprintf("alpha must be in (0,1], got %v", alpha)}
	}

	n := len(values)
	maxLW := logWeights[0]
	for _, lw := range logWeights[1:] {
		if lw > maxLW {
			maxLW = lw
		}
	}
	weights := make([]float64, n)
	var sumW float64
	for i, lw := range logWeights {
		w := math.Exp(lw - maxLW)
		weights[i] = w
		sumW += w
	}
	for i := range weights {
		weights[i] /= sumW
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return values[idx[i]] < values[idx[j]] })

	var cumsum float64
	cutoff := -1
	for rank, i := range idx {
		cumsum += weights[i]
		if cumsum >= alpha {
			cutoff = rank
			break
		}
	}
	if cutoff < 0 {
		cutoff = n - 1
	}

	var tailWeight, tailSum float64
	for rank := 0; rank <= cutoff; rank++ {
		i := idx[rank]
		tailWeight += weights[i]
		tailSum += weights[i] * values[i]
	}

	if tailWeight > 1e-12 {
		return tailSum / tailWeight, nil
	}
	return values[idx[0]], nil
}

// RewardFunc computes the immediate reward for taking action from state.
type RewardFunc func(state, action []float64) float64

// TransitionFunc computes the (deterministic, for backup purposes) next
// state from state and action.
type TransitionFunc func(state, action []float64) []float64

// ValueFunc estimates the value of a state.
type ValueFunc func(state []float64) float64

// Bellman is a risk-aware Bellman operator: T_ρ V(b,u) = CVaR_α(r + γ V(b')).
type Bellman struct {
	Alpha float64
	Gamma float64
}

// NewBellman returns a Bellman operator at the given risk level and
// discount factor.
func NewBellman(alpha, gamma float64) (*Bellman, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, &DomainError{Op: "NewBellman", Msg: fmt.Sprintf("alpha must be in (0,1], got %v", alpha)}
	}
	if gamma < 0 || gamma > 1 {
		return nil, &DomainError{Op: "NewBellman", Msg: fmt.Sprintf("gamma must be in [0,1], got %v", gamma)}
	}
	return &Bellman{Alpha: alpha, Gamma: gamma}, nil
}

// Backup computes the CVaR Bellman backup for a belief-action pair: it
// Monte-Carlo samples nSamples particles from b (respecting particle
// weights), rolls each one step forward through reward/transition/value,
// and returns the CVaR of the resulting returns.
func (rb *Bellman) Backup(
	b *belief.Belief,
	action []float64,
	reward RewardFunc,
	transition TransitionFunc,
	value ValueFunc,
	nSamples int,
	source rng.Source,
) (float64, error) {
	if nSamples <= 0 {
		return 0, &DomainError{Op: "Backup", Msg: fmt.Sprintf("n_samples must be positive, got %d", nSamples)}
	}

	weights := b.NormalizedWeights()
	cumsum := make([]float64, len(weights))
	var running float64
	for i, w := range weights {
		running += w
		cumsum[i] = running
	}

	returns := make([]float64, nSamples)
	for s := 0; s < nSamples; s++ {
		u := source.Float64()
		i := sort.SearchFloat64s(cumsum, u)
		if i >= len(b.Particles) {
			i = len(b.Particles) - 1
		}
		x := b.Particles[i]

		r := reward(x, action)
		xNext := transition(x, action)
		vNext := value(xNext)
		returns[s] = r + rb.Gamma*vNext
	}

	return CVaR(returns, rb.Alpha)
}
