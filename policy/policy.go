// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package policy selects control actions from the agent's current belief
// state, plain or credal.
package policy

import (
	"fmt"
	"math"

	"github.com/x0rium/robust-semantic-agent/beliefstate"
)

// DomainError reports a boundary-level invalid input to the policy package.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("policy: %s: %s", e.Op, e.Msg)
}

// Policy selects a control action from the current belief state.
type Policy interface {
	SelectAction(b beliefstate.Like) ([]float64, error)
}

const zeroActionEpsilon = 1e-6

// Proportional is a goal-seeking policy: it steers from the belief's state
// estimate toward Goal at a fixed Gain, normalizing direction so action
// magnitude never exceeds Gain. When the belief is a credal set (following
// a contradictory message), it steers conservatively from the set's
// lower-expectation mean rather than an average-case estimate.
type Proportional struct {
	Goal []float64
	Gain float64
}

// NewProportional returns a proportional policy; gain must be positive.
func NewProportional(goal []float64, gain float64) (*Proportional, error) {
	if gain <= 0 {
		return nil, &DomainError{Op: "NewProportional", Msg: fmt.Sprintf("gain must be positive, got %v", gain)}
	}
	return &Proportional{Goal: append([]float64(nil), goal...), Gain: gain}, nil
}

// SelectAction returns Gain * (Goal - estimate) / ||Goal - estimate||, or
// the zero vector if the estimate is already within zeroActionEpsilon of
// the goal.
func (p *Proportional) SelectAction(b beliefstate.Like) ([]float64, error) {
	estimate, err := b.Mean()
	if err != nil {
		return nil, err
	}
	if len(estimate) != len(p.Goal) {
		return nil, &DomainError{Op: "SelectAction", Msg: fmt.Sprintf("estimate dim %d != goal dim %d", len(estimate), len(p.Goal))}
	}

	direction := make([]float64, len(p.Goal))
	var sumSq float64
	for i := range direction {
		direction[i] = p.Goal[i] - estimate[i]
		sumSq += direction[i] * direction[i]
	}
	distance := math.Sqrt(sumSq)

	if distance < zeroActionEpsilon {
		return make([]float64, len(p.Goal)), nil
	}

	action := make([]float64, len(p.Goal))
	for i := range action {
		action[i] = p.Gain * direction[i] / distance
	}
	return action, nil
}
