// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package beliefstate provides a tagged union over the agent's two belief
// representations: a single particle-filter Belief under ordinary
// evidence, or a credal Set once a contradictory (Belnap ⊤) message has
// forced the agent to track an ensemble of extreme posteriors instead.
//
// Keeping this as its own package avoids a cycle: package credal already
// imports package belief, so a combined type cannot live in either one
// without the other importing back.
package beliefstate

import (
	"fmt"

	"github.com/x0rium/robust-semantic-agent/belief"
	"github.com/x0rium/robust-semantic-agent/belnap"
	"github.com/x0rium/robust-semantic-agent/credal"
	"github.com/x0rium/robust-semantic-agent/message"
)

// DomainError reports a boundary-level invalid input to the beliefstate package.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("beliefstate: %s: %s", e.Op, e.Msg)
}

// Like is the agent's belief representation. base is always present and
// keeps receiving observation updates; credal is non-nil once a
// contradictory message has forced a credal-set expansion.
//
// Per the project's decision on the reference source's ambiguous "neutral
// multiplier" behavior (see DESIGN.md, open question 1), the base belief
// is kept as an auxiliary rather than discarded once credal is active:
// Mean always reports the credal lower mean, but base stays coherent with
// incoming observations so a later TRUE/FALSE/NEITHER message has
// somewhere sensible to resume from.
type Like struct {
	base   *belief.Belief
	credal *credal.Set
}

// Plain wraps a single particle-filter belief with no credal set active.
func Plain(b *belief.Belief) Like {
	return Like{base: b}
}

// Credal wraps base together with a credal set already expanded from it.
func Credal(set *credal.Set, base *belief.Belief) Like {
	return Like{base: base, credal: set}
}

// IsCredal reports whether a credal set is currently active.
func (l Like) IsCredal() bool { return l.credal != nil }

// Base returns the underlying belief that keeps receiving observation
// updates regardless of variant.
func (l Like) Base() *belief.Belief { return l.base }

// AsPlain returns the underlying belief and true when no credal set is
// active, or (nil, false) otherwise.
func (l Like) AsPlain() (*belief.Belief, bool) {
	if l.credal == nil && l.base != nil {
		return l.base, true
	}
	return nil, false
}

// AsCredal returns the active credal set and true, or (nil, false) if the
// belief is currently plain.
func (l Like) AsCredal() (*credal.Set, bool) {
	if l.credal != nil {
		return l.credal, true
	}
	return nil, false
}

// CredalK returns the number of posteriors in the active credal set, or 0
// when the belief is plain.
func (l Like) CredalK() int {
	if l.credal == nil {
		return 0
	}
	return l.credal.K()
}

// Mean returns the state estimate for either variant: the particle-filter
// weighted mean when plain, or the conservative lower-expectation mean
// when credal.
func (l Like) Mean() ([]float64, error) {
	if l.credal != nil {
		return l.credal.Mean()
	}
	if l.base != nil {
		return l.base.Mean(), nil
	}
	return nil, &DomainError{Op: "Mean", Msg: "zero-value BeliefLike has no base belief"}
}

// ESS returns the base belief's effective sample size, used to decide
// whether to resample regardless of which variant is active.
func (l Like) ESS() (float64, error) {
	if l.base == nil {
		return 0, &DomainError{Op: "ESS", Msg: "zero-value BeliefLike has no base belief"}
	}
	return l.base.ESS(), nil
}

// Entropy returns the base belief's Shannon entropy, in nats.
func (l Like) Entropy() (float64, error) {
	if l.base == nil {
		return 0, &DomainError{Op: "Entropy", Msg: "zero-value BeliefLike has no base belief"}
	}
	return l.base.Entropy(), nil
}

// ObsUpdate folds an observation into the base belief and, if a credal set
// is active, into every one of its posteriors, so all representations stay
// synchronized with incoming evidence.
func (l Like) ObsUpdate(observation []float64, obsNoise float64) error {
	if l.base == nil {
		return &DomainError{Op: "ObsUpdate", Msg: "zero-value BeliefLike has no base belief"}
	}
	if err := l.base.ObsUpdate(observation, obsNoise); err != nil {
		return err
	}
	if l.credal != nil {
		for _, posterior := range l.credal.Posteriors {
			if err := posterior.ObsUpdate(observation, obsNoise); err != nil {
				return err
			}
		}
	}
	return nil
}

// Resample resamples the base belief and, if active, every credal
// posterior independently.
func (l Like) Resample() error {
	if l.base == nil {
		return &DomainError{Op: "Resample", Msg: "zero-value BeliefLike has no base belief"}
	}
	l.base.Resample()
	if l.credal != nil {
		for _, posterior := range l.credal.Posteriors {
			posterior.Resample()
		}
	}
	return nil
}

// ApplyMessage folds one claim into the belief. A TRUE/FALSE/NEITHER value
// updates the base belief (and every existing credal posterior, if any) in
// place. A BOTH value (re-)expands a fresh credal set of k extreme
// posteriors from the base belief, per lambdaS (spec §4.4); it replaces
// any previously active credal set rather than compounding it.
func (l *Like) ApplyMessage(claim message.Claim, lambdaS float64, k int) error {
	if l.base == nil {
		return &DomainError{Op: "ApplyMessage", Msg: "zero-value BeliefLike has no base belief"}
	}
	if claim.Value == belnap.Both {
		set, err := credal.FromLogitInterval(l.base, claim, lambdaS, k)
		if err != nil {
			return err
		}
		l.credal = set
		return nil
	}
	if err := l.base.ApplyMessage(claim, lambdaS); err != nil {
		return err
	}
	if l.credal != nil {
		for _, posterior := range l.credal.Posteriors {
			if err := posterior.ApplyMessage(claim, lambdaS); err != nil {
				return err
			}
		}
	}
	return nil
}
