// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package trust tracks per-source reliability with a Beta-Bernoulli model:
// every confirmed or refuted claim from a source nudges its (alpha, beta)
// pseudo-counts, and the resulting reliability feeds the credal-set spread
// assigned to that source's claims.
package trust

import (
	"fmt"
	"math"
)

const (
	// defaultAlpha and defaultBeta seed a source as reliable-but-uncertain:
	// a 0.7 prior mean with modest concentration.
	defaultAlpha = 7.0
	defaultBeta  = 3.0

	logitClip = 1e-6
)

// DomainError reports a boundary-level invalid input to the trust package.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("trust: %s: %s", e.Op, e.Msg)
}

// SourceTrust holds one source's Beta-Bernoulli reliability state.
type SourceTrust struct {
	SourceID string
	Alpha    float64
	Beta     float64
}

// New returns a SourceTrust seeded at the default prior.
func New(sourceID string) *SourceTrust {
	return &SourceTrust{SourceID: sourceID, Alpha: defaultAlpha, Beta: defaultBeta}
}

// NewWithPrior returns a SourceTrust seeded with an explicit (alpha, beta)
// prior; both must be strictly positive.
func NewWithPrior(sourceID string, alpha, beta float64) (*SourceTrust, error) {
	if alpha <= 0 || beta <= 0 {
		return nil, &DomainError{Op: "NewWithPrior", Msg: fmt.Sprintf("prior must be positive, got alpha=%v beta=%v", alpha, beta)}
	}
	return &SourceTrust{SourceID: sourceID, Alpha: alpha, Beta: beta}, nil
}

// Reliability returns r_s = alpha / (alpha + beta), the posterior mean of
// the source's Beta reliability distribution.
func (t *SourceTrust) Reliability() float64 {
	return t.Alpha / (t.Alpha + t.Beta)
}

// Logit returns log(r_s / (1 - r_s)), with r_s clipped to
// [1e-6, 1-1e-6] so the logit stays finite at the extremes.
func (t *SourceTrust) Logit() float64 {
	r := t.Reliability()
	if r < logitClip {
		r = logitClip
	}
	if r > 1-logitClip {
		r = 1 - logitClip
	}
	return math.Log(r / (1 - r))
}

// Update folds one observation into the reliability posterior: a success
// increments alpha by weight, a failure increments beta by weight. weight
// must be strictly positive — it represents the credibility of the
// confirming/refuting evidence, not an observation count of zero or less.
func (t *SourceTrust) Update(success bool, weight float64) error {
	if weight <= 0 {
		return &DomainError{Op: "Update", Msg: fmt.Sprintf("weight must be positive, got %v", weight)}
	}
	if success {
		t.Alpha += weight
	} else {
		t.Beta += weight
	}
	return nil
}
