// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package safety implements the CBF-QP safety filter: it projects a
// desired control input onto the control barrier function's safe set by
// solving
//
//	minimize    ||u - u_desired||^2 + slack_penalty * slack
//	subject to  ∇h(x)·u >= -alpha*h(x) - slack,  slack >= 0
//
// The feasible set of this QP is always non-empty (slack absorbs any
// infeasibility), so the only failure mode is a malformed input, not an
// infeasible program.
package safety

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/x0rium/robust-semantic-agent/barrier"
)

// SolverError reports that the QP solve could not produce a usable
// control: the caller must substitute an emergency (zero) action.
type SolverError struct {
	Op  string
	Msg string
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("safety: %s: %s", e.Op, e.Msg)
}

// DomainError reports a boundary-level invalid configuration.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("safety: %s: %s", e.Op, e.Msg)
}

const (
	defaultTolerance = 1e-9
	slackWarnLevel   = 1e-5
)

// Filter is a CBF-QP safety filter with persistent, warm-started solver
// state: the dual variable from one call seeds the next, since consecutive
// states along a trajectory are close together.
type Filter struct {
	Barrier      barrier.Function
	Alpha        float64
	SlackPenalty float64
	MaxIter      int
	Tolerance    float64

	lastMu float64 // warm-start seed for the dual ascent iteration

	// LastSlackWarning is set by the most recent Filter call when the
	// resolved slack exceeded the 1e-5 warn level. Callers (typically the
	// agent loop) can surface this via their own logger.
	LastSlackWarning bool
}

// New returns a CBF-QP filter over the given barrier function. alpha is the
// class-K gain (> 0); slackPenalty weights the cost of relaxing the
// constraint (> 0, larger makes relaxation more expensive); maxIter caps
// the dual-ascent iteration count.
func New(barrierFn barrier.Function, alpha, slackPenalty float64, maxIter int) (*Filter, error) {
	if alpha <= 0 {
		return nil, &DomainError{Op: "New", Msg: fmt.Sprintf("alpha must be positive, got %v", alpha)}
	}
	if slackPenalty <= 0 {
		return nil, &DomainError{Op: "New", Msg: fmt.Sprintf("slack_penalty must be positive, got %v", slackPenalty)}
	}
	if maxIter <= 0 {
		return nil, &DomainError{Op: "New", Msg: fmt.Sprintf("max_iter must be positive, got %d", maxIter)}
	}
	return &Filter{
		Barrier:      barrierFn,
		Alpha:        alpha,
		SlackPenalty: slackPenalty,
		MaxIter:      maxIter,
		Tolerance:    defaultTolerance,
	}, nil
}

// Filter projects uDesired onto the CBF-safe set at state x. It returns the
// safe control and the resolved slack (0 when the constraint was already
// satisfied or satisfiable without relaxation).
//
// On success the returned control is always finite. If the solver hits
// MaxIter before reaching Tolerance, the last dual iterate is still
// returned (optimal-but-inaccurate, matching OSQP's OPTIMAL_INACCURATE
// status) rather than treated as failure. Only a dimension mismatch or a
// non-finite result is reported as a SolverError — callers must fall back
// to an emergency (zero) action in that case.
func (f *Filter) Filter(x, uDesired []float64) ([]float64, float64, error) {
	h := f.Barrier.Evaluate(x)
	grad := f.Barrier.Gradient(x)

	if len(grad) != len(uDesired) {
		return nil, 0, &SolverError{Op: "Filter", Msg: fmt.Sprintf("gradient dim %d != control dim %d", len(grad), len(uDesired))}
	}

	a := mat.NewVecDense(len(grad), grad)
	uDes := mat.NewVecDense(len(uDesired), uDesired)

	rhs := -f.Alpha * h
	aDotUDes := mat.Dot(a, uDes)
	d := rhs - aDotUDes

	f.LastSlackWarning = false

	if d <= 0 {
		f.lastMu = 0
		return append([]float64(nil), uDesired...), 0, nil
	}

	aNormSq := mat.Dot(a, a)
	if aNormSq < 1e-12 {
		// The barrier gradient vanishes: no control can influence h here,
		// so the entire correction must be absorbed by slack.
		f.lastMu = 0
		if d > slackWarnLevel {
			f.LastSlackWarning = true
		}
		return append([]float64(nil), uDesired...), d, nil
	}

	mu := clamp(f.lastMu, 0, f.SlackPenalty)
	for iter := 0; iter < f.MaxIter; iter++ {
		dualGrad := d - 0.5*mu*aNormSq
		if math.Abs(dualGrad) < f.Tolerance {
			break
		}
		mu = clamp(0.5*mu+d/aNormSq, 0, f.SlackPenalty)
	}
	f.lastMu = mu

	uSafe := make([]float64, len(uDesired))
	for i := range uSafe {
		uSafe[i] = uDesired[i] + (mu/2)*grad[i]
	}
	uSafeVec := mat.NewVecDense(len(uSafe), uSafe)
	slack := rhs - mat.Dot(a, uSafeVec)
	if slack < 0 {
		slack = 0
	}

	for _, v := range uSafe {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, &SolverError{Op: "Filter", Msg: "solver produced a non-finite control"}
		}
	}

	if slack > slackWarnLevel {
		f.LastSlackWarning = true
	}

	return uSafe, slack, nil
}

// EmergencyAction returns the zero-control fallback for dim control
// dimensions, for callers to substitute when Filter returns a SolverError.
func EmergencyAction(dim int) []float64 {
	return make([]float64, dim)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
