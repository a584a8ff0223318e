// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package belief implements particle-filter belief tracking: a weighted
// particle cloud updated in log-space by observations and messages, with
// systematic resampling to control degeneracy.
package belief

import (
	"fmt"
	"math"

	"github.com/x0rium/robust-semantic-agent/belnap"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
	"github.com/x0rium/robust-semantic-agent/message"
)

// DomainError reports a boundary-level invalid input to the belief package.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("belief: %s: %s", e.Op, e.Msg)
}

const resampleJitterStd = 0.01

// Belief is a particle-filter representation of β(x): an (N, stateDim)
// particle cloud with associated log-weights, normalized via log-sum-exp.
type Belief struct {
	Particles         [][]float64
	LogWeights        []float64
	NParticles        int
	StateDim          int
	ResampleThreshold float64

	rng rng.Source
}

// New returns a Belief with nParticles particles of dimension stateDim, all
// initialized to the origin with uniform weight. resampleThreshold is the
// ESS fraction of N below which the caller should resample.
func New(nParticles, stateDim int, resampleThreshold float64, source rng.Source) (*Belief, error) {
	if nParticles <= 0 {
		return nil, &DomainError{Op: "New", Msg: fmt.Sprintf("n_particles must be positive, got %d", nParticles)}
	}
	if stateDim <= 0 {
		return nil, &DomainError{Op: "New", Msg: fmt.Sprintf("state_dim must be positive, got %d", stateDim)}
	}
	if resampleThreshold < 0.1 || resampleThreshold > 0.9 {
		return nil, &DomainError{Op: "New", Msg: fmt.Sprintf("resample_threshold must be in [0.1, 0.9], got %v", resampleThreshold)}
	}

	particles := make([][]float64, nParticles)
	for i := range particles {
		particles[i] = make([]float64, stateDim)
	}
	logWeights := make([]float64, nParticles)
	uniform := -math.Log(float64(nParticles))
	for i := range logWeights {
		logWeights[i] = uniform
	}

	return &Belief{
		Particles:         particles,
		LogWeights:        logWeights,
		NParticles:        nParticles,
		StateDim:          stateDim,
		ResampleThreshold: resampleThreshold,
		rng:               source,
	}, nil
}

// Clone returns a deep copy of b, sharing the same RNG source.
func (b *Belief) Clone() *Belief {
	particles := make([][]float64, len(b.Particles))
	for i, p := range b.Particles {
		particles[i] = append([]float64(nil), p...)
	}
	return &Belief{
		Particles:         particles,
		LogWeights:        append([]float64(nil), b.LogWeights...),
		NParticles:        b.NParticles,
		StateDim:          b.StateDim,
		ResampleThreshold: b.ResampleThreshold,
		rng:               b.rng,
	}
}

// ObsUpdate reweights particles by the Gaussian observation likelihood
// G(o|x) = N(o; x, obsNoise^2), summed across dimensions in log-space.
func (b *Belief) ObsUpdate(observation []float64, obsNoise float64) error {
	if len(observation) != b.StateDim {
		return &DomainError{Op: "ObsUpdate", Msg: fmt.Sprintf("observation dim %d != state_dim %d", len(observation), b.StateDim)}
	}
	if obsNoise <= 0 {
		return &DomainError{Op: "ObsUpdate", Msg: fmt.Sprintf("obs_noise must be positive, got %v", obsNoise)}
	}

	logTwoPi := math.Log(2 * math.Pi)
	for i, particle := range b.Particles {
		var logLik float64
		for d, o := range observation {
			diff := o - particle[d]
			logLik += -0.5*logTwoPi - math.Log(obsNoise) - 0.5*(diff*diff)/(obsNoise*obsNoise)
		}
		b.LogWeights[i] += logLik
	}
	b.NormalizeLogWeights()
	return nil
}

// ApplyMessage folds a claim's soft-likelihood multiplier into the belief:
//
//	TRUE:    +λ_s where the claim holds, -λ_s elsewhere
//	FALSE:   -λ_s where the claim holds, +λ_s elsewhere
//	NEITHER: no-op
//	BOTH:    neutral on the base belief; the caller is responsible for
//	         expanding a credal set from lambdaS (see package credal)
//
// lambdaS is the asserting source's trust logit.
func (b *Belief) ApplyMessage(claim message.Claim, lambdaS float64) error {
	switch claim.Value {
	case belnap.True:
		for i, p := range b.Particles {
			if claim.Predicate(p) {
				b.LogWeights[i] += lambdaS
			} else {
				b.LogWeights[i] -= lambdaS
			}
		}
	case belnap.False:
		for i, p := range b.Particles {
			if claim.Predicate(p) {
				b.LogWeights[i] -= lambdaS
			} else {
				b.LogWeights[i] += lambdaS
			}
		}
	case belnap.Neither:
		// no-op: no information to incorporate
	case belnap.Both:
		// Contradiction handling (credal expansion) lives one layer up, in
		// the agent loop, which has access to the credal package without
		// creating an import cycle back into belief.
	default:
		return &DomainError{Op: "ApplyMessage", Msg: "unrecognized claim value"}
	}
	b.NormalizeLogWeights()
	return nil
}

// Resample performs low-variance systematic resampling and resets weights
// to uniform, then adds small Gaussian jitter to preserve particle
// diversity.
func (b *Belief) Resample() {
	weights := b.NormalizedWeights()

	cumsum := make([]float64, len(weights))
	var running float64
	for i, w := range weights {
		running += w
		cumsum[i] = running
	}

	u0 := b.rng.Float64()
	n := b.NParticles
	newParticles := make([][]float64, n)

	j := 0
	for i := 0; i < n; i++ {
		position := (float64(i) + u0) / float64(n)
		for j < len(cumsum)-1 && cumsum[j] < position {
			j++
		}
		newParticles[i] = append([]float64(nil), b.Particles[j]...)
	}

	uniform := -math.Log(float64(n))
	for i := range b.LogWeights {
		b.LogWeights[i] = uniform
		for d := range newParticles[i] {
			newParticles[i][d] += b.rng.NormFloat64() * resampleJitterStd
		}
	}
	b.Particles = newParticles
}

// ESS returns the effective sample size 1 / Σw_i².
func (b *Belief) ESS() float64 {
	weights := b.NormalizedWeights()
	var sumSq float64
	for _, w := range weights {
		sumSq += w * w
	}
	return 1.0 / sumSq
}

// Mean returns the weighted particle mean.
func (b *Belief) Mean() []float64 {
	weights := b.NormalizedWeights()
	mean := make([]float64, b.StateDim)
	for i, p := range b.Particles {
		for d, v := range p {
			mean[d] += weights[i] * v
		}
	}
	return mean
}

// Covariance returns the weighted particle covariance matrix as stateDim
// rows of stateDim entries each.
func (b *Belief) Covariance() [][]float64 {
	weights := b.NormalizedWeights()
	mean := b.Mean()

	cov := make([][]float64, b.StateDim)
	for i := range cov {
		cov[i] = make([]float64, b.StateDim)
	}

	for i, p := range b.Particles {
		diff := make([]float64, b.StateDim)
		for d := range diff {
			diff[d] = p[d] - mean[d]
		}
		for r := 0; r < b.StateDim; r++ {
			for c := 0; c < b.StateDim; c++ {
				cov[r][c] += weights[i] * diff[r] * diff[c]
			}
		}
	}
	return cov
}

// Entropy returns the Shannon entropy of the particle weight distribution,
// in nats, ignoring weights below 1e-12 to avoid log(0).
func (b *Belief) Entropy() float64 {
	weights := b.NormalizedWeights()
	var h float64
	for _, w := range weights {
		if w <= 1e-12 {
			continue
		}
		h -= w * math.Log(w)
	}
	return h
}

// NormalizedWeights returns the particle weights in probability space,
// exponentiated from LogWeights and rescaled to sum to 1.
func (b *Belief) NormalizedWeights() []float64 {
	maxLW := b.LogWeights[0]
	for _, lw := range b.LogWeights[1:] {
		if lw > maxLW {
			maxLW = lw
		}
	}
	weights := make([]float64, len(b.LogWeights))
	var sum float64
	for i, lw := range b.LogWeights {
		w := math.Exp(lw - maxLW)
		weights[i] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// NormalizeLogWeights rescales log-weights via the log-sum-exp trick so
// they sum to 1 in probability space, without over/underflowing.
func (b *Belief) NormalizeLogWeights() {
	maxLW := b.LogWeights[0]
	for _, lw := range b.LogWeights[1:] {
		if lw > maxLW {
			maxLW = lw
		}
	}
	var sumExp float64
	for _, lw := range b.LogWeights {
		sumExp += math.Exp(lw - maxLW)
	}
	logSum := maxLW + math.Log(sumExp)
	for i := range b.LogWeights {
		b.LogWeights[i] -= logSum
	}
}
