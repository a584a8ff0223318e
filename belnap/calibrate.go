// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package belnap

import "math"

// LabeledSample is one (support, countersupport, ground-truth) triple used
// to calibrate the TRUE/FALSE thresholds.
type LabeledSample struct {
	SupportC        float64
	CountersupportC float64
	GroundTruth     int // 0 or 1
}

// CostMatrix is a 2x2 confusion cost matrix: Cost[groundTruth][predicted].
type CostMatrix [2][2]float64

// DefaultCostMatrix is the balanced cost matrix (FP = FN = 1).
var DefaultCostMatrix = CostMatrix{{0, 1}, {1, 0}}

// CalibrationResult holds the outcome of threshold calibration.
type CalibrationResult struct {
	Tau       float64
	TauPrime  float64
	ECEBefore float64
	ECEAfter  float64
}

const (
	defaultTau      = 0.7
	defaultTauPrime = 0.3

	gridResolution = 20
	costWeight     = 0.1
)

// Calibrate performs a dense grid search over tau in [0.55, 0.95] and
// tauPrime in [0.05, 0.45] to minimize ECE plus a cost-weighted confusion
// penalty, subject to tauPrime < 0.5 < tau. It returns the optimal
// thresholds and the ECE before/after calibration, using the default
// (0.7, 0.3) thresholds as the "before" baseline.
func Calibrate(samples []LabeledSample, cost *CostMatrix, targetECE float64) (CalibrationResult, error) {
	if len(samples) == 0 {
		return CalibrationResult{}, &DomainError{Op: "Calibrate", Msg: "no samples supplied"}
	}
	if cost == nil {
		c := DefaultCostMatrix
		cost = &c
	}

	eceBefore := eceForThresholds(samples, defaultTau, defaultTauPrime)

	bestObjective := math.Inf(1)
	bestECE := eceBefore
	bestTau := defaultTau
	bestTauPrime := defaultTauPrime

	for i := 0; i < gridResolution; i++ {
		tau := 0.55 + (0.95-0.55)*float64(i)/float64(gridResolution-1)
		for j := 0; j < gridResolution; j++ {
			tauPrime := 0.05 + (0.45-0.05)*float64(j)/float64(gridResolution-1)
			if tauPrime >= 0.5 || tau <= 0.5 {
				continue
			}

			ece, cst := eceAndCost(samples, tau, tauPrime, cost)
			objective := ece + costWeight*cst

			if objective < bestObjective {
				bestObjective = objective
				bestECE = ece
				bestTau = tau
				bestTauPrime = tauPrime
			}
		}
	}

	_ = targetECE // targetECE informs the caller's pass/fail check, not the search itself.

	return CalibrationResult{
		Tau:       bestTau,
		TauPrime:  bestTauPrime,
		ECEBefore: eceBefore,
		ECEAfter:  bestECE,
	}, nil
}

func eceForThresholds(samples []LabeledSample, tau, tauPrime float64) float64 {
	ece, _ := eceAndCost(samples, tau, tauPrime, &DefaultCostMatrix)
	return ece
}

func eceAndCost(samples []LabeledSample, tau, tauPrime float64, cost *CostMatrix) (ece float64, normalizedCost float64) {
	predictions := make([]float64, len(samples))
	outcomes := make([]float64, len(samples))

	var fp, fn float64
	for i, s := range samples {
		v, err := Status(s.SupportC, s.CountersupportC, tau, tauPrime)
		if err != nil {
			// A sample with support/countersupport outside [0,1] does not
			// abort the grid search: it enters the ECE with a neutral 0.5
			// prediction and is left out of the FP/FN cost.
			predictions[i] = 0.5
			outcomes[i] = float64(s.GroundTruth)
			continue
		}
		pred := ProbabilitySurrogate(v)
		predictions[i] = pred
		outcomes[i] = float64(s.GroundTruth)

		binaryPred := 0
		if pred > 0.5 {
			binaryPred = 1
		}
		if s.GroundTruth == 0 && binaryPred == 1 {
			fp++
		}
		if s.GroundTruth == 1 && binaryPred == 0 {
			fn++
		}
	}

	ece = ExpectedCalibrationError(predictions, outcomes, 10)
	totalCost := cost[0][1]*fp + cost[1][0]*fn
	normalizedCost = totalCost / float64(len(samples))
	return ece, normalizedCost
}

// ExpectedCalibrationError bins predictions into nBins equal-width buckets
// over [0,1] and returns the sample-weighted mean absolute gap between
// each bucket's mean prediction and its observed positive rate.
func ExpectedCalibrationError(predictions, outcomes []float64, nBins int) float64 {
	n := len(predictions)
	if n == 0 {
		return 0
	}

	type bin struct {
		sumPred, sumOutcome float64
		count               int
	}
	bins := make([]bin, nBins)

	for i, p := range predictions {
		idx := int(p * float64(nBins))
		if idx >= nBins {
			idx = nBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].sumPred += p
		bins[idx].sumOutcome += outcomes[i]
		bins[idx].count++
	}

	var ece float64
	for _, b := range bins {
		if b.count == 0 {
			continue
		}
		acc := b.sumOutcome / float64(b.count)
		conf := b.sumPred / float64(b.count)
		ece += (float64(b.count) / float64(n)) * math.Abs(acc-conf)
	}
	return ece
}

// BrierScore is the mean squared error between predicted probabilities and
// binary outcomes.
func BrierScore(predictions, outcomes []float64) float64 {
	if len(predictions) == 0 {
		return 0
	}
	var sum float64
	for i, p := range predictions {
		d := p - outcomes[i]
		sum += d * d
	}
	return sum / float64(len(predictions))
}
