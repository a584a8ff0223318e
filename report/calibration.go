// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package report computes the numeric content behind the agent's offline
// analyses — calibration curves, safety violation rates, and CVaR risk
// profiles — as plain data structures. Plotting is explicitly out of
// scope (spec §1 Non-goals); this package stops at the JSON-serializable
// bins/points/rates a caller would otherwise hand to a plotting library.
package report

import (
	"fmt"
	"sort"

	"github.com/x0rium/robust-semantic-agent/belnap"
)

// DomainError reports a boundary-level invalid input to the report package.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("report: %s: %s", e.Op, e.Msg)
}

// ReliabilityBin is one bucket of a reliability diagram: the mean
// predicted probability and observed positive frequency among the
// samples that landed in it.
type ReliabilityBin struct {
	BinLow     float64
	BinHigh    float64
	Count      int
	Confidence float64 // mean predicted probability in this bin
	Accuracy   float64 // observed positive rate in this bin
}

// ReliabilityDiagram bins predictions into nBins equal-width buckets over
// [0,1] and reports each bucket's confidence/accuracy pair, grounded on
// the reference implementation's generate_reliability_diagram (which plots
// exactly this data; plotting itself is out of scope here).
func ReliabilityDiagram(predictions, outcomes []float64, nBins int) ([]ReliabilityBin, error) {
	if len(predictions) != len(outcomes) {
		return nil, &DomainError{Op: "ReliabilityDiagram", Msg: "predictions and outcomes length mismatch"}
	}
	if nBins <= 0 {
		return nil, &DomainError{Op: "ReliabilityDiagram", Msg: "n_bins must be positive"}
	}

	sums := make([]float64, nBins)
	sumOutcomes := make([]float64, nBins)
	counts := make([]int, nBins)

	width := 1.0 / float64(nBins)
	for i, p := range predictions {
		if p < 0 || p > 1 {
			return nil, &DomainError{Op: "ReliabilityDiagram", Msg: fmt.Sprintf("prediction out of [0,1]: %v", p)}
		}
		idx := int(p / width)
		if idx >= nBins {
			idx = nBins - 1
		}
		sums[idx] += p
		sumOutcomes[idx] += outcomes[i]
		counts[idx]++
	}

	bins := make([]ReliabilityBin, nBins)
	for b := 0; b < nBins; b++ {
		bins[b] = ReliabilityBin{
			BinLow:  float64(b) * width,
			BinHigh: float64(b+1) * width,
			Count:   counts[b],
		}
		if counts[b] > 0 {
			bins[b].Confidence = sums[b] / float64(counts[b])
			bins[b].Accuracy = sumOutcomes[b] / float64(counts[b])
		}
	}
	return bins, nil
}

// ROCPoint is one (false-positive-rate, true-positive-rate) point on an
// ROC curve at a particular classification threshold.
type ROCPoint struct {
	FPR float64
	TPR float64
}

// ROCCurve sweeps every distinct prediction value as a classification
// threshold and returns the resulting (FPR, TPR) curve plus its AUC via
// the trapezoidal rule, grounded on the reference implementation's
// generate_roc_curve.
func ROCCurve(predictions, outcomes []float64) ([]ROCPoint, float64, error) {
	if len(predictions) != len(outcomes) {
		return nil, 0, &DomainError{Op: "ROCCurve", Msg: "predictions and outcomes length mismatch"}
	}
	if len(predictions) == 0 {
		return nil, 0, &DomainError{Op: "ROCCurve", Msg: "no samples supplied"}
	}

	idx := make([]int, len(predictions))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return predictions[idx[i]] > predictions[idx[j]] })

	var positives, negatives float64
	for _, o := range outcomes {
		if o == 1 {
			positives++
		} else {
			negatives++
		}
	}

	points := make([]ROCPoint, 0, len(idx)+1)
	points = append(points, ROCPoint{FPR: 0, TPR: 0})

	var tp, fp float64
	for k, i := range idx {
		if outcomes[i] == 1 {
			tp++
		} else {
			fp++
		}
		if k+1 < len(idx) && predictions[idx[k+1]] == predictions[i] {
			continue // tied predictions share one threshold, hence one point
		}
		var tpr, fpr float64
		if positives > 0 {
			tpr = tp / positives
		}
		if negatives > 0 {
			fpr = fp / negatives
		}
		points = append(points, ROCPoint{FPR: fpr, TPR: tpr})
	}

	var auc float64
	for i := 1; i < len(points); i++ {
		dx := points[i].FPR - points[i-1].FPR
		avgY := (points[i].TPR + points[i-1].TPR) / 2
		auc += dx * avgY
	}
	return points, auc, nil
}

// CalibrationSummary bundles the ECE/Brier scalars with the reliability
// diagram and ROC curve data for one evaluation run.
type CalibrationSummary struct {
	ECE   float64
	Brier float64
	Bins  []ReliabilityBin
	ROC   []ROCPoint
	AUC   float64
}

// Summarize computes the full calibration report for a set of predicted
// probabilities (e.g. belnap.ProbabilitySurrogate outputs) against binary
// ground truth.
func Summarize(predictions, outcomes []float64, nBins int) (CalibrationSummary, error) {
	bins, err := ReliabilityDiagram(predictions, outcomes, nBins)
	if err != nil {
		return CalibrationSummary{}, err
	}
	roc, auc, err := ROCCurve(predictions, outcomes)
	if err != nil {
		return CalibrationSummary{}, err
	}
	return CalibrationSummary{
		ECE:   belnap.ExpectedCalibrationError(predictions, outcomes, nBins),
		Brier: belnap.BrierScore(predictions, outcomes),
		Bins:  bins,
		ROC:   roc,
		AUC:   auc,
	}, nil
}
