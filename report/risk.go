// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package report

import (
	"github.com/montanaflynn/stats"

	"github.com/x0rium/robust-semantic-agent/risk"
)

// CVaRCurvePoint is one (alpha, CVaR@alpha) sample on a risk profile,
// optionally compared against a baseline return distribution.
type CVaRCurvePoint struct {
	Alpha        float64
	CVaR         float64
	BaselineCVaR float64
	HasBaseline  bool
	RiskAverse   bool // CVaR > BaselineCVaR: this agent's worst-tail outcomes beat the baseline's
}

// CVaRCurve evaluates CVaR at each alpha in alphas over returns, and
// optionally over baselineReturns for comparison, grounded on the
// reference implementation's generate_cvar_curves (data only; plotting is
// out of scope).
func CVaRCurve(returns []float64, alphas []float64, baselineReturns []float64) ([]CVaRCurvePoint, error) {
	hasBaseline := len(baselineReturns) > 0
	points := make([]CVaRCurvePoint, len(alphas))

	for i, alpha := range alphas {
		cv, err := risk.CVaR(returns, alpha)
		if err != nil {
			return nil, &DomainError{Op: "CVaRCurve", Msg: err.Error()}
		}
		p := CVaRCurvePoint{Alpha: alpha, CVaR: cv}
		if hasBaseline {
			baseCv, err := risk.CVaR(baselineReturns, alpha)
			if err != nil {
				return nil, &DomainError{Op: "CVaRCurve", Msg: err.Error()}
			}
			p.BaselineCVaR = baseCv
			p.HasBaseline = true
			p.RiskAverse = cv > baseCv
		}
		points[i] = p
	}
	return points, nil
}

// TailDistributionSummary bundles descriptive statistics over a set of
// episode returns, grounded on the reference implementation's
// generate_tail_distributions (the histogram/CDF data underlying the
// plot, not the plot itself).
type TailDistributionSummary struct {
	N         int
	Mean      float64
	StdDev    float64
	Min       float64
	Max       float64
	Median    float64
	P05       float64
	P10       float64
	P25       float64
	P75       float64
	P95       float64
}

// SummarizeTail computes the descriptive statistics a tail-distribution
// report needs, using montanaflynn/stats for the percentile estimators.
func SummarizeTail(returns []float64) (TailDistributionSummary, error) {
	if len(returns) == 0 {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: "no returns supplied"}
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: err.Error()}
	}
	stddev, err := stats.StandardDeviation(returns)
	if err != nil {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: err.Error()}
	}
	min, err := stats.Min(returns)
	if err != nil {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: err.Error()}
	}
	max, err := stats.Max(returns)
	if err != nil {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: err.Error()}
	}
	median, err := stats.Median(returns)
	if err != nil {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: err.Error()}
	}

	percentile := func(p float64) (float64, error) { return stats.Percentile(returns, p) }
	p05, err := percentile(5)
	if err != nil {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: err.Error()}
	}
	p10, err := percentile(10)
	if err != nil {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: err.Error()}
	}
	p25, err := percentile(25)
	if err != nil {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: err.Error()}
	}
	p75, err := percentile(75)
	if err != nil {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: err.Error()}
	}
	p95, err := percentile(95)
	if err != nil {
		return TailDistributionSummary{}, &DomainError{Op: "SummarizeTail", Msg: err.Error()}
	}

	return TailDistributionSummary{
		N:      len(returns),
		Mean:   mean,
		StdDev: stddev,
		Min:    min,
		Max:    max,
		Median: median,
		P05:    p05,
		P10:    p10,
		P25:    p25,
		P75:    p75,
		P95:    p95,
	}, nil
}
