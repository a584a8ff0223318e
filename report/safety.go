// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package report

import "github.com/x0rium/robust-semantic-agent/episode"

// SafetySummary bundles the violation-rate and filter-activation-rate
// statistics spec §8's safety end-to-end properties are checked against,
// grounded on the reference implementation's compute_violation_rates.
type SafetySummary struct {
	TotalSteps             int
	Violations             int
	ViolationRate          float64
	EpisodesWithViolations int
	EpisodesTotal          int
	FilterActivations      int
	FilterActivationRate   float64

	// ZeroViolations reports spec §8's "over >=100 episodes with the
	// filter enabled, zero violation steps" property.
	ZeroViolations bool
	// FilterActivationAboveFloor reports spec §8's "filter activation
	// rate is >= 1%" property.
	FilterActivationAboveFloor bool
}

// SummarizeSafety scans episodes' step annotations for violated_safety
// and filter_active info flags (as set by the agent loop / environment)
// and computes aggregate rates.
func SummarizeSafety(episodes []*episode.Episode) SafetySummary {
	var s SafetySummary
	s.EpisodesTotal = len(episodes)

	for _, ep := range episodes {
		episodeViolated := false
		for _, step := range ep.Steps {
			s.TotalSteps++
			if boolInfo(step.Info, "violated_safety") {
				s.Violations++
				episodeViolated = true
			}
			if boolInfo(step.Info, "filter_active") {
				s.FilterActivations++
			}
		}
		if episodeViolated {
			s.EpisodesWithViolations++
		}
	}

	if s.TotalSteps > 0 {
		s.ViolationRate = float64(s.Violations) / float64(s.TotalSteps)
		s.FilterActivationRate = float64(s.FilterActivations) / float64(s.TotalSteps)
	}
	s.ZeroViolations = s.Violations == 0
	s.FilterActivationAboveFloor = s.FilterActivationRate >= 0.01
	return s
}

func boolInfo(info map[string]interface{}, key string) bool {
	v, ok := info[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
