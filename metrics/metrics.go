// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics instruments the agent loop with Prometheus gauges and
// counters: belief health (ESS, entropy), safety-filter behavior (slack,
// activation), and the query/credal decision points, so a running agent
// can be scraped the same way any other long-lived Go service is.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Agent holds the agent loop's Prometheus collectors, registered against a
// caller-supplied Registerer. The collectors carry no labels, so each agent
// running in one process needs its own registry.
type Agent struct {
	ESS               prometheus.Gauge
	BeliefEntropy     prometheus.Gauge
	FilterSlack       prometheus.Gauge
	FilterActiveTotal prometheus.Counter
	QueryTriggerTotal prometheus.Counter
	CredalK           prometheus.Gauge
	SolverErrorTotal  prometheus.Counter
}

// NewAgent registers and returns the agent loop's metric collectors against
// reg. Pass prometheus.DefaultRegisterer to expose them on the default
// /metrics handler, or a fresh prometheus.NewRegistry() per agent instance
// to run several agents side by side without collisions.
func NewAgent(reg prometheus.Registerer) *Agent {
	factory := promauto.With(reg)
	return &Agent{
		ESS: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agent_ess",
			Help: "Effective sample size of the current particle belief.",
		}),
		BeliefEntropy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agent_belief_entropy",
			Help: "Shannon entropy (nats) of the current belief's particle weights.",
		}),
		FilterSlack: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agent_filter_slack",
			Help: "Slack resolved by the most recent CBF-QP solve.",
		}),
		FilterActiveTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "agent_filter_active_total",
			Help: "Count of steps where the CBF-QP filter altered the nominal action.",
		}),
		QueryTriggerTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "agent_query_triggered_total",
			Help: "Count of steps where the EVI query rule fired.",
		}),
		CredalK: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agent_credal_k",
			Help: "Number of posteriors in the active credal set, 0 when the belief is plain.",
		}),
		SolverErrorTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "agent_solver_error_total",
			Help: "Count of steps where the CBF-QP solver failed and an emergency action was substituted.",
		}),
	}
}
