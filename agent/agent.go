// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package agent orchestrates one control step of the robust semantic
// agent: observation → message fusion → active query → policy → CBF-QP
// safety filter, per spec §4.9. It composes belief, beliefstate, trust,
// query, policy, and safety without owning the environment or any
// particular policy implementation.
package agent

import (
	"fmt"
	"math"

	"github.com/x0rium/robust-semantic-agent/belief"
	"github.com/x0rium/robust-semantic-agent/beliefstate"
	"github.com/x0rium/robust-semantic-agent/config"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
	"github.com/x0rium/robust-semantic-agent/logging"
	"github.com/x0rium/robust-semantic-agent/message"
	"github.com/x0rium/robust-semantic-agent/metrics"
	"github.com/x0rium/robust-semantic-agent/policy"
	"github.com/x0rium/robust-semantic-agent/query"
	"github.com/x0rium/robust-semantic-agent/safety"
	"github.com/x0rium/robust-semantic-agent/trust"
)

// filterActivationEpsilon is the threshold in spec §4.6: the filter is
// considered "active" when it perturbs the nominal action by more than
// this much.
const filterActivationEpsilon = 1e-4

// DomainError reports a boundary-level invalid input: a malformed
// observation, or an agent constructed with an invalid dependency. Never
// caught inside the core; always surfaced to the caller.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("agent: %s: %s", e.Op, e.Msg)
}

// LogicError reports an internal invariant violation — e.g. a belief that
// somehow reached a step with no base representation at all. Per spec §7
// this is fatal: the agent has no safe way to continue, and the caller
// should treat it as a crash-fast condition rather than retry.
type LogicError struct {
	Op  string
	Msg string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("agent: internal invariant violated in %s: %s", e.Op, e.Msg)
}

// QueryChannel is the environment's optional low-noise observation
// channel (spec §6.1): a way to obtain a more precise observation at a
// configured cost, distinct from the agent's regular per-step observation.
type QueryChannel interface {
	Query() ([]float64, error)
}

// ValueFunc scores a belief for the EVI computation; see package query.
type ValueFunc = query.ValueFunc

// DefaultValueFunc returns the value function used when none is supplied:
// negative Shannon entropy, so an observation that sharpens the belief
// (lowers entropy) scores as valuable.
func DefaultValueFunc() ValueFunc {
	return func(b *belief.Belief) float64 { return -b.Entropy() }
}

// StepAnnotation is the per-step observability record spec §4.9 requires
// the agent loop to emit alongside the action.
type StepAnnotation struct {
	Timestep        int
	BeliefMean      []float64
	ESS             float64
	FilterActive    bool
	Slack           float64
	CredalSetActive bool
	CredalK         int
	QueryTriggered  bool
	EVI             float64
	HBefore         float64
	HAfter          float64
	FilterError     string
}

// Options configures a new Agent. Config, Policy, Belief, and RNG are
// required; Filter, Logger, Metrics, and ValueFunc are optional.
type Options struct {
	Config    config.Configuration
	Policy    policy.Policy
	Filter    *safety.Filter
	Belief    *belief.Belief
	RNG       rng.Source
	Logger    logging.Logger
	Metrics   *metrics.Agent
	ValueFunc ValueFunc
}

// Agent is the per-episode (or, with ResetBelief, multi-episode) control
// loop: it owns a BeliefLike, the trust state of every source it has
// heard from, and (optionally) a warm-started CBF-QP filter.
type Agent struct {
	cfg     config.Configuration
	belief  beliefstate.Like
	policy  policy.Policy
	filter  *safety.Filter
	sources map[string]*trust.SourceTrust
	rng     rng.Source
	logger  logging.Logger
	metrics *metrics.Agent
	valueFn ValueFunc
}

// New constructs an Agent from opts. Configuration validity is enforced
// here as well as by config.Parse, since spec §4.9 requires it to be
// checked "at agent construction" regardless of how the Configuration was
// built.
func New(opts Options) (*Agent, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, &DomainError{Op: "New", Msg: err.Error()}
	}
	if opts.Policy == nil {
		return nil, &DomainError{Op: "New", Msg: "policy must not be nil"}
	}
	if opts.Belief == nil {
		return nil, &DomainError{Op: "New", Msg: "initial belief must not be nil"}
	}
	if opts.RNG == nil {
		return nil, &DomainError{Op: "New", Msg: "rng source must not be nil"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNoOp()
	}
	valueFn := opts.ValueFunc
	if valueFn == nil {
		valueFn = DefaultValueFunc()
	}

	return &Agent{
		cfg:     opts.Config,
		belief:  beliefstate.Plain(opts.Belief),
		policy:  opts.Policy,
		filter:  opts.Filter,
		sources: make(map[string]*trust.SourceTrust),
		rng:     opts.RNG,
		logger:  logger,
		metrics: opts.Metrics,
		valueFn: valueFn,
	}, nil
}

// ResetBelief swaps in a fresh base belief (plain, no credal set) for a
// new episode, preserving accumulated source trust across the reset —
// trust is a property of the source, not of one episode.
func (a *Agent) ResetBelief(b *belief.Belief) {
	a.belief = beliefstate.Plain(b)
}

// Belief returns the agent's current belief representation.
func (a *Agent) Belief() beliefstate.Like { return a.belief }

// UpdateTrust folds a confirmed or refuted claim's ground truth into a
// source's reliability posterior — the side channel described in spec §3
// that closes the loop between claims and the sources that made them.
// weight must be strictly positive.
func (a *Agent) UpdateTrust(sourceID string, success bool, weight float64) error {
	t := a.sourceTrust(sourceID)
	if err := t.Update(success, weight); err != nil {
		return &DomainError{Op: "UpdateTrust", Msg: err.Error()}
	}
	return nil
}

// SourceReliability returns the current reliability estimate r_s for a
// source, for callers (e.g. calibration reports) that want to inspect
// trust state without mutating it.
func (a *Agent) SourceReliability(sourceID string) float64 {
	return a.sourceTrust(sourceID).Reliability()
}

func (a *Agent) sourceTrust(sourceID string) *trust.SourceTrust {
	if t, ok := a.sources[sourceID]; ok {
		return t
	}
	concentration := 10.0
	alpha := a.cfg.Credal.TrustInit * concentration
	beta := (1 - a.cfg.Credal.TrustInit) * concentration
	t, err := trust.NewWithPrior(sourceID, alpha, beta)
	if err != nil {
		// trust_init is already validated in (0,1) by config.Validate, so
		// this path is unreachable; fall back to the package default.
		t = trust.New(sourceID)
	}
	a.sources[sourceID] = t
	return t
}

// Step runs one full control cycle: observation fusion, message fusion,
// the EVI query rule, policy selection, and the CBF-QP safety filter. It
// returns the emitted action (already safety-filtered, if a filter is
// configured) and an annotation record for logging/evaluation.
func (a *Agent) Step(timestep int, observation []float64, messages []message.Message, queryChannel QueryChannel) ([]float64, StepAnnotation, error) {
	ann := StepAnnotation{Timestep: timestep}

	if err := validateObservation(observation, a.cfg.Env.StateDim); err != nil {
		return nil, ann, err
	}

	if err := a.belief.ObsUpdate(observation, a.cfg.Env.ObservationNoise); err != nil {
		return nil, ann, &DomainError{Op: "Step", Msg: err.Error()}
	}

	for _, msg := range messages {
		lambdaS := a.sourceTrust(msg.SourceID).Logit()
		if err := a.belief.ApplyMessage(msg.Claim, lambdaS, a.cfg.Credal.K); err != nil {
			return nil, ann, &DomainError{Op: "Step", Msg: err.Error()}
		}
	}

	if err := a.maybeResample(); err != nil {
		return nil, ann, err
	}

	if a.cfg.Query.Enabled && queryChannel != nil {
		if err := a.runQuery(queryChannel, &ann); err != nil {
			return nil, ann, err
		}
	}

	estimate, err := a.belief.Mean()
	if err != nil {
		return nil, ann, &LogicError{Op: "Step", Msg: err.Error()}
	}
	ess, err := a.belief.ESS()
	if err != nil {
		return nil, ann, &LogicError{Op: "Step", Msg: err.Error()}
	}
	ann.BeliefMean = estimate
	ann.ESS = ess
	ann.CredalSetActive = a.belief.IsCredal()
	ann.CredalK = a.belief.CredalK()

	uDesired, err := a.policy.SelectAction(a.belief)
	if err != nil {
		return nil, ann, err
	}

	action := uDesired
	if a.filter != nil {
		uSafe, slack, ferr := a.filter.Filter(estimate, uDesired)
		if ferr != nil {
			a.logger.Warn("cbf-qp solve failed, substituting emergency action")
			if a.metrics != nil {
				a.metrics.SolverErrorTotal.Inc()
			}
			ann.FilterError = ferr.Error()
			action = safety.EmergencyAction(len(uDesired))
		} else {
			action = uSafe
			ann.Slack = slack
			ann.FilterActive = filterActive(uDesired, uSafe)
			if ann.FilterActive && a.metrics != nil {
				a.metrics.FilterActiveTotal.Inc()
			}
			if a.filter.LastSlackWarning {
				a.logger.Warn("cbf-qp slack exceeds warn threshold")
			}
		}
	}

	a.recordMetrics(ann)
	return action, ann, nil
}

func (a *Agent) runQuery(channel QueryChannel, ann *StepAnnotation) error {
	hBefore, err := a.belief.Entropy()
	if err != nil {
		return &LogicError{Op: "runQuery", Msg: err.Error()}
	}
	ann.HBefore = hBefore

	base := a.belief.Base()
	evi, err := query.EVI(base, a.valueFn, a.cfg.Env.ObservationNoise/2, a.cfg.Query.NSamples, a.rng)
	if err != nil {
		return &DomainError{Op: "runQuery", Msg: err.Error()}
	}
	ann.EVI = evi

	if !query.ShouldQuery(evi, a.cfg.Query.DeltaStar) {
		return nil
	}

	queryNoise := a.cfg.Env.ObservationNoise / 2
	obs, err := channel.Query()
	if err != nil {
		return &DomainError{Op: "runQuery", Msg: err.Error()}
	}
	if err := a.belief.ObsUpdate(obs, queryNoise); err != nil {
		return &DomainError{Op: "runQuery", Msg: err.Error()}
	}
	if err := a.maybeResample(); err != nil {
		return err
	}

	hAfter, err := a.belief.Entropy()
	if err != nil {
		return &LogicError{Op: "runQuery", Msg: err.Error()}
	}
	ann.HAfter = hAfter
	ann.QueryTriggered = true
	if a.metrics != nil {
		a.metrics.QueryTriggerTotal.Inc()
	}
	return nil
}

func (a *Agent) maybeResample() error {
	ess, err := a.belief.ESS()
	if err != nil {
		return &LogicError{Op: "maybeResample", Msg: err.Error()}
	}
	threshold := a.cfg.Belief.ResampleThreshold * float64(a.cfg.Belief.Particles)
	if ess < threshold {
		if err := a.belief.Resample(); err != nil {
			return &LogicError{Op: "maybeResample", Msg: err.Error()}
		}
	}
	return nil
}

func (a *Agent) recordMetrics(ann StepAnnotation) {
	if a.metrics == nil {
		return
	}
	a.metrics.ESS.Set(ann.ESS)
	a.metrics.FilterSlack.Set(ann.Slack)
	a.metrics.CredalK.Set(float64(ann.CredalK))
	if entropy, err := a.belief.Entropy(); err == nil {
		a.metrics.BeliefEntropy.Set(entropy)
	}
}

func validateObservation(observation []float64, stateDim int) error {
	if len(observation) != stateDim {
		return &DomainError{Op: "validateObservation", Msg: fmt.Sprintf("observation dim %d != state_dim %d", len(observation), stateDim)}
	}
	for _, v := range observation {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &DomainError{Op: "validateObservation", Msg: "observation contains a non-finite value"}
		}
	}
	return nil
}

func filterActive(uDesired, uSafe []float64) bool {
	var sumSq float64
	for i := range uDesired {
		d := uSafe[i] - uDesired[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq) > filterActivationEpsilon
}
