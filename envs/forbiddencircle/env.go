// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package forbiddencircle implements a 2D single-integrator navigation
// environment with a circular forbidden zone and noisy beacon
// observations, used as the agent's demonstration scenario.
package forbiddencircle

import (
	"fmt"
	"math"

	"github.com/x0rium/robust-semantic-agent/belnap"
	"github.com/x0rium/robust-semantic-agent/config"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
	"github.com/x0rium/robust-semantic-agent/message"
)

const (
	dt             = 0.1
	defaultMaxStep = 50
	goalBonus      = 10.0
	violationCost  = 10.0
)

// StepInfo carries auxiliary information about one Step call.
type StepInfo struct {
	TrueState      []float64
	GoalReached    bool
	ViolatedSafety bool
	Timestep       int
}

// Env is the forbidden-circle navigation environment.
type Env struct {
	ObstacleRadius float64
	ObstacleCenter []float64
	GoalRegion     []float64
	GoalRadius     float64
	ObsNoise       float64
	MaxAction      float64
	MaxTimesteps   int

	// EnableGossipSource turns on the exogenous contradiction source: with
	// GossipProbability chance per step, GetMessages returns a message
	// asserting the agent is simultaneously north and south of center
	// (Belnap BOTH), exercising the agent's credal-set expansion path.
	EnableGossipSource bool
	GossipProbability  float64

	state    []float64
	timestep int
	rng      rng.Source
}

// New returns an Env configured from cfg.Env, with the gossip source
// disabled by default.
func New(cfg config.EnvConfig, source rng.Source) *Env {
	return &Env{
		ObstacleRadius:    cfg.ObstacleRadius,
		ObstacleCenter:    append([]float64(nil), cfg.ObstacleCenter...),
		GoalRegion:        append([]float64(nil), cfg.GoalRegion...),
		GoalRadius:        cfg.GoalRadius,
		ObsNoise:          cfg.ObservationNoise,
		MaxAction:         cfg.MaxAction,
		MaxTimesteps:      defaultMaxStep,
		GossipProbability: cfg.GossipProbability,
		rng:               source,
	}
}

// Reset draws a random initial state on an annulus around the origin,
// outside the obstacle, and returns the first noisy observation.
func (e *Env) Reset() []float64 {
	for {
		angle := e.rng.Float64() * 2 * math.Pi
		radius := 0.5 + e.rng.Float64()*0.5
		state := []float64{radius * math.Cos(angle), radius * math.Sin(angle)}
		if !e.isInObstacle(state) {
			e.state = state
			break
		}
	}
	e.timestep = 0
	return e.observation()
}

// Step applies action (clipped to ±MaxAction per dimension), advances the
// single-integrator dynamics x' = x + u*dt, and returns the resulting
// observation, reward, done flag, and step info.
func (e *Env) Step(action []float64) ([]float64, float64, bool, StepInfo, error) {
	if e.state == nil {
		return nil, 0, false, StepInfo{}, fmt.Errorf("forbiddencircle: Step called before Reset")
	}
	if len(action) != len(e.state) {
		return nil, 0, false, StepInfo{}, fmt.Errorf("forbiddencircle: action dim %d != state dim %d", len(action), len(e.state))
	}

	clipped := make([]float64, len(action))
	for i, a := range action {
		clipped[i] = clampAbs(a, e.MaxAction)
	}
	for i := range e.state {
		e.state[i] += clipped[i] * dt
	}
	e.timestep++

	reward := e.rewardToGoal()

	done := false
	goalReached := false
	violatedSafety := false

	if e.isAtGoal(e.state) {
		done = true
		goalReached = true
		reward += goalBonus
	}
	if e.isInObstacle(e.state) {
		violatedSafety = true
		reward -= violationCost
	}
	if e.timestep >= e.MaxTimesteps {
		done = true
	}

	obs := e.observation()
	info := StepInfo{
		TrueState:      append([]float64(nil), e.state...),
		GoalReached:    goalReached,
		ViolatedSafety: violatedSafety,
		Timestep:       e.timestep,
	}
	return obs, reward, done, info, nil
}

// State returns the true, unobserved state.
func (e *Env) State() []float64 { return append([]float64(nil), e.state...) }

func (e *Env) observation() []float64 {
	obs := make([]float64, len(e.state))
	for i, v := range e.state {
		obs[i] = v + e.rng.NormFloat64()*e.ObsNoise
	}
	return obs
}

// Query implements agent.QueryChannel: it returns an additional
// observation of the true state at half the standard observation noise,
// the low-noise channel the active-query mechanism pays for (spec §6.1,
// §4.9 step 3). Grounded on the reference implementation's
// compute_query_observation, which samples the environment's true state
// at a caller-supplied, typically halved, noise level.
func (e *Env) Query() ([]float64, error) {
	if e.state == nil {
		return nil, fmt.Errorf("forbiddencircle: Query called before Reset")
	}
	obs := make([]float64, len(e.state))
	for i, v := range e.state {
		obs[i] = v + e.rng.NormFloat64()*(e.ObsNoise/2)
	}
	return obs, nil
}

func (e *Env) rewardToGoal() float64 {
	return -euclidean(e.state, e.GoalRegion)
}

func (e *Env) isAtGoal(state []float64) bool {
	return euclidean(state, e.GoalRegion) <= e.GoalRadius
}

func (e *Env) isInObstacle(state []float64) bool {
	return euclidean(state, e.ObstacleCenter) < e.ObstacleRadius
}

// GetMessages returns the gossip source's exogenous messages for this
// step: with GossipProbability chance, a Belnap-BOTH claim that the agent
// is simultaneously north and south of the obstacle center, forcing the
// agent to expand a credal set rather than trust a single posterior.
func (e *Env) GetMessages() []message.Message {
	if !e.EnableGossipSource {
		return nil
	}
	if e.rng.Float64() >= e.GossipProbability {
		return nil
	}

	claim := message.Claim{
		ID:        "location_north",
		Predicate: message.HalfPlane([]float64{0, -1}, 0), // true when y >= 0
		Value:     belnap.Both,
	}
	return []message.Message{{Claim: claim, SourceID: "gossip"}}
}

func euclidean(a, b []float64) float64 {
	var sumSq float64
	for i := range a {
		d := a[i] - b[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq)
}

func clampAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
