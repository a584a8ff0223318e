// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package agent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x0rium/robust-semantic-agent/barrier"
	"github.com/x0rium/robust-semantic-agent/belief"
	"github.com/x0rium/robust-semantic-agent/belnap"
	"github.com/x0rium/robust-semantic-agent/config"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
	"github.com/x0rium/robust-semantic-agent/message"
	"github.com/x0rium/robust-semantic-agent/policy"
	"github.com/x0rium/robust-semantic-agent/safety"
)

func testConfig() config.Configuration {
	c := config.Default()
	c.Belief.Particles = 200
	c.Env.StateDim = 2
	c.Env.ActionDim = 2
	c.Env.ObservationNoise = 0.1
	c.Env.ObstacleRadius = 0.3
	c.Env.ObstacleCenter = []float64{0, 0}
	c.Env.GoalRegion = []float64{0.8, 0.8}
	c.Query.Enabled = true
	c.Query.DeltaStar = 0.01
	c.Query.NSamples = 20
	return c
}

func newTestAgent(t *testing.T, cfg config.Configuration, withFilter bool) *Agent {
	t.Helper()
	source := rng.New(7)
	b, err := belief.New(cfg.Belief.Particles, cfg.Env.StateDim, cfg.Belief.ResampleThreshold, source)
	require.NoError(t, err)
	for _, p := range b.Particles {
		p[0] = 0.5
		p[1] = 0.5
	}

	pol, err := policy.NewProportional(cfg.Env.GoalRegion, cfg.Env.MaxAction)
	require.NoError(t, err)

	var filter *safety.Filter
	if withFilter {
		circle, err := barrier.NewCircle(cfg.Env.ObstacleRadius, cfg.Env.ObstacleCenter)
		require.NoError(t, err)
		filter, err = safety.New(circle, cfg.Safety.BarrierAlpha, cfg.Safety.SlackPenalty, cfg.Safety.QPMaxIter)
		require.NoError(t, err)
	}

	a, err := New(Options{
		Config: cfg,
		Policy: pol,
		Filter: filter,
		Belief: b,
		RNG:    source,
	})
	require.NoError(t, err)
	return a
}

type fakeQueryChannel struct {
	obs []float64
}

func (f fakeQueryChannel) Query() ([]float64, error) {
	return f.obs, nil
}

func TestStepProducesFiniteActionAndAnnotation(t *testing.T) {
	cfg := testConfig()
	a := newTestAgent(t, cfg, true)

	action, ann, err := a.Step(0, []float64{0.5, 0.5}, nil, fakeQueryChannel{obs: []float64{0.5, 0.5}})
	require.NoError(t, err)
	require.Len(t, action, 2)
	for _, v := range action {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	require.Equal(t, 0, ann.Timestep)
	require.Greater(t, ann.ESS, 0.0)
	require.Len(t, ann.BeliefMean, 2)
}

func TestStepRejectsWrongDimensionObservation(t *testing.T) {
	cfg := testConfig()
	a := newTestAgent(t, cfg, false)

	_, _, err := a.Step(0, []float64{0.1}, nil, nil)
	require.Error(t, err)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
}

func TestStepRejectsNonFiniteObservation(t *testing.T) {
	cfg := testConfig()
	a := newTestAgent(t, cfg, false)

	_, _, err := a.Step(0, []float64{math.NaN(), 0.1}, nil, nil)
	require.Error(t, err)
}

func TestBothMessageActivatesCredalSet(t *testing.T) {
	cfg := testConfig()
	cfg.Query.Enabled = false
	a := newTestAgent(t, cfg, false)

	claim := message.Claim{
		ID:        "north",
		Predicate: message.HalfPlane([]float64{0, -1}, 0),
		Value:     belnap.Both,
	}
	msgs := []message.Message{{Claim: claim, SourceID: "gossip"}}

	_, ann, err := a.Step(0, []float64{0.5, 0.5}, msgs, nil)
	require.NoError(t, err)
	require.True(t, ann.CredalSetActive)
	require.Equal(t, cfg.Credal.K, ann.CredalK)
	require.True(t, a.Belief().IsCredal())
}

func TestFilterEmitsActivationWhenDrivingIntoObstacle(t *testing.T) {
	cfg := testConfig()
	cfg.Query.Enabled = false
	// Goal on the far side of the obstacle: the nominal action from (0.5, 0.5)
	// points straight at the origin and violates the CBF constraint.
	cfg.Env.GoalRegion = []float64{-0.8, -0.8}
	cfg.Env.MaxAction = 1.0
	a := newTestAgent(t, cfg, true)

	action, ann, err := a.Step(0, []float64{0.5, 0.5}, nil, nil)
	require.NoError(t, err)
	require.Empty(t, ann.FilterError)
	require.Len(t, action, 2)
	require.True(t, ann.FilterActive)
}

func TestUpdateTrustAdjustsReliability(t *testing.T) {
	cfg := testConfig()
	a := newTestAgent(t, cfg, false)

	before := a.SourceReliability("alice")
	require.NoError(t, a.UpdateTrust("alice", true, 5.0))
	after := a.SourceReliability("alice")
	require.Greater(t, after, before)
}

func TestUpdateTrustRejectsNonPositiveWeight(t *testing.T) {
	cfg := testConfig()
	a := newTestAgent(t, cfg, false)

	require.Error(t, a.UpdateTrust("bob", true, 0))
}

func TestResetBeliefClearsCredalSet(t *testing.T) {
	cfg := testConfig()
	cfg.Query.Enabled = false
	a := newTestAgent(t, cfg, false)

	claim := message.Claim{
		ID:        "north",
		Predicate: message.HalfPlane([]float64{0, -1}, 0),
		Value:     belnap.Both,
	}
	_, _, err := a.Step(0, []float64{0.5, 0.5}, []message.Message{{Claim: claim, SourceID: "gossip"}}, nil)
	require.NoError(t, err)
	require.True(t, a.Belief().IsCredal())

	source := rng.New(3)
	b, err := belief.New(cfg.Belief.Particles, cfg.Env.StateDim, cfg.Belief.ResampleThreshold, source)
	require.NoError(t, err)
	a.ResetBelief(b)
	require.False(t, a.Belief().IsCredal())
}
