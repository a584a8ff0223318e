// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads and validates the agent's hierarchical
// configuration from YAML, following the same validated-parameters
// pattern as the consensus engine's own config package: a Configuration
// struct with named presets and a Validate method that returns sentinel
// errors rather than panicking.
package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sentinel validation errors, one per offending field, in the style the
// agent's other packages use for boundary-level errors.
var (
	ErrInvalidDiscount           = errors.New("config: discount must be in (0, 1]")
	ErrInvalidSeed               = errors.New("config: seed must be non-negative")
	ErrInvalidHorizon            = errors.New("config: horizon must be >= 1")
	ErrInvalidParticleCount      = errors.New("config: belief.particles must be >= 100")
	ErrInvalidResampleThreshold  = errors.New("config: belief.resample_threshold must be in [0.1, 0.9]")
	ErrInvalidObservationNoise   = errors.New("config: env.observation_noise must be positive")
	ErrInvalidRiskAlpha          = errors.New("config: risk.alpha must be in (0, 1]")
	ErrNestedRiskUnsupported     = errors.New("config: risk.nested=true is not supported")
	ErrInvalidBarrierAlpha       = errors.New("config: safety.barrier_alpha must be positive")
	ErrInvalidSlackPenalty       = errors.New("config: safety.slack_penalty must be positive")
	ErrInvalidQPMaxIter          = errors.New("config: safety.qp_max_iter must be positive")
	ErrInvalidTrustInit          = errors.New("config: credal.trust_init must be in (0, 1)")
	ErrInvalidQueryCost          = errors.New("config: query.cost must be non-negative")
	ErrInvalidDeltaStar          = errors.New("config: query.delta_star must be positive")
	ErrInvalidCredalK            = errors.New("config: credal.k must be positive")
	ErrUnknownConfigField        = errors.New("config: unknown field in YAML document")
)

// EnvConfig configures the demonstration environment.
type EnvConfig struct {
	StateDim          int       `yaml:"state_dim"`
	ActionDim         int       `yaml:"action_dim"`
	ObstacleRadius    float64   `yaml:"obstacle_radius"`
	ObstacleCenter    []float64 `yaml:"obstacle_center"`
	GoalRegion        []float64 `yaml:"goal_region"`
	GoalRadius        float64   `yaml:"goal_radius"`
	ObservationNoise  float64   `yaml:"observation_noise"`
	MaxAction         float64   `yaml:"max_action"`
	GossipProbability float64   `yaml:"gossip_probability"`
}

// RiskConfig configures the CVaR risk level.
type RiskConfig struct {
	Mode   string  `yaml:"mode"`
	Alpha  float64 `yaml:"alpha"`
	Nested bool    `yaml:"nested"`
}

// SafetyConfig configures the CBF-QP safety filter.
type SafetyConfig struct {
	CBF          bool    `yaml:"cbf"`
	BarrierAlpha float64 `yaml:"barrier_alpha"`
	QPMaxIter    int     `yaml:"qp_max_iter"`
	QPSlack      float64 `yaml:"qp_slack"`
	SlackPenalty float64 `yaml:"slack_penalty"`
}

// BeliefConfig configures particle-filter belief tracking.
type BeliefConfig struct {
	Particles         int     `yaml:"particles"`
	ResampleThreshold float64 `yaml:"resample_threshold"`
	ProcessNoise      float64 `yaml:"process_noise"`
}

// QueryConfig configures active information acquisition.
type QueryConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Cost      float64 `yaml:"cost"`
	DeltaStar float64 `yaml:"delta_star"`
	NSamples  int     `yaml:"n_samples"`
}

// CredalConfig configures credal-set expansion under contradictions.
type CredalConfig struct {
	K         int     `yaml:"k"`
	TrustInit float64 `yaml:"trust_init"`
}

// Configuration is the master, validated configuration object.
type Configuration struct {
	Seed     int64        `yaml:"seed"`
	Discount float64      `yaml:"discount"`
	Horizon  int          `yaml:"horizon"`
	Env      EnvConfig    `yaml:"env"`
	Risk     RiskConfig   `yaml:"risk"`
	Safety   SafetyConfig `yaml:"safety"`
	Belief   BeliefConfig `yaml:"belief"`
	Query    QueryConfig  `yaml:"query"`
	Credal   CredalConfig `yaml:"credal"`

	frozen bool
}

// Default returns the baseline configuration, matching the reference
// implementation's defaults.
func Default() Configuration {
	return Configuration{
		Seed:     42,
		Discount: 0.98,
		Horizon:  50,
		Env: EnvConfig{
			StateDim:          2,
			ActionDim:         2,
			ObstacleRadius:    0.3,
			ObstacleCenter:    []float64{0.0, 0.0},
			GoalRegion:        []float64{0.8, 0.8},
			GoalRadius:        0.1,
			ObservationNoise:  0.1,
			MaxAction:         0.15,
			GossipProbability: 0.1,
		},
		Risk: RiskConfig{Mode: "cvar", Alpha: 0.1, Nested: false},
		Safety: SafetyConfig{
			CBF:          true,
			BarrierAlpha: 0.5,
			QPMaxIter:    200,
			QPSlack:      1e-3,
			SlackPenalty: 1000.0,
		},
		Belief: BeliefConfig{Particles: 5000, ResampleThreshold: 0.5, ProcessNoise: 0.01},
		Query:  QueryConfig{Enabled: false, Cost: 0.2, DeltaStar: 0.15, NSamples: 100},
		Credal: CredalConfig{K: 5, TrustInit: 0.7},
	}
}

// Fast returns a low-fidelity preset for quick iteration: fewer particles
// and a shorter horizon, at the cost of noisier belief estimates.
func Fast() Configuration {
	c := Default()
	c.Belief.Particles = 500
	c.Horizon = 20
	c.Query.NSamples = 20
	return c
}

// HighFidelity returns a preset tuned for evaluation runs: more particles,
// more EVI samples, a longer horizon.
func HighFidelity() Configuration {
	c := Default()
	c.Belief.Particles = 20000
	c.Horizon = 200
	c.Query.NSamples = 500
	return c
}

// Load reads and validates a Configuration from a YAML file at path,
// starting from Default() and overlaying whatever fields are present.
// Unknown fields in the document are a hard error.
func Load(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and decodes a YAML document into a Configuration,
// starting from Default().
func Parse(data []byte) (Configuration, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Configuration{}, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
	}

	if err := cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	cfg.frozen = true
	return cfg, nil
}

// Validate checks every bound the agent loop depends on holding. It is
// called automatically by Load/Parse, and should also be called by any
// code constructing a Configuration by hand (e.g. in tests).
func (c *Configuration) Validate() error {
	if c.Discount <= 0 || c.Discount > 1.0 {
		return ErrInvalidDiscount
	}
	if c.Seed < 0 {
		return ErrInvalidSeed
	}
	if c.Horizon < 1 {
		return ErrInvalidHorizon
	}
	if c.Belief.Particles < 100 {
		return ErrInvalidParticleCount
	}
	if c.Belief.ResampleThreshold < 0.1 || c.Belief.ResampleThreshold > 0.9 {
		return ErrInvalidResampleThreshold
	}
	if c.Env.ObservationNoise <= 0 {
		return ErrInvalidObservationNoise
	}
	if c.Risk.Alpha <= 0 || c.Risk.Alpha > 1.0 {
		return ErrInvalidRiskAlpha
	}
	if c.Risk.Nested {
		return ErrNestedRiskUnsupported
	}
	if c.Safety.BarrierAlpha <= 0 {
		return ErrInvalidBarrierAlpha
	}
	if c.Safety.SlackPenalty <= 0 {
		return ErrInvalidSlackPenalty
	}
	if c.Safety.QPMaxIter <= 0 {
		return ErrInvalidQPMaxIter
	}
	if c.Credal.K <= 0 {
		return ErrInvalidCredalK
	}
	if c.Credal.TrustInit <= 0 || c.Credal.TrustInit >= 1 {
		return ErrInvalidTrustInit
	}
	if c.Query.Cost < 0 {
		return ErrInvalidQueryCost
	}
	if c.Query.DeltaStar <= 0 {
		return ErrInvalidDeltaStar
	}
	return nil
}

// Warnings reports non-fatal configuration concerns: bounds Validate lets
// through but that the caller should still be told about, per spec §4.9's
// "warn, not fail" bounds (large particle counts, a slack penalty weak
// enough to undercut the safety filter). Callers log these the same way
// the agent loop surfaces a NumericWarning — observable, never an error.
func (c *Configuration) Warnings() []string {
	var warnings []string
	if c.Belief.Particles > 100000 {
		warnings = append(warnings, fmt.Sprintf("belief.particles=%d exceeds 100000; resampling will be slow", c.Belief.Particles))
	}
	if c.Safety.SlackPenalty < 1 {
		warnings = append(warnings, fmt.Sprintf("safety.slack_penalty=%g is below 1; the CBF-QP may trade away more safety margin than intended", c.Safety.SlackPenalty))
	}
	return warnings
}

// IsFrozen reports whether this Configuration was produced by Load/Parse
// (and therefore already validated) as opposed to built by hand.
func (c *Configuration) IsFrozen() bool { return c.frozen }

// Hash returns a short, deterministic fingerprint of c, for tagging
// episode logs (spec §6.2's config_hash field) so a later evaluate run can
// tell which configuration produced which rollout.
func (c Configuration) Hash() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}
