// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/x0rium/robust-semantic-agent/agent"
	"github.com/x0rium/robust-semantic-agent/barrier"
	"github.com/x0rium/robust-semantic-agent/belief"
	"github.com/x0rium/robust-semantic-agent/config"
	"github.com/x0rium/robust-semantic-agent/envs/forbiddencircle"
	"github.com/x0rium/robust-semantic-agent/episode"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
	"github.com/x0rium/robust-semantic-agent/logging"
	"github.com/x0rium/robust-semantic-agent/metrics"
	"github.com/x0rium/robust-semantic-agent/policy"
	"github.com/x0rium/robust-semantic-agent/report"
	"github.com/x0rium/robust-semantic-agent/safety"
)

func rolloutCmd() *cobra.Command {
	var (
		configPath  string
		episodes    int
		logDir      string
		enableQuery bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Run agent rollouts against the demonstration environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollout(configPath, episodes, logDir, enableQuery, verbose)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "configs/default.yaml", "Path to configuration file")
	cmd.Flags().IntVar(&episodes, "episodes", 10, "Number of episodes to run")
	cmd.Flags().StringVar(&logDir, "log-dir", "runs", "Directory for episode logs")
	cmd.Flags().BoolVar(&enableQuery, "enable-query", false, "Enable the active query channel")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	return cmd
}

func runRollout(configPath string, episodes int, logDir string, enableQuery, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return &configError{err}
	}
	if enableQuery {
		cfg.Query.Enabled = true
	}

	logger, err := newCLILogger(verbose)
	if err != nil {
		return fmt.Errorf("rollout: building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	source := rng.New(cfg.Seed)
	env := forbiddencircle.New(cfg.Env, source)
	env.EnableGossipSource = cfg.Env.GossipProbability > 0
	env.MaxTimesteps = cfg.Horizon

	goalPolicy, err := policy.NewProportional(cfg.Env.GoalRegion, cfg.Env.MaxAction)
	if err != nil {
		return fmt.Errorf("rollout: building policy: %w", err)
	}

	circle, err := barrier.NewCircle(cfg.Env.ObstacleRadius, cfg.Env.ObstacleCenter)
	if err != nil {
		return fmt.Errorf("rollout: building barrier: %w", err)
	}
	var filter *safety.Filter
	if cfg.Safety.CBF {
		filter, err = safety.New(circle, cfg.Safety.BarrierAlpha, cfg.Safety.SlackPenalty, cfg.Safety.QPMaxIter)
		if err != nil {
			return fmt.Errorf("rollout: building safety filter: %w", err)
		}
	}

	b, err := belief.New(cfg.Belief.Particles, cfg.Env.StateDim, cfg.Belief.ResampleThreshold, source)
	if err != nil {
		return fmt.Errorf("rollout: building belief: %w", err)
	}

	registry := prometheus.NewRegistry()
	agentMetrics := metrics.NewAgent(registry)

	ag, err := agent.New(agent.Options{
		Config:  cfg,
		Policy:  goalPolicy,
		Filter:  filter,
		Belief:  b,
		RNG:     source,
		Logger:  logger,
		Metrics: agentMetrics,
	})
	if err != nil {
		return fmt.Errorf("rollout: constructing agent: %w", err)
	}

	runDir := filepath.Join(logDir, stampedRunName())
	logFile := filepath.Join(runDir, "episodes.jsonl")
	configHash := cfg.Hash()

	records := make([]*episode.Episode, 0, episodes)
	goalSuccesses := 0
	queryTriggers, totalStepsWithQuery := 0, 0
	var entropyReductions []float64

	for ep := 0; ep < episodes; ep++ {
		obs := env.Reset()
		epBelief := b
		if ep > 0 {
			freshBelief, err := belief.New(cfg.Belief.Particles, cfg.Env.StateDim, cfg.Belief.ResampleThreshold, source)
			if err != nil {
				return fmt.Errorf("rollout: resetting belief for episode %d: %w", ep, err)
			}
			epBelief = freshBelief
		}
		// Draw the episode's prior particles around the reset observation.
		for _, p := range epBelief.Particles {
			for d := range p {
				p[d] = obs[d] + source.NormFloat64()*cfg.Env.ObservationNoise
			}
		}
		ag.ResetBelief(epBelief)

		record := episode.New(ep, configHash)
		done := false
		timestep := 0
		var lastInfo forbiddencircle.StepInfo

		var queryChannel agent.QueryChannel
		if cfg.Query.Enabled {
			queryChannel = env
		}

		for !done {
			messages := env.GetMessages()
			action, ann, err := ag.Step(timestep, obs, messages, queryChannel)
			if err != nil {
				return fmt.Errorf("rollout: episode %d step %d: %w", ep, timestep, err)
			}

			nextObs, reward, stepDone, info, err := env.Step(action)
			if err != nil {
				return fmt.Errorf("rollout: episode %d step %d: %w", ep, timestep, err)
			}

			record.AddStep(info.TrueState, action, obs, reward, stepInfoMap(ann, info))

			if cfg.Query.Enabled {
				totalStepsWithQuery++
				if ann.QueryTriggered {
					queryTriggers++
					if ann.HBefore > 0 {
						entropyReductions = append(entropyReductions, (ann.HBefore-ann.HAfter)/ann.HBefore)
					}
				}
			}

			obs = nextObs
			done = stepDone
			lastInfo = info
			timestep++
		}

		if lastInfo.GoalReached {
			goalSuccesses++
		}
		records = append(records, record)

		if err := record.Save(logFile); err != nil {
			return fmt.Errorf("rollout: saving episode %d: %w", ep, err)
		}
		logger.Info(fmt.Sprintf("episode %d/%d: return=%.2f steps=%d goal=%v",
			ep+1, episodes, record.TotalReturn, len(record.Steps), lastInfo.GoalReached))
	}

	return printRolloutSummary(rolloutSummaryInput{
		episodes:            episodes,
		logFile:             logFile,
		records:             records,
		goalSuccesses:       goalSuccesses,
		queryEnabled:        cfg.Query.Enabled,
		queryTriggers:       queryTriggers,
		totalStepsWithQuery: totalStepsWithQuery,
		entropyReductions:   entropyReductions,
	})
}

func stepInfoMap(ann agent.StepAnnotation, info forbiddencircle.StepInfo) map[string]interface{} {
	return map[string]interface{}{
		"filter_active":     ann.FilterActive,
		"credal_set_active": ann.CredalSetActive,
		"credal_k":          ann.CredalK,
		"query_triggered":   ann.QueryTriggered,
		"entropy_before":    ann.HBefore,
		"entropy_after":     ann.HAfter,
		"violated_safety":   info.ViolatedSafety,
		"goal_reached":      info.GoalReached,
	}
}

type rolloutSummaryInput struct {
	episodes            int
	logFile             string
	records             []*episode.Episode
	goalSuccesses       int
	queryEnabled        bool
	queryTriggers       int
	totalStepsWithQuery int
	entropyReductions   []float64
}

func printRolloutSummary(in rolloutSummaryInput) error {
	returns := make([]float64, len(in.records))
	for i, r := range in.records {
		returns[i] = r.TotalReturn
	}

	safetySummary := report.SummarizeSafety(in.records)

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Rollout Summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Episodes: %d\n", in.episodes)

	if len(returns) > 0 {
		tail, err := report.SummarizeTail(returns)
		if err != nil {
			return fmt.Errorf("rollout: summarizing returns: %w", err)
		}
		fmt.Printf("Average Return: %.2f (stddev %.2f)\n", tail.Mean, tail.StdDev)
	}
	fmt.Printf("Goal Success Rate: %.1f%%\n", 100*float64(in.goalSuccesses)/float64(in.episodes))
	fmt.Printf("Safety Violations: %d / %d steps\n", safetySummary.Violations, safetySummary.TotalSteps)
	if safetySummary.TotalSteps > 0 {
		fmt.Printf("Filter Activation Rate: %.2f%%\n", 100*safetySummary.FilterActivationRate)
	} else {
		fmt.Println("Filter Activation Rate: N/A")
	}

	if in.queryEnabled {
		fmt.Println("\nQuery Action Statistics:")
		if in.totalStepsWithQuery > 0 {
			fmt.Printf("  Queries Triggered: %d / %d steps (%.2f%%)\n",
				in.queryTriggers, in.totalStepsWithQuery, 100*float64(in.queryTriggers)/float64(in.totalStepsWithQuery))
		}
		if len(in.entropyReductions) > 0 {
			meanReduction, err := report.SummarizeTail(in.entropyReductions)
			if err != nil {
				return fmt.Errorf("rollout: summarizing entropy reduction: %w", err)
			}
			fmt.Printf("  Average Entropy Reduction: %.2f%%\n", 100*meanReduction.Mean)
		}
	}

	fmt.Printf("\nLogs saved to: %s\n", in.logFile)
	fmt.Println(strings.Repeat("=", 60))
	return nil
}

func stampedRunName() string {
	return time.Now().UTC().Format("20060102_150405")
}

func newCLILogger(verbose bool) (logging.Logger, error) {
	if verbose {
		return logging.NewDevelopment()
	}
	return logging.NewProduction()
}
