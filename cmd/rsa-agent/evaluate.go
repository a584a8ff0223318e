// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/x0rium/robust-semantic-agent/episode"
	"github.com/x0rium/robust-semantic-agent/report"
)

func evaluateCmd() *cobra.Command {
	var (
		runsDir     string
		baselineDir string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Generate risk and safety reports from logged episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(runsDir, baselineDir, output)
		},
	}

	cmd.Flags().StringVar(&runsDir, "runs-dir", "", "Directory containing episode logs (JSONL files)")
	cmd.Flags().StringVar(&baselineDir, "baseline-dir", "", "Optional baseline runs directory for comparison")
	cmd.Flags().StringVar(&output, "output", "reports", "Output directory for reports")
	cmd.MarkFlagRequired("runs-dir") //nolint:errcheck

	return cmd
}

var cvarAlphas = []float64{0.05, 0.10, 0.15, 0.20, 0.25, 0.30, 0.40, 0.50, 0.75, 1.00}

func runEvaluate(runsDir, baselineDir, output string) error {
	if _, err := os.Stat(runsDir); err != nil {
		return &configError{fmt.Errorf("evaluate: runs directory not found: %w", err)}
	}

	episodes, err := episode.LoadDir(runsDir)
	if err != nil {
		return &configError{err}
	}
	if len(episodes) == 0 {
		return &configError{fmt.Errorf("evaluate: no episode logs found in %s", runsDir)}
	}

	var baselineEpisodes []*episode.Episode
	if baselineDir != "" {
		baselineEpisodes, err = episode.LoadDir(baselineDir)
		if err != nil {
			return &configError{err}
		}
	}

	riskDir := filepath.Join(output, "risk")
	safetyDir := filepath.Join(output, "safety")
	for _, dir := range []string{riskDir, safetyDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("evaluate: creating %s: %w", dir, err)
		}
	}

	returns := totalReturns(episodes)
	baselineReturns := totalReturns(baselineEpisodes)

	curve, err := report.CVaRCurve(returns, cvarAlphas, baselineReturns)
	if err != nil {
		return fmt.Errorf("evaluate: computing CVaR curve: %w", err)
	}
	if err := writeJSON(filepath.Join(riskDir, "cvar_curve.json"), curve); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	tail, err := report.SummarizeTail(returns)
	if err != nil {
		return fmt.Errorf("evaluate: summarizing tail distribution: %w", err)
	}
	if err := writeJSON(filepath.Join(riskDir, "tail_distribution.json"), tail); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	safety := report.SummarizeSafety(episodes)
	if err := writeJSON(filepath.Join(safetyDir, "violation_stats.json"), safety); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	var cvar01, cvar01Baseline *float64
	for _, p := range curve {
		if p.Alpha == 0.10 {
			v := p.CVaR
			cvar01 = &v
			if p.HasBaseline {
				bv := p.BaselineCVaR
				cvar01Baseline = &bv
			}
		}
	}

	summary := evaluationSummary{
		Episodes:         len(episodes),
		TotalSteps:       safety.TotalSteps,
		MeanReturn:       tail.Mean,
		StdReturn:        tail.StdDev,
		GoalSuccessRate:  goalSuccessRate(episodes),
		CVaR01:           cvar01,
		CVaR01Baseline:   cvar01Baseline,
		ZeroViolations:   safety.ZeroViolations,
		FilterAboveFloor: safety.FilterActivationAboveFloor,
		RiskAverseVsBase: cvar01 != nil && cvar01Baseline != nil && *cvar01 >= *cvar01Baseline,
		Safety:           safety,
	}
	if err := writeJSON(filepath.Join(output, "summary.json"), summary); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	printEvaluationSummary(summary, output)
	return nil
}

type evaluationSummary struct {
	Episodes         int                  `json:"episodes"`
	TotalSteps       int                  `json:"total_steps"`
	MeanReturn       float64              `json:"mean_return"`
	StdReturn        float64              `json:"std_return"`
	GoalSuccessRate  float64              `json:"goal_success_rate"`
	CVaR01           *float64             `json:"cvar_01"`
	CVaR01Baseline   *float64             `json:"cvar_01_baseline"`
	ZeroViolations   bool                 `json:"zero_violations"`
	FilterAboveFloor bool                 `json:"filter_activation_above_floor"`
	RiskAverseVsBase bool                 `json:"risk_averse_vs_baseline"`
	Safety           report.SafetySummary `json:"safety"`
}

func totalReturns(episodes []*episode.Episode) []float64 {
	returns := make([]float64, len(episodes))
	for i, ep := range episodes {
		returns[i] = ep.TotalReturn
	}
	return returns
}

func goalSuccessRate(episodes []*episode.Episode) float64 {
	if len(episodes) == 0 {
		return 0
	}
	successes := 0
	for _, ep := range episodes {
		for _, step := range ep.Steps {
			if v, ok := step.Info["goal_reached"]; ok {
				if b, ok := v.(bool); ok && b {
					successes++
					break
				}
			}
		}
	}
	return float64(successes) / float64(len(episodes))
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func printEvaluationSummary(s evaluationSummary, outputDir string) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Evaluation Summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Episodes: %d\n", s.Episodes)
	fmt.Printf("Total Steps: %d\n", s.TotalSteps)
	fmt.Println("\nPerformance:")
	fmt.Printf("  Mean Return: %.2f (stddev %.2f)\n", s.MeanReturn, s.StdReturn)
	fmt.Printf("  Goal Success Rate: %.1f%%\n", 100*s.GoalSuccessRate)
	if s.CVaR01 != nil {
		fmt.Printf("  CVaR@0.1: %.2f\n", *s.CVaR01)
	}

	fmt.Println("\nSafety:")
	fmt.Printf("  Violations: %d\n", s.Safety.Violations)
	fmt.Printf("  Violation Rate: %.4f%%\n", 100*s.Safety.ViolationRate)
	fmt.Printf("  Filter Activations: %d (%.2f%%)\n", s.Safety.FilterActivations, 100*s.Safety.FilterActivationRate)

	fmt.Println("\nSuccess Criteria:")
	fmt.Printf("  Zero safety violations: %s\n", passFail(s.ZeroViolations))
	fmt.Printf("  Filter activation >= 1%%: %s\n", passFail(s.FilterAboveFloor))
	if s.CVaR01Baseline != nil {
		fmt.Printf("  CVaR >= baseline: %s\n", passFail(s.RiskAverseVsBase))
	} else {
		fmt.Println("  CVaR >= baseline: N/A (no baseline supplied)")
	}

	fmt.Printf("\nReports saved to: %s\n", outputDir)
	fmt.Println(strings.Repeat("=", 60))
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
