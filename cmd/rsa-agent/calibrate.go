// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/x0rium/robust-semantic-agent/belnap"
	"github.com/x0rium/robust-semantic-agent/internal/rng"
	"github.com/x0rium/robust-semantic-agent/report"
)

func calibrateCmd() *cobra.Command {
	var (
		input     string
		targetECE float64
		output    string
		nSamples  int
		seed      int64
	)

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Calibrate the Belnap TRUE/FALSE thresholds to a target calibration error",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalibrate(input, targetECE, output, nSamples, seed)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Path to labeled calibration data (JSONL of {s_c, s_bar_c, ground_truth}). If omitted, synthetic data is generated")
	cmd.Flags().Float64Var(&targetECE, "target-ece", 0.05, "Target Expected Calibration Error")
	cmd.Flags().StringVar(&output, "output", "reports/calibration", "Output directory for calibration results")
	cmd.Flags().IntVar(&nSamples, "n-samples", 500, "Number of synthetic samples if --input is omitted")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for synthetic data generation")

	return cmd
}

// calibrationRecord is one labeled (support, countersupport, ground truth)
// triple, the JSONL shape calibrate reads from --input.
type calibrationRecord struct {
	SupportC        float64 `json:"s_c"`
	CountersupportC float64 `json:"s_bar_c"`
	GroundTruth     int     `json:"ground_truth"`
}

func runCalibrate(input string, targetECE float64, output string, nSamples int, seed int64) error {
	var records []calibrationRecord
	var err error
	if input != "" {
		records, err = loadCalibrationRecords(input)
		if err != nil {
			return &configError{err}
		}
	} else {
		records = syntheticCalibrationData(nSamples, seed)
	}
	if len(records) == 0 {
		return &configError{fmt.Errorf("calibrate: no calibration samples available")}
	}

	samples := make([]belnap.LabeledSample, len(records))
	for i, r := range records {
		samples[i] = belnap.LabeledSample{
			SupportC:        r.SupportC,
			CountersupportC: r.CountersupportC,
			GroundTruth:     r.GroundTruth,
		}
	}

	result, err := belnap.Calibrate(samples, nil, targetECE)
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}

	predictionsBefore, predictionsAfter, outcomes := surrogatePredictions(samples, result)
	brierBefore := belnap.BrierScore(predictionsBefore, outcomes)
	brierAfter := belnap.BrierScore(predictionsAfter, outcomes)

	summaryBefore, err := report.Summarize(predictionsBefore, outcomes, 10)
	if err != nil {
		return fmt.Errorf("calibrate: summarizing pre-calibration predictions: %w", err)
	}
	summaryAfter, err := report.Summarize(predictionsAfter, outcomes, 10)
	if err != nil {
		return fmt.Errorf("calibrate: summarizing post-calibration predictions: %w", err)
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("calibrate: creating output directory: %w", err)
	}
	if err := writeCalibrationResults(output, result, brierBefore, brierAfter, summaryBefore.AUC, summaryAfter.AUC, len(samples), targetECE); err != nil {
		return fmt.Errorf("calibrate: writing results: %w", err)
	}

	printCalibrationSummary(len(samples), result, brierBefore, brierAfter, summaryBefore.AUC, summaryAfter.AUC, targetECE, output)
	return nil
}

type calibrationResultsDoc struct {
	TauOptimal      float64 `json:"tau_optimal"`
	TauPrimeOptimal float64 `json:"tau_prime_optimal"`
	ECEBefore       float64 `json:"ece_before"`
	ECEAfter        float64 `json:"ece_after"`
	BrierBefore     float64 `json:"brier_before"`
	BrierAfter      float64 `json:"brier_after"`
	AUCBefore       float64 `json:"auc_before"`
	AUCAfter        float64 `json:"auc_after"`
	NSamples        int     `json:"n_samples"`
	TargetECE       float64 `json:"target_ece"`
}

func writeCalibrationResults(outputDir string, result belnap.CalibrationResult, brierBefore, brierAfter, aucBefore, aucAfter float64, nSamples int, targetECE float64) error {
	doc := calibrationResultsDoc{
		TauOptimal:      result.Tau,
		TauPrimeOptimal: result.TauPrime,
		ECEBefore:       result.ECEBefore,
		ECEAfter:        result.ECEAfter,
		BrierBefore:     brierBefore,
		BrierAfter:      brierAfter,
		AUCBefore:       aucBefore,
		AUCAfter:        aucAfter,
		NSamples:        nSamples,
		TargetECE:       targetECE,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling calibration results: %w", err)
	}
	path := filepath.Join(outputDir, "calibration_results.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func printCalibrationSummary(nSamples int, result belnap.CalibrationResult, brierBefore, brierAfter, aucBefore, aucAfter, targetECE float64, outputDir string) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Calibration Summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Samples: %d\n", nSamples)
	fmt.Println("\nOptimal Thresholds:")
	fmt.Printf("  tau  (TRUE threshold):  %.4f\n", result.Tau)
	fmt.Printf("  tau' (FALSE threshold): %.4f\n", result.TauPrime)
	fmt.Println("\nExpected Calibration Error (ECE):")
	fmt.Printf("  Before: %.4f\n", result.ECEBefore)
	fmt.Printf("  After:  %.4f\n", result.ECEAfter)
	if result.ECEBefore > 0 {
		fmt.Printf("  Improvement: %.1f%%\n", 100*(result.ECEBefore-result.ECEAfter)/result.ECEBefore)
	}
	fmt.Println("\nBrier Score:")
	fmt.Printf("  Before: %.4f\n", brierBefore)
	fmt.Printf("  After:  %.4f\n", brierAfter)
	fmt.Println("\nAUC:")
	fmt.Printf("  Before: %.4f\n", aucBefore)
	fmt.Printf("  After:  %.4f\n", aucAfter)
	pass := "FAIL"
	if result.ECEAfter <= targetECE {
		pass = "PASS"
	}
	fmt.Printf("\nTarget ECE <= %.4f: %s\n", targetECE, pass)
	fmt.Printf("\nReports saved to: %s\n", outputDir)
	fmt.Println(strings.Repeat("=", 60))
}

func loadCalibrationRecords(path string) ([]calibrationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []calibrationRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec calibrationRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// syntheticCalibrationData generates a well-separated two-cluster dataset:
// half the samples carry high support / low countersupport (ground truth
// TRUE), the other half the reverse, grounded on the reference
// implementation's generate_synthetic_calibration_data.
func syntheticCalibrationData(n int, seed int64) []calibrationRecord {
	source := rng.New(seed)
	half := n / 2

	highSupport := distuv.Beta{Alpha: 5, Beta: 2, Src: source}
	lowSupport := distuv.Beta{Alpha: 2, Beta: 5, Src: source}

	records := make([]calibrationRecord, 0, n)
	for i := 0; i < half; i++ {
		records = append(records, calibrationRecord{
			SupportC:        highSupport.Rand(),
			CountersupportC: lowSupport.Rand(),
			GroundTruth:     1,
		})
	}
	for i := half; i < n; i++ {
		records = append(records, calibrationRecord{
			SupportC:        lowSupport.Rand(),
			CountersupportC: highSupport.Rand(),
			GroundTruth:     0,
		})
	}

	// Fisher-Yates shuffle so the TRUE/FALSE clusters aren't trivially
	// ordered in the output, matching the reference's np.random.permutation.
	for i := len(records) - 1; i > 0; i-- {
		j := source.Intn(i + 1)
		records[i], records[j] = records[j], records[i]
	}
	return records
}

// defaultTau and defaultTauPrime mirror the Belnap status thresholds used
// before calibration (the (0.7, 0.3) baseline belnap.Calibrate uses for
// ECEBefore).
const (
	defaultTau      = 0.7
	defaultTauPrime = 0.3
)

func surrogatePredictions(samples []belnap.LabeledSample, result belnap.CalibrationResult) (before, after, outcomes []float64) {
	before = make([]float64, len(samples))
	after = make([]float64, len(samples))
	outcomes = make([]float64, len(samples))

	for i, s := range samples {
		outcomes[i] = float64(s.GroundTruth)

		vBefore, err := belnap.Status(s.SupportC, s.CountersupportC, defaultTau, defaultTauPrime)
		if err != nil {
			vBefore = belnap.Neither
		}
		before[i] = belnap.ProbabilitySurrogate(vBefore)

		vAfter, err := belnap.Status(s.SupportC, s.CountersupportC, result.Tau, result.TauPrime)
		if err != nil {
			vAfter = belnap.Neither
		}
		after[i] = belnap.ProbabilitySurrogate(vAfter)
	}
	return before, after, outcomes
}
