// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Command rsa-agent runs, calibrates, and evaluates the robust semantic
// agent: rollout drives episodes through the demonstration environment,
// calibrate fits the Belnap thresholds to a target calibration error, and
// evaluate turns logged episodes into risk and safety reports.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configError marks a failure in loading or validating a configuration
// file, as opposed to a failure while running against an already-valid
// one. Subcommands wrap errors in this type at the point they know which
// kind occurred; exitCode unwraps it to choose between exit codes 1 and 2.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// exitCode classifies an error per the CLI's three-tier contract: 0 on
// success, 1 when the configuration is invalid, 2 for anything else
// (environment, I/O, or solver failures the caller cannot repair by
// editing the config file).
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return 1
	}
	return 2
}

var rootCmd = &cobra.Command{
	Use:   "rsa-agent",
	Short: "Robust semantic agent: rollout, calibrate, and evaluate",
	Long: `rsa-agent drives the particle-filter belief, Belnap semantic layer,
CBF-QP safety filter, and proportional-to-goal policy described in the
agent's configuration through a demonstration environment, and turns the
resulting episode logs into calibration, safety, and risk reports.`,
}

func main() {
	rootCmd.AddCommand(
		rolloutCmd(),
		calibrateCmd(),
		evaluateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
