// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package belnap

import "fmt"

// DomainError reports a boundary-level invalid input, per the error-kinds
// design: never caught inside the core, always surfaced to the caller.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("belnap: %s: %s", e.Op, e.Msg)
}

// Status assigns a Belnap value from support sC and countersupport sBarC,
// both in [0, 1], using high threshold tau (> 0.5) and low threshold
// tauPrime (< 0.5). Ties at tau are classified TRUE/FALSE (inclusive).
func Status(sC, sBarC, tau, tauPrime float64) (Value, error) {
	if sC < 0 || sC > 1 {
		return Neither, &DomainError{Op: "Status", Msg: fmt.Sprintf("support out of [0,1]: %v", sC)}
	}
	if sBarC < 0 || sBarC > 1 {
		return Neither, &DomainError{Op: "Status", Msg: fmt.Sprintf("countersupport out of [0,1]: %v", sBarC)}
	}

	switch {
	case sC >= tau && sBarC < tauPrime:
		return True, nil
	case sBarC >= tau && sC < tauPrime:
		return False, nil
	case sC >= tau && sBarC >= tau:
		return Both, nil
	default:
		return Neither, nil
	}
}

// ProbabilitySurrogate maps a status back onto [0,1] for calibration
// comparisons, per the fixed surrogate table in spec §4.1.
func ProbabilitySurrogate(v Value) float64 {
	switch v {
	case True:
		return 0.9
	case False:
		return 0.1
	default: // Neither, Both
		return 0.5
	}
}
