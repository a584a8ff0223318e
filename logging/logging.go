// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logging wraps go.uber.org/zap behind a narrow interface so the
// agent loop and CLI commands log through an injected logger rather than a
// global (the safety filter reports slack warnings through its
// LastSlackWarning field, which the agent logs), and tests can swap in a no-op
// sink without linking zap's production encoders.
package logging

import "go.uber.org/zap"

// Logger is the narrow logging surface the rest of the module depends on.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Sync() error
}

// NewProduction returns a JSON-encoded, info-level production logger.
func NewProduction() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l, nil
}

// NewDevelopment returns a human-readable, debug-level development logger.
func NewDevelopment() (Logger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return l, nil
}

// NewNoOp returns a Logger that discards everything, for tests and library
// callers that don't want the module writing to stderr on their behalf.
func NewNoOp() Logger {
	return zap.NewNop()
}
