// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package barrier defines control barrier functions (CBFs): scalar
// functions h(x) that are non-negative exactly on the safe set, together
// with their gradients for use by a CBF-QP safety filter.
package barrier

import "fmt"

// Function is a control barrier function over the state space: h(x) >= 0
// on the safe set, h(x) < 0 on the unsafe set.
type Function interface {
	// Evaluate returns h(x).
	Evaluate(x []float64) float64
	// Gradient returns ∇h(x), the same dimension as x.
	Gradient(x []float64) []float64
}

// DomainError reports a boundary-level invalid input to the barrier package.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("barrier: %s: %s", e.Op, e.Msg)
}

// Circle is a barrier function for a forbidden circular zone: the safe set
// is S = {x: ||x - center|| >= radius}, with h(x) = ||x - center||^2 -
// radius^2.
type Circle struct {
	Radius float64
	Center []float64
}

// NewCircle returns a circular barrier function; radius must be positive.
func NewCircle(radius float64, center []float64) (*Circle, error) {
	if radius <= 0 {
		return nil, &DomainError{Op: "NewCircle", Msg: fmt.Sprintf("radius must be positive, got %v", radius)}
	}
	return &Circle{Radius: radius, Center: append([]float64(nil), center...)}, nil
}

// Evaluate returns h(x) = ||x - center||^2 - radius^2.
func (c *Circle) Evaluate(x []float64) float64 {
	var sumSq float64
	for i, ci := range c.Center {
		if i < len(x) {
			d := x[i] - ci
			sumSq += d * d
		}
	}
	return sumSq - c.Radius*c.Radius
}

// Gradient returns ∇h(x) = 2(x - center).
//
// For single-integrator dynamics (ẋ = u) the Lie derivatives along the
// dynamics are Lfh(x) = 0 (no drift) and Lgh(x) = ∇h(x), so this gradient
// is exactly the coefficient of u in the CBF constraint.
func (c *Circle) Gradient(x []float64) []float64 {
	grad := make([]float64, len(c.Center))
	for i, ci := range c.Center {
		if i < len(x) {
			grad[i] = 2.0 * (x[i] - ci)
		}
	}
	return grad
}
