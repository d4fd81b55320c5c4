// Package mathutil provides common mathematical utility functions.
package mathutil

import "math"

// Finite reports whether val is neither NaN nor Inf.
func Finite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// ClampNaN maps Inf of either sign to NaN and passes every other value
// through. NaN is the single degenerate-value sentinel downstream.
func ClampNaN(val float64) float64 {
	if math.IsInf(val, 0) {
		return math.NaN()
	}
	return val
}

// SafeDiv divides num by den, returning NaN when den is zero.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return ClampNaN(num / den)
}

// SafeLog returns ln(val), with NaN for non-positive arguments.
func SafeLog(val float64) float64 {
	if val <= 0 {
		return math.NaN()
	}
	return math.Log(val)
}

// WithinTolerance checks if two values are within a specified tolerance.
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// WeightedMean computes the weights-weighted mean of values, skipping NaN
// entries. When the usable weight sum is zero it falls back to the unweighted
// mean of the finite values; with no finite values at all it returns NaN.
func WeightedMean(values, weights []float64) float64 {
	if len(values) != len(weights) {
		return math.NaN()
	}
	var weightedSum, weightSum float64
	for i, v := range values {
		if math.IsNaN(v) || math.IsNaN(weights[i]) {
			continue
		}
		weightedSum += v * weights[i]
		weightSum += weights[i]
	}
	if weightSum != 0 {
		return weightedSum / weightSum
	}
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Sum adds the finite entries of values, skipping NaN.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		total += v
	}
	return total
}
