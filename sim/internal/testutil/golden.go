// Package testutil provides shared test infrastructure for the allocation
// simulator: canonical scenario data and floating-point assertion helpers
// used across sim/ and its sub-package tests. It has no dependency on sim/ so
// that sim's own tests can import it.
package testutil

import (
	"math"
	"testing"
)

// Scenario is raw instance data for a named test scenario.
type Scenario struct {
	Name     string
	Values   []float64
	Demands  [][]float64
	Capacity []float64
}

// ScenarioA: three identical items of which only two fit in one resource.
func ScenarioA() Scenario {
	return Scenario{
		Name:     "three-items-two-fit",
		Values:   []float64{1, 1, 1},
		Demands:  [][]float64{{4}, {4}, {4}},
		Capacity: []float64{10},
	}
}

// ScenarioB: two small items over two resources that both fit.
func ScenarioB() Scenario {
	return Scenario{
		Name:     "two-items-all-fit",
		Values:   []float64{10, 10},
		Demands:  [][]float64{{1, 1}, {1, 1}},
		Capacity: []float64{5, 5},
	}
}

// ScenarioTaskAllocation: ten tasks over two resources, capacity 100 each.
func ScenarioTaskAllocation() Scenario {
	return Scenario{
		Name:   "ten-tasks",
		Values: []float64{6, 4, 8, 14, 14, 13, 12, 17, 12, 13},
		Demands: [][]float64{
			{6, 12}, {4, 17}, {8, 14}, {14, 7}, {14, 9},
			{13, 12}, {12, 14}, {17, 10}, {12, 15}, {13, 14},
		},
		Capacity: []float64{100, 100},
	}
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertUnitInterval fails if any value lies outside [0, 1].
func AssertUnitInterval(t *testing.T, name string, values []float64) {
	t.Helper()
	for i, v := range values {
		if v < 0 || v > 1 || math.IsNaN(v) {
			t.Errorf("%s[%d] = %v, want within [0, 1]", name, i, v)
		}
	}
}
