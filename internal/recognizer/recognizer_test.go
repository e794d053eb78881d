package recognizer

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, expected: 0},
		{name: "three four five", a: []float32{0, 0}, b: []float32{3, 4}, expected: 5},
		{name: "unit axis", a: []float32{1, 0, 0}, b: []float32{0, 1, 0}, expected: math.Sqrt2},
		{name: "length mismatch", a: []float32{1, 2}, b: []float32{1, 2, 3}, expected: math.Inf(1)},
		{name: "empty", a: nil, b: nil, expected: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Distance(tt.a, tt.b)
			if math.IsInf(tt.expected, 1) {
				if !math.IsInf(result, 1) {
					t.Errorf("Distance(%v, %v) = %v, want +Inf", tt.a, tt.b, result)
				}
				return
			}
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("Distance(%v, %v) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestCompareWithTolerance(t *testing.T) {
	known := [][]float32{
		{0, 0},
		{0.5, 0},
		{0.59, 0},
		{1, 0},
	}

	result := CompareWithTolerance(known, []float32{0, 0}, 0.6)
	expected := []bool{true, true, true, false}

	if len(result) != len(expected) {
		t.Fatalf("expected %d flags, got %d", len(expected), len(result))
	}
	for i := range expected {
		if result[i] != expected[i] {
			t.Errorf("flag[%d] = %v, want %v (distance %v)", i, result[i], expected[i], Distance(known[i], []float32{0, 0}))
		}
	}
}

func TestCompareWithTolerance_NoKnown(t *testing.T) {
	result := CompareWithTolerance(nil, []float32{1, 2}, 0.6)
	if len(result) != 0 {
		t.Errorf("expected no flags, got %v", result)
	}
}
