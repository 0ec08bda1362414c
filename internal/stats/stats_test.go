package stats

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 5},
		{"several", []float64{1, 2, 3, 4}, 2.5},
		{"negative", []float64{-2, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.values)
			if got != tt.want {
				t.Errorf("Mean(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestStddev(t *testing.T) {
	// Sample stddev of {2, 4, 4, 4, 5, 5, 7, 9} with n-1 denominator.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := Stddev(values)
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Stddev = %v, want %v", got, want)
	}

	if got := Stddev([]float64{1}); got != 0 {
		t.Errorf("Stddev of single value = %v, want 0", got)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	tests := []struct {
		p    float64
		want float64
	}{
		{0.0, 10},
		{0.50, 30},
		{0.25, 20},
		{0.10, 14}, // idx 0.4 -> 10 + 0.4*(20-10)
		{0.90, 46},
		{1.0, 50},
	}

	for _, tt := range tests {
		got := Percentile(sorted, tt.p)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Percentile(p=%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if got := Percentile(nil, 0.5); got != 0 {
		t.Errorf("Percentile of empty = %v, want 0", got)
	}
}

func TestSummarize(t *testing.T) {
	values := []float64{3, 1, 2}
	s := Summarize(values)

	if s.Mean != 2 {
		t.Errorf("Mean = %v, want 2", s.Mean)
	}
	if s.Median != 2 {
		t.Errorf("Median = %v, want 2", s.Median)
	}
	if s.Min != 1 || s.Max != 3 {
		t.Errorf("Min/Max = %v/%v, want 1/3", s.Min, s.Max)
	}

	// Summarize must not reorder the input slice.
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input slice mutated: %v", values)
	}
}
