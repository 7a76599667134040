package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"below range", []float64{1, 2, 3}, -0.5, 1.0},
		{"above range", []float64{1, 2, 3}, 1.5, 3.0},
		{"constant", []float64{2, 2, 2, 2}, 0.3, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestPercentileMonotone(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	prev := math.Inf(-1)
	for p := 0.0; p <= 1.0; p += 0.05 {
		got := Percentile(sorted, p)
		if got < prev {
			t.Fatalf("Percentile decreased at p=%v: %v < %v", p, got, prev)
		}
		if got < sorted[0] || got > sorted[len(sorted)-1] {
			t.Fatalf("Percentile(%v) = %v outside data range", p, got)
		}
		prev = got
	}
}

func TestComputeEnergyStats(t *testing.T) {
	values := []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	mean, p10, p50, p90 := ComputeEnergyStats(values)

	if math.Abs(mean-0.55) > 1e-9 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if !(p10 <= p50 && p50 <= p90) {
		t.Errorf("percentiles out of order: %v %v %v", p10, p50, p90)
	}
	if p10 < 0.1 || p10 > 0.25 {
		t.Errorf("p10 = %v, want near the low end", p10)
	}
	if p50 < 0.45 || p50 > 0.65 {
		t.Errorf("p50 = %v, want near 0.55", p50)
	}
	if p90 < 0.85 || p90 > 1.0 {
		t.Errorf("p90 = %v, want near the high end", p90)
	}

	// Input must not be reordered
	if values[0] != 1.0 || values[9] != 0.1 {
		t.Error("ComputeEnergyStats sorted its input in place")
	}
}

func TestComputeEnergyStatsEmpty(t *testing.T) {
	mean, p10, p50, p90 := ComputeEnergyStats([]float64{})

	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}
