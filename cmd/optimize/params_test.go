package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/organisms/config"
	"github.com/pthm-cable/organisms/evolution"
)

func TestNormalizeRoundTrip(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	raw := pv.ExtractFromConfig(cfg)
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: %v != %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestApplyToConfigClampsAndValidates(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()

	// Far outside every bound
	values := make([]float64, pv.Dim())
	for i := range values {
		values[i] = 100
	}
	pv.ApplyToConfig(cfg, values)

	if cfg.Evolution.MutationChance != 0.5 {
		t.Errorf("mutation_chance = %v, want clamped 0.5", cfg.Evolution.MutationChance)
	}
	if cfg.Evolution.Elitism > cfg.Population.MaxOrganisms/2+1 {
		t.Errorf("elitism = %d exceeds half the population", cfg.Evolution.Elitism)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("applied config invalid: %v", err)
	}

	got := pv.ExtractFromConfig(cfg)
	if len(got) != pv.Dim() {
		t.Fatalf("extracted %d values, want %d", len(got), pv.Dim())
	}
}

func TestClampReplacesNaNWithDefault(t *testing.T) {
	pv := NewParamVector()
	values := make([]float64, pv.Dim())
	values[1] = math.NaN()
	values[4] = -1

	got := pv.Clamp(values)
	if got[1] != pv.Specs[1].Default {
		t.Errorf("NaN %s clamped to %v, want default %v", pv.Specs[1].Name, got[1], pv.Specs[1].Default)
	}
	if got[4] != pv.Specs[4].Min {
		t.Errorf("%s = %v, want min %v", pv.Specs[4].Name, got[4], pv.Specs[4].Min)
	}
}

func TestComputeQuality(t *testing.T) {
	if q := computeQuality(nil, 0); q != 0 {
		t.Errorf("empty run quality = %v, want 0", q)
	}

	scores := []evolution.GenerationScore{
		{Generation: 0, BestEnergy: 100, AverageEnergy: 100}, // ignored, first half
		{Generation: 1, BestEnergy: 4, AverageEnergy: 2},
	}
	want := 2 + 0.25*4
	if q := computeQuality(scores, 0); math.Abs(q-want) > 1e-12 {
		t.Errorf("quality = %v, want %v", q, want)
	}

	// Every generation collapsing halves the score
	if q := computeQuality(scores, 2); math.Abs(q-want/2) > 1e-12 {
		t.Errorf("quality with extinctions = %v, want %v", q, want/2)
	}
}
