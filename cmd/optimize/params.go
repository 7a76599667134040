package main

import (
	"math"

	"github.com/pthm-cable/organisms/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Elitism is searched as a fraction of the population so the bounds hold for any size.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "mutation_chance", Path: "evolution.mutation_chance", Min: 0.01, Max: 0.5, Default: 0.1},
			{Name: "mutation_rate", Path: "evolution.mutation_rate", Min: 0.01, Max: 1.0, Default: 0.1},
			{Name: "flip_chance", Path: "evolution.flip_chance", Min: 0.0, Max: 0.5, Default: 0.2},
			{Name: "blend_min", Path: "evolution.blend_min", Min: 0.5, Max: 1.0, Default: 0.75},
			{Name: "elitism_frac", Path: "evolution.elitism", Min: 0.02, Max: 0.5, Default: 0.1},
			{Name: "extinction_threshold", Path: "evolution.extinction_threshold", Min: 0.0, Max: 0.5, Default: 0.05},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds. NaN becomes the default.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if math.IsNaN(v[i]) {
			clamped[i] = spec.Default
			continue
		}
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	ev := &cfg.Evolution
	ev.MutationChance = clamped[0]
	ev.MutationRate = clamped[1]
	ev.FlipChance = clamped[2]
	ev.BlendMin = min(clamped[3], ev.BlendMax)
	ev.Elitism = max(1, int(math.Round(clamped[4]*float64(cfg.Population.MaxOrganisms))))
	ev.ExtinctionThreshold = clamped[5]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	ev := cfg.Evolution
	frac := pv.Specs[4].Default
	if cfg.Population.MaxOrganisms > 0 {
		frac = float64(ev.Elitism) / float64(cfg.Population.MaxOrganisms)
	}
	return []float64{
		ev.MutationChance,
		ev.MutationRate,
		ev.FlipChance,
		ev.BlendMin,
		frac,
		ev.ExtinctionThreshold,
	}
}
