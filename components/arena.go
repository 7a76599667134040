package components

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/config"
)

// Arena is the axis-aligned box agents live in.
type Arena struct {
	Min, Max r3.Vec
	Inset    float64 // Spawn margin on every side
}

// NewArena builds an arena from world configuration.
func NewArena(w config.WorldConfig) Arena {
	return Arena{
		Min:   r3.Vec{X: w.MinX, Y: w.MinY, Z: w.MinZ},
		Max:   r3.Vec{X: w.MaxX, Y: w.MaxY, Z: w.MaxZ},
		Inset: w.SpawnInset,
	}
}

// Center returns the midpoint of the arena.
func (a Arena) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(a.Min, a.Max))
}

// Radius returns the distance from the center to a corner.
func (a Arena) Radius() float64 {
	return Distance(a.Center(), a.Max)
}

// Planar reports whether the arena has no depth.
func (a Arena) Planar() bool {
	return a.Min.Z == a.Max.Z
}

// Contains reports whether p lies inside the arena (bounds inclusive).
func (a Arena) Contains(p r3.Vec) bool {
	return p.X >= a.Min.X && p.X <= a.Max.X &&
		p.Y >= a.Min.Y && p.Y <= a.Max.Y &&
		p.Z >= a.Min.Z && p.Z <= a.Max.Z
}

// RandomPoint draws a uniform point from the spawn area.
// Axes narrower than twice the inset collapse to their midpoint.
func (a Arena) RandomPoint(rng *rand.Rand) r3.Vec {
	return r3.Vec{
		X: spawnAxis(rng, a.Min.X, a.Max.X, a.Inset),
		Y: spawnAxis(rng, a.Min.Y, a.Max.Y, a.Inset),
		Z: spawnAxis(rng, a.Min.Z, a.Max.Z, a.Inset),
	}
}

func spawnAxis(rng *rand.Rand, lo, hi, inset float64) float64 {
	lo, hi = lo+inset, hi-inset
	if hi <= lo {
		return (lo + hi) / 2
	}
	return lo + rng.Float64()*(hi-lo)
}
