package components

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Normalize returns the unit vector colinear to v.
// The zero vector (and any vector whose norm underflows) maps to the zero
// vector instead of NaN, so degenerate directions never reach a controller.
func Normalize(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return r3.Vec{}
	}
	return Div(v, n)
}

// Div returns v / d, or the zero vector when d is 0.
func Div(v r3.Vec, d float64) r3.Vec {
	if d == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/d, v)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// ClampComponents clamps each component of v to [-limit, limit].
func ClampComponents(v r3.Vec, limit float64) r3.Vec {
	return r3.Vec{
		X: clamp(v.X, -limit, limit),
		Y: clamp(v.Y, -limit, limit),
		Z: clamp(v.Z, -limit, limit),
	}
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// WithinDistance returns the indices of points strictly closer than radius to origin,
// in input order.
func WithinDistance(points []r3.Vec, origin r3.Vec, radius float64) []int {
	var out []int
	for i, p := range points {
		if Distance(p, origin) < radius {
			out = append(out, i)
		}
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
