package evolution

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/organisms/neural"
)

// Crossover blends two parents elementwise: child = a*w + b*(1-w).
// The child gets fresh arrays; neither parent is modified.
// Panics if the parents have different shapes.
func Crossover(a, b neural.Weights, w float64) neural.Weights {
	child := neural.Weights{
		InputToHidden:      blend(a.InputToHidden, b.InputToHidden, w),
		InputToHiddenBias:  blend(a.InputToHiddenBias, b.InputToHiddenBias, w),
		HiddenToOutput:     blend(a.HiddenToOutput, b.HiddenToOutput, w),
		HiddenToOutputBias: blend(a.HiddenToOutputBias, b.HiddenToOutputBias, w),
	}
	return child
}

func blend(a, b []float64, w float64) []float64 {
	dst := make([]float64, len(a))
	floats.ScaleTo(dst, w, a)
	floats.AddScaled(dst, 1-w, b)
	return dst
}

// BlendWeight draws w uniformly from [lo, hi].
func BlendWeight(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
