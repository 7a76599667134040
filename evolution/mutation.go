package evolution

import (
	"math/rand"

	"github.com/pthm-cable/organisms/neural"
)

// MutationParams controls post-crossover mutation.
type MutationParams struct {
	Chance     float64 // Probability of one multiplicative perturbation
	Rate       float64 // Perturbation factor is drawn from [1-Rate, 1+Rate]
	FlipChance float64 // Probability of one sign flip
}

// MutationReport records which operators fired.
type MutationReport struct {
	Perturbed bool
	Flipped   bool
}

// Mutate modifies w in place. With probability Chance one uniformly chosen
// weight is scaled by a factor in [1-Rate, 1+Rate] and clamped to [-1, 1].
// Independently, with probability FlipChance one uniformly chosen weight is negated.
func Mutate(rng *rand.Rand, w neural.Weights, p MutationParams) MutationReport {
	var r MutationReport

	if rng.Float64() < p.Chance {
		if arr := pickArray(rng, w); arr != nil {
			i := rng.Intn(len(arr))
			factor := 1 + (rng.Float64()*2-1)*p.Rate
			arr[i] = clampUnit(arr[i] * factor)
			r.Perturbed = true
		}
	}

	if rng.Float64() < p.FlipChance {
		if arr := pickArray(rng, w); arr != nil {
			i := rng.Intn(len(arr))
			arr[i] = -arr[i]
			r.Flipped = true
		}
	}

	return r
}

// pickArray picks one of the four weight arrays uniformly.
// Returns nil if the chosen array is empty.
func pickArray(rng *rand.Rand, w neural.Weights) []float64 {
	arrays := w.Arrays()
	arr := arrays[rng.Intn(len(arrays))]
	if len(arr) == 0 {
		return nil
	}
	return arr
}

func clampUnit(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}
