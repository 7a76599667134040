package evolution

import (
	"errors"
	"math/rand"
)

var errEmptyPool = errors.New("parent pool is empty")

// Selector picks two parents from a ranked pool.
// The fitter parent is returned first so blend ranges above 0.5 favor it.
type Selector interface {
	Name() string
	PickParents(rng *rand.Rand, pool []Candidate) (Candidate, Candidate, error)
}

// TournamentSelector runs two tournaments of TournamentSize draws each.
// The second tournament excludes the first winner when the pool allows it.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParents(rng *rand.Rand, pool []Candidate) (Candidate, Candidate, error) {
	if len(pool) == 0 {
		return Candidate{}, Candidate{}, errEmptyPool
	}

	k := s.TournamentSize
	if k <= 0 {
		k = 5
	}
	if k > len(pool) {
		k = len(pool)
	}

	first := tournament(rng, pool, k, -1)
	exclude := first
	if len(pool) == 1 {
		exclude = -1
	}
	second := tournament(rng, pool, k, exclude)

	return ordered(pool[first], pool[second])
}

// tournament returns the index of the fittest of k uniform draws, skipping exclude.
func tournament(rng *rand.Rand, pool []Candidate, k, exclude int) int {
	n := len(pool)
	draw := func() int {
		if exclude < 0 {
			return rng.Intn(n)
		}
		i := rng.Intn(n - 1)
		if i >= exclude {
			i++
		}
		return i
	}

	best := draw()
	for i := 1; i < k; i++ {
		c := draw()
		if pool[c].Fitness > pool[best].Fitness {
			best = c
		}
	}
	return best
}

// WeightedPairSelector draws a distinct pair with probability proportional
// to fitness. Negative fitness counts as zero; an all-zero pool draws uniformly.
type WeightedPairSelector struct{}

func (WeightedPairSelector) Name() string {
	return "weighted"
}

func (WeightedPairSelector) PickParents(rng *rand.Rand, pool []Candidate) (Candidate, Candidate, error) {
	if len(pool) == 0 {
		return Candidate{}, Candidate{}, errEmptyPool
	}
	if len(pool) == 1 {
		return pool[0], pool[0], nil
	}

	weights := make([]float64, len(pool))
	for i, c := range pool {
		weights[i] = max(c.Fitness, 0)
	}

	first := weightedIndex(rng, weights)
	weights[first] = 0
	second := weightedIndex(rng, weights)
	if second == first {
		// Every remaining weight is zero
		second = (first + 1 + rng.Intn(len(pool)-1)) % len(pool)
	}

	return ordered(pool[first], pool[second])
}

// weightedIndex draws an index proportional to weights, or uniformly when they sum to 0.
func weightedIndex(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}

	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	// Rounding left r at exactly 0; take the last non-zero weight
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return len(weights) - 1
}

func ordered(a, b Candidate) (Candidate, Candidate, error) {
	if b.Fitness > a.Fitness {
		return b, a, nil
	}
	return a, b, nil
}
