package evolution

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/organisms/neural"
)

// Species is a cluster of weight-similar organisms.
type Species struct {
	ID             int
	Representative neural.Weights // Used for compatibility comparisons
	Members        []int          // Indices into the candidate slice of the last Speciate call
	BestFitness    float64        // Best member energy ever seen
	AvgFitness     float64        // Mean member energy this generation
	Age            int            // Generations since the species was created
	Staleness      int            // Generations without a new best
}

// SpeciesManager partitions each generation into species.
type SpeciesManager struct {
	Species    []*Species
	threshold  float64
	dropOffAge int
	nextID     int
	generation int
}

// NewSpeciesManager creates a manager. Two weight sets belong to the same
// species when their mean absolute difference is below threshold.
// Species stale for more than dropOffAge generations get zero shared fitness
// and are dropped at the next Speciate call; 0 disables both.
func NewSpeciesManager(threshold float64, dropOffAge int) *SpeciesManager {
	return &SpeciesManager{
		Species:    make([]*Species, 0),
		threshold:  threshold,
		dropOffAge: dropOffAge,
		nextID:     1,
	}
}

// Compatibility returns the mean absolute difference across all corresponding weights.
// Panics if a and b have different shapes.
func Compatibility(a, b neural.Weights) float64 {
	aa, bb := a.Arrays(), b.Arrays()
	var sum float64
	var n int
	for i := range aa {
		if len(aa[i]) == 0 {
			continue
		}
		sum += floats.Distance(aa[i], bb[i], 1)
		n += len(aa[i])
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Speciate assigns every candidate to a species and returns the species ID per candidate.
// Assignment is a single pass: the first compatible species wins, otherwise a
// new species is founded with the candidate as representative.
// Species stale for longer than the drop-off age are removed first.
// Afterwards each species draws a random member as its next representative,
// and empty species are removed.
func (sm *SpeciesManager) Speciate(rng *rand.Rand, cands []Candidate) []int {
	sm.dropStale()
	for _, sp := range sm.Species {
		sp.Members = sp.Members[:0]
	}

	ids := make([]int, len(cands))
	for i, c := range cands {
		sp := sm.find(c.Weights)
		if sp == nil {
			sp = &Species{
				ID:             sm.nextID,
				Representative: c.Weights.Clone(),
				BestFitness:    c.Energy,
			}
			sm.nextID++
			sm.Species = append(sm.Species, sp)
		}
		sp.Members = append(sp.Members, i)
		ids[i] = sp.ID
	}

	sm.endGeneration(rng, cands)
	return ids
}

// dropStale removes species that went longer than the drop-off age without
// improving. Their former members found new species on assignment.
func (sm *SpeciesManager) dropStale() {
	if sm.dropOffAge <= 0 {
		return
	}
	kept := sm.Species[:0]
	for _, sp := range sm.Species {
		if sp.Staleness <= sm.dropOffAge {
			kept = append(kept, sp)
		}
	}
	sm.Species = kept
}

// find returns the first species compatible with w, or nil.
func (sm *SpeciesManager) find(w neural.Weights) *Species {
	for _, sp := range sm.Species {
		if Compatibility(w, sp.Representative) < sm.threshold {
			return sp
		}
	}
	return nil
}

// endGeneration refreshes per-species fitness, age and representatives.
func (sm *SpeciesManager) endGeneration(rng *rand.Rand, cands []Candidate) {
	sm.generation++

	active := sm.Species[:0]
	for _, sp := range sm.Species {
		if len(sp.Members) == 0 {
			continue
		}

		energies := make([]float64, len(sp.Members))
		for i, m := range sp.Members {
			energies[i] = cands[m].Energy
		}
		sp.AvgFitness = stat.Mean(energies, nil)

		best := floats.Max(energies)
		if best > sp.BestFitness || sp.Age == 0 {
			sp.BestFitness = max(best, sp.BestFitness)
			sp.Staleness = 0
		} else {
			sp.Staleness++
		}
		sp.Age++

		rep := sp.Members[rng.Intn(len(sp.Members))]
		sp.Representative = cands[rep].Weights.Clone()

		active = append(active, sp)
	}
	sm.Species = active
}

// SharedFitness returns energy divided by species size for every candidate.
// Members of species stale for longer than the drop-off age get zero.
// ids must come from the Speciate call on the same candidates.
func (sm *SpeciesManager) SharedFitness(cands []Candidate, ids []int) []float64 {
	byID := make(map[int]*Species, len(sm.Species))
	for _, sp := range sm.Species {
		byID[sp.ID] = sp
	}

	out := make([]float64, len(cands))
	for i, c := range cands {
		sp := byID[ids[i]]
		if sp == nil || len(sp.Members) == 0 {
			out[i] = c.Energy
			continue
		}
		if sm.dropOffAge > 0 && sp.Staleness > sm.dropOffAge {
			continue
		}
		out[i] = c.Energy / float64(len(sp.Members))
	}
	return out
}

// SpeciesStats contains summary statistics about all species.
type SpeciesStats struct {
	Count            int
	LargestSize      int
	SmallestSize     int
	AverageStaleness float64
	Generation       int
	BestFitness      float64
}

// SpeciesInfo contains display information about a single species.
type SpeciesInfo struct {
	ID        int
	Size      int
	BestFit   float64
	AvgFit    float64
	Age       int
	Staleness int
}

// GetStats returns summary statistics about species distribution.
func (sm *SpeciesManager) GetStats() SpeciesStats {
	stats := SpeciesStats{Count: len(sm.Species), Generation: sm.generation}
	if len(sm.Species) == 0 {
		return stats
	}

	stats.SmallestSize = len(sm.Species[0].Members)
	totalStaleness := 0
	for _, sp := range sm.Species {
		size := len(sp.Members)
		stats.LargestSize = max(stats.LargestSize, size)
		stats.SmallestSize = min(stats.SmallestSize, size)
		stats.BestFitness = max(stats.BestFitness, sp.BestFitness)
		totalStaleness += sp.Staleness
	}
	stats.AverageStaleness = float64(totalStaleness) / float64(stats.Count)

	return stats
}

// GetTopSpecies returns info about the top n species by size.
func (sm *SpeciesManager) GetTopSpecies(n int) []SpeciesInfo {
	if len(sm.Species) == 0 {
		return nil
	}

	sorted := make([]*Species, len(sm.Species))
	copy(sorted, sm.Species)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Members) > len(sorted[j].Members)
	})

	n = min(n, len(sorted))
	result := make([]SpeciesInfo, n)
	for i, sp := range sorted[:n] {
		result[i] = SpeciesInfo{
			ID:        sp.ID,
			Size:      len(sp.Members),
			BestFit:   sp.BestFitness,
			AvgFit:    sp.AvgFitness,
			Age:       sp.Age,
			Staleness: sp.Staleness,
		}
	}
	return result
}
