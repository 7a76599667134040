package evolution

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/organisms/config"
	"github.com/pthm-cable/organisms/neural"
)

// Params configures one evolution step.
type Params struct {
	Population int // Size of the next generation
	Elitism    int
	ParentPool string // config.PoolTopHalf or config.PoolElite
	Selector   Selector
	BlendMin   float64
	BlendMax   float64
	Mutation   MutationParams

	ExtinctionMode      string
	ExtinctionThreshold float64 // 0 disables mass extinction

	Shape       neural.Shape
	WeightRange float64
	BiasRange   float64
}

// ParamsFromConfig maps configuration onto evolution parameters.
// Weighted pair selection always draws from the elite set.
func ParamsFromConfig(cfg *config.Config, shape neural.Shape) Params {
	ev := cfg.Evolution
	p := Params{
		Population: cfg.Population.MaxOrganisms,
		Elitism:    ev.Elitism,
		ParentPool: ev.ParentPool,
		BlendMin:   ev.BlendMin,
		BlendMax:   ev.BlendMax,
		Mutation: MutationParams{
			Chance:     ev.MutationChance,
			Rate:       ev.MutationRate,
			FlipChance: ev.FlipChance,
		},
		ExtinctionMode:      ev.ExtinctionMode,
		ExtinctionThreshold: ev.ExtinctionThreshold,
		Shape:               shape,
		WeightRange:         cfg.Neural.WeightRange,
		BiasRange:           cfg.Neural.BiasRange,
	}

	switch ev.Selection {
	case config.SelectWeighted:
		p.Selector = WeightedPairSelector{}
		p.ParentPool = config.PoolElite
	default:
		p.Selector = TournamentSelector{TournamentSize: ev.TournamentSize}
	}
	return p
}

// Offspring describes one member of the next generation.
type Offspring struct {
	Weights  neural.Weights
	Elite    bool      // Copied verbatim from Ancestor
	Random   bool      // Fresh random weights
	Ancestor string    // Elite source ID
	Parents  [2]string // Crossover parents, fitter first
	Mutation MutationReport
}

// Outcome is the result of one evolution step.
type Outcome struct {
	Offspring  []Offspring
	Average    float64 // Mean energy of the generation being replaced
	Extinction bool    // Population collapsed and was reseeded
	Elites     int
	Bred       int
	Random     int
	Mutations  int
	Flips      int
}

// Evolve builds the next generation from cands.
// prevAverage is the previous generation's mean energy, used by relative extinction.
//
// The result always has exactly p.Population members. Elites come first, in energy order.
// Parent selection ranks by Fitness, which differs from Energy under fitness sharing.
// An empty generation, an empty parent pool, or a collapsed average energy
// fall back to random weights instead of indexing an empty pool.
func Evolve(rng *rand.Rand, cands []Candidate, prevAverage float64, p Params) Outcome {
	out := Outcome{Offspring: make([]Offspring, 0, p.Population)}

	energies := make([]float64, len(cands))
	for i, c := range cands {
		energies[i] = c.Energy
	}
	if len(energies) > 0 {
		out.Average = stat.Mean(energies, nil)
	}

	if len(cands) == 0 || collapsed(out.Average, prevAverage, p) {
		out.Extinction = len(cands) > 0
		out.fillRandom(rng, p)
		return out
	}

	// Elites are the top organisms by raw energy; Fitness only ranks parents
	byEnergy := RankByEnergy(cands)
	ranked := Rank(cands)

	elites := min(p.Elitism, len(byEnergy), p.Population)
	for _, c := range byEnergy[:elites] {
		out.Offspring = append(out.Offspring, Offspring{
			Weights:  c.Weights.Clone(),
			Elite:    true,
			Ancestor: c.ID,
		})
	}
	out.Elites = elites

	pool := parentPool(ranked, elites, p.ParentPool)

	for len(out.Offspring) < p.Population {
		a, b, err := p.Selector.PickParents(rng, pool)
		if err != nil {
			break
		}

		w := BlendWeight(rng, p.BlendMin, p.BlendMax)
		child := Crossover(a.Weights, b.Weights, w)
		report := Mutate(rng, child, p.Mutation)

		if child.HasNaN() {
			// Never let a corrupt child seed a lineage
			child = neural.RandomWeights(rng, p.Shape, p.WeightRange, p.BiasRange)
			out.Offspring = append(out.Offspring, Offspring{Weights: child, Random: true})
			out.Random++
			continue
		}

		out.Offspring = append(out.Offspring, Offspring{
			Weights:  child,
			Parents:  [2]string{a.ID, b.ID},
			Mutation: report,
		})
		out.Bred++
		if report.Perturbed {
			out.Mutations++
		}
		if report.Flipped {
			out.Flips++
		}
	}

	out.fillRandom(rng, p)
	return out
}

// collapsed reports whether the average energy triggers mass extinction.
func collapsed(avg, prevAverage float64, p Params) bool {
	if p.ExtinctionThreshold <= 0 {
		return false
	}
	switch p.ExtinctionMode {
	case config.ExtinctionRelative:
		return prevAverage > 0 && avg < p.ExtinctionThreshold*prevAverage
	default:
		return avg < p.ExtinctionThreshold
	}
}

// parentPool returns the slice of ranked candidates eligible for breeding.
func parentPool(ranked []Candidate, elites int, policy string) []Candidate {
	if policy == config.PoolElite {
		return ranked[:elites]
	}
	half := (len(ranked) + 1) / 2
	return ranked[:half]
}

// fillRandom tops the generation up with random individuals.
func (o *Outcome) fillRandom(rng *rand.Rand, p Params) {
	for len(o.Offspring) < p.Population {
		o.Offspring = append(o.Offspring, Offspring{
			Weights: neural.RandomWeights(rng, p.Shape, p.WeightRange, p.BiasRange),
			Random:  true,
		})
		o.Random++
	}
}
