package main

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/organisms/config"
	"github.com/pthm-cable/organisms/evolution"
	"github.com/pthm-cable/organisms/sim"
	"github.com/pthm-cable/organisms/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	baseConfig  *config.Config

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastQuality    float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	scores      []evolution.GenerationScore
	extinctions int
	hallOfFame  *telemetry.HallOfFame
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness    float64
	quality    float64
	hallOfFame *telemetry.HallOfFame
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel; each run owns its simulation and RNG
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result, err := fe.runSimulation(cfg.Clone(), s)
			if err != nil {
				slog.Warn("evaluation rejected", "seed", s, "error", err)
				return
			}
			quality := computeQuality(result.scores, result.extinctions)
			results[idx] = seedResult{
				fitness:    -quality,
				quality:    quality,
				hallOfFame: result.hallOfFame,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.hallOfFame != nil && r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedHallOfFame = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness && bestSeedHallOfFame != nil {
		fe.bestFitness = avgFitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run of fe.generations generations.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) (*runResult, error) {
	result := &runResult{}
	var hof *telemetry.HallOfFame

	s, err := sim.New(cfg, sim.Options{
		Seed:   seed,
		Logger: slog.New(slog.DiscardHandler),
		OnEvolve: func(r sim.Report) {
			result.scores = append(result.scores, r.Score)
			if r.Stats.Extinction {
				result.extinctions++
			}
			hof.Consider(r.Champion.ID, r.Score.Generation, r.Champion.Weights, r.Score.BestEnergy, r.Score.AverageEnergy)
		},
	})
	if err != nil {
		return nil, err
	}
	defer s.Close()
	hof = telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize, s.Shape(), rand.New(rand.NewSource(seed)))

	for s.Generation() < fe.generations {
		s.Tick(cfg.Physics.DT)
	}

	result.hallOfFame = hof
	return result, nil
}

// Quality component weights.
const (
	qualityWeightAverage = 1.0
	qualityWeightBest    = 0.25
	qualityExtinctionCut = 0.5 // fraction of quality lost when every generation goes extinct
)

// computeQuality scores a run from its per-generation scores.
// Only the later half of the run counts.
func computeQuality(scores []evolution.GenerationScore, extinctions int) float64 {
	if len(scores) == 0 {
		return 0
	}

	tail := scores[len(scores)/2:]
	avg := make([]float64, len(tail))
	best := make([]float64, len(tail))
	for i, sc := range tail {
		avg[i] = sc.AverageEnergy
		best[i] = sc.BestEnergy
	}

	quality := qualityWeightAverage*stat.Mean(avg, nil) + qualityWeightBest*stat.Mean(best, nil)
	extinctionRate := float64(extinctions) / float64(len(scores))
	quality *= 1 - qualityExtinctionCut*extinctionRate

	if math.IsNaN(quality) {
		return 0
	}
	return quality
}
