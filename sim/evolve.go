package sim

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/evolution"
	"github.com/pthm-cable/organisms/telemetry"
)

// evolve ends the current epoch. The settled population is scored, bred into
// a new generation that replaces it wholesale, bots and food are reset, and
// OnEvolve receives the finished generation's report.
func (s *Simulation) evolve() {
	finished := s.Snapshot()

	cands := make([]evolution.Candidate, len(s.organisms))
	energies := make([]float64, len(s.organisms))
	positions := make([]r3.Vec, len(s.organisms))
	for i, e := range s.organisms {
		org := s.orgMap.Get(e)
		energy := s.energyMap.Get(e).Value
		cands[i] = evolution.Candidate{
			ID:      org.ID,
			Weights: s.brains[org.ID].Weights(),
			Energy:  energy,
			Fitness: energy,
		}
		energies[i] = energy
		positions[i] = s.posMap.Get(e).Vec
	}

	botEnergies := make([]float64, len(s.bots))
	for i, e := range s.bots {
		botEnergies[i] = s.energyMap.Get(e).Value
	}

	speciesCount := 0
	if s.species != nil && len(cands) > 0 {
		ids := s.species.Speciate(s.rng, cands)
		if s.cfg.Speciation.FitnessSharing {
			shared := s.species.SharedFitness(cands, ids)
			for i := range cands {
				cands[i].Fitness = shared[i]
			}
		}
		speciesCount = len(s.species.Species)
	}

	champion := s.champion(cands)

	sorted := make([]float64, len(energies))
	copy(sorted, energies)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	score := evolution.Score(s.generation, sorted, botEnergies)

	outcome := evolution.Evolve(s.rng, cands, s.prevAverage, s.evo)
	s.prevAverage = outcome.Average

	stats := s.collector.Flush(telemetry.GenerationSample{
		Generation:  s.generation,
		SimTimeSec:  s.epochTime,
		Energies:    energies,
		BotEnergies: botEnergies,
		Positions:   positions,
		Arena:       s.arena,
		Species:     speciesCount,
		Outcome:     outcome,
	})

	s.scores = append(s.scores, score)
	s.generation++

	lifetimes := s.lifetimes.Flush()
	s.removeOrganisms()
	for slot, child := range outcome.Offspring {
		s.spawnOrganism(slot, child.Weights, child.Ancestor)
	}
	s.resetBots()
	s.clearFood()
	s.epochTime = 0
	s.updateBest()

	s.logger.Info("generation",
		"generation", score.Generation,
		"best_energy", score.BestEnergy,
		"avg_energy", score.AverageEnergy,
		"avg_bot_energy", score.AverageBotEnergy,
		"extinction", outcome.Extinction,
		"species", speciesCount,
		"elites", outcome.Elites,
		"bred", outcome.Bred,
		"random", outcome.Random,
	)
	s.opts.Metrics.ObserveGeneration(stats)

	if s.opts.OnEvolve != nil {
		s.opts.OnEvolve(Report{
			Snapshot:  finished,
			Score:     score,
			Stats:     stats,
			Champion:  champion,
			Lifetimes: lifetimes,
		})
	}
}

// champion returns the highest-energy candidate; ties keep population order.
func (s *Simulation) champion(cands []evolution.Candidate) Champion {
	best := -1
	for i, c := range cands {
		if best < 0 || c.Energy > cands[best].Energy {
			best = i
		}
	}
	if best < 0 {
		return Champion{}
	}
	return Champion{
		ID:      cands[best].ID,
		Energy:  cands[best].Energy,
		Weights: cands[best].Weights.Clone(),
	}
}

// Species returns diagnostics for the largest n species, or nil when speciation is off.
func (s *Simulation) Species(n int) []evolution.SpeciesInfo {
	if s.species == nil {
		return nil
	}
	return s.species.GetTopSpecies(n)
}
