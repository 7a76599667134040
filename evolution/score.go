// Package evolution implements the generational genetic algorithm that
// replaces the organism population at the end of every epoch.
package evolution

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/organisms/neural"
)

// GenerationScore is the record appended once per completed epoch.
// Values are raw floats; nothing is rounded.
type GenerationScore struct {
	Generation       int     `csv:"generation" json:"generation"`
	BestEnergy       float64 `csv:"best_energy" json:"best_energy"`
	AverageEnergy    float64 `csv:"average_energy" json:"average_energy"`
	AverageBotEnergy float64 `csv:"average_bot_energy" json:"average_bot_energy"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationScore) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Float64("best_energy", s.BestEnergy),
		slog.Float64("average_energy", s.AverageEnergy),
		slog.Float64("average_bot_energy", s.AverageBotEnergy),
	)
}

// Candidate is one member of the generation being replaced.
type Candidate struct {
	ID      string
	Weights neural.Weights
	Energy  float64 // Raw fitness signal
	Fitness float64 // Ranking key; equals Energy unless fitness sharing is on
}

// Rank returns a copy of cands stably sorted by Fitness, highest first.
// Equal fitness keeps population order.
func Rank(cands []Candidate) []Candidate {
	ranked := make([]Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

// RankByEnergy returns a copy of cands stably sorted by Energy, highest first.
// Equal energy keeps population order.
func RankByEnergy(cands []Candidate) []Candidate {
	ranked := make([]Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Energy > ranked[j].Energy
	})
	return ranked
}

// Score summarizes a finished generation. energies must be sorted descending.
// An empty bot set scores 0.
func Score(generation int, energies, botEnergies []float64) GenerationScore {
	s := GenerationScore{Generation: generation}
	if len(energies) > 0 {
		s.BestEnergy = energies[0]
		s.AverageEnergy = stat.Mean(energies, nil)
	}
	if len(botEnergies) > 0 {
		s.AverageBotEnergy = stat.Mean(botEnergies, nil)
	}
	return s
}
