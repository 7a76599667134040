package telemetry

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/components"
	"github.com/pthm-cable/organisms/evolution"
)

// Collector accumulates events within one generation and produces GenerationStats.
type Collector struct {
	ticks int

	foodSpawned    int
	foodEaten      int
	botContacts    int
	threatContacts int
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordTick counts one simulation tick.
func (c *Collector) RecordTick() {
	c.ticks++
}

// RecordFoodSpawned records n food items added to the pool.
func (c *Collector) RecordFoodSpawned(n int) {
	c.foodSpawned += n
}

// RecordFoodEaten records a successful food removal.
func (c *Collector) RecordFoodEaten() {
	c.foodEaten++
}

// RecordBotContact records a bot touching its target for one tick.
func (c *Collector) RecordBotContact() {
	c.botContacts++
}

// RecordThreatContact records an organism taking bot damage for one tick.
func (c *Collector) RecordThreatContact() {
	c.threatContacts++
}

// GenerationSample is the end-of-generation state handed to Flush.
type GenerationSample struct {
	Generation  int
	SimTimeSec  float64
	Energies    []float64 // Organism energies, any order
	BotEnergies []float64
	Positions   []r3.Vec // Organism positions
	Arena       components.Arena
	Species     int
	Outcome     evolution.Outcome
}

// Flush produces GenerationStats and resets counters for the next generation.
func (c *Collector) Flush(s GenerationSample) GenerationStats {
	mean, p10, p50, p90 := ComputeEnergyStats(s.Energies)

	best := 0.0
	for i, e := range s.Energies {
		if i == 0 || e > best {
			best = e
		}
	}
	botMean, _, _, _ := ComputeEnergyStats(s.BotEnergies)

	outOfBounds := 0
	for _, p := range s.Positions {
		if !s.Arena.Contains(p) {
			outOfBounds++
		}
	}
	near := components.WithinDistance(s.Positions, s.Arena.Center(), s.Arena.Radius()/2)

	stats := GenerationStats{
		Generation: s.Generation,
		SimTimeSec: s.SimTimeSec,
		Ticks:      c.ticks,

		Organisms: len(s.Energies),
		Bots:      len(s.BotEnergies),

		BestEnergy:       best,
		EnergyMean:       mean,
		EnergyP10:        p10,
		EnergyP50:        p50,
		EnergyP90:        p90,
		AverageBotEnergy: botMean,

		FoodSpawned:    c.foodSpawned,
		FoodEaten:      c.foodEaten,
		BotContacts:    c.botContacts,
		ThreatContacts: c.threatContacts,

		OutOfBounds: outOfBounds,
		NearCenter:  len(near),

		Species:    s.Species,
		Extinction: s.Outcome.Extinction,
		Elites:     s.Outcome.Elites,
		Bred:       s.Outcome.Bred,
		Random:     s.Outcome.Random,
		Mutations:  s.Outcome.Mutations,
		Flips:      s.Outcome.Flips,
	}

	*c = Collector{}
	return stats
}
