package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats holds aggregated statistics for one completed generation.
type GenerationStats struct {
	Generation int     `csv:"generation"`
	SimTimeSec float64 `csv:"sim_time"`
	Ticks      int     `csv:"ticks"`

	Organisms int `csv:"organisms"`
	Bots      int `csv:"bots"`

	// Fitness
	BestEnergy       float64 `csv:"best_energy"`
	EnergyMean       float64 `csv:"energy_mean"`
	EnergyP10        float64 `csv:"energy_p10"`
	EnergyP50        float64 `csv:"energy_p50"`
	EnergyP90        float64 `csv:"energy_p90"`
	AverageBotEnergy float64 `csv:"avg_bot_energy"`

	// Events during the generation
	FoodSpawned    int `csv:"food_spawned"`
	FoodEaten      int `csv:"food_eaten"`
	BotContacts    int `csv:"bot_contacts"`    // Ticks a bot spent touching its target
	ThreatContacts int `csv:"threat_contacts"` // Ticks an organism took bot damage

	// Spatial
	OutOfBounds int `csv:"out_of_bounds"`
	NearCenter  int `csv:"near_center"` // Within half the arena radius of the center

	// Evolution outcome
	Species    int  `csv:"species"`
	Extinction bool `csv:"extinction"`
	Elites     int  `csv:"elites"`
	Bred       int  `csv:"bred"`
	Random     int  `csv:"random"`
	Mutations  int  `csv:"mutations"`
	Flips      int  `csv:"flips"`
}

// Percentile returns the p-th quantile of a sorted slice using linear
// interpolation of the empirical CDF. p is clamped to [0, 1]. Returns 0 if empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
// values is not modified.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("ticks", s.Ticks),
		slog.Int("organisms", s.Organisms),
		slog.Int("bots", s.Bots),
		slog.Float64("best_energy", s.BestEnergy),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("avg_bot_energy", s.AverageBotEnergy),
		slog.Int("food_spawned", s.FoodSpawned),
		slog.Int("food_eaten", s.FoodEaten),
		slog.Int("bot_contacts", s.BotContacts),
		slog.Int("threat_contacts", s.ThreatContacts),
		slog.Int("out_of_bounds", s.OutOfBounds),
		slog.Int("near_center", s.NearCenter),
		slog.Int("species", s.Species),
		slog.Bool("extinction", s.Extinction),
		slog.Int("elites", s.Elites),
		slog.Int("bred", s.Bred),
		slog.Int("random", s.Random),
		slog.Int("mutations", s.Mutations),
		slog.Int("flips", s.Flips),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("stats",
		"generation", s.Generation,
		"sim_time", s.SimTimeSec,
		"best_energy", s.BestEnergy,
		"energy_mean", s.EnergyMean,
		"energy_p10", s.EnergyP10,
		"energy_p50", s.EnergyP50,
		"energy_p90", s.EnergyP90,
		"avg_bot_energy", s.AverageBotEnergy,
		"food_eaten", s.FoodEaten,
		"bot_contacts", s.BotContacts,
		"threat_contacts", s.ThreatContacts,
		"out_of_bounds", s.OutOfBounds,
		"species", s.Species,
		"extinction", s.Extinction,
	)
}
