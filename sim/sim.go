// Package sim drives the simulation: an ECS world of organisms, bots and
// food advanced by Tick, with the organism population replaced by the
// genetic algorithm at the end of every epoch.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/organisms/components"
	"github.com/pthm-cable/organisms/config"
	"github.com/pthm-cable/organisms/evolution"
	"github.com/pthm-cable/organisms/neural"
	"github.com/pthm-cable/organisms/systems"
	"github.com/pthm-cable/organisms/telemetry"
)

// epochEpsilon absorbs float accumulation error in the epoch clock.
const epochEpsilon = 1e-9

// Options configures a Simulation beyond the config file.
type Options struct {
	Seed   int64
	Logger *slog.Logger // Defaults to slog.Default()

	// SeedWeights initializes generation 0. Organism i receives a copy of
	// SeedWeights[i mod n]; copies past the first n are mutated.
	SeedWeights []neural.Weights

	// OnEvolve is called once per completed evolution cycle.
	OnEvolve func(Report)

	Perf    *telemetry.PerfCollector // Optional per-phase timing
	Metrics *telemetry.Metrics       // Optional Prometheus export
}

// Simulation owns the world and every agent in it.
// It is not safe for concurrent use; Tick fans work out internally.
type Simulation struct {
	cfg    *config.Config
	params systems.Params
	evo    evolution.Params
	shape  neural.Shape
	hidden neural.Activation
	arena  components.Arena
	rng    *rand.Rand
	logger *slog.Logger
	opts   Options

	world *ecs.World

	organismMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Energy,
		components.Mobility,
		components.Organism,
	]
	botMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Energy,
		components.Mobility,
		components.Bot,
	]
	foodMapper *ecs.Map2[components.Position, components.Food]
	foodFilter *ecs.Filter1[components.Food]

	posMap      *ecs.Map1[components.Position]
	velMap      *ecs.Map1[components.Velocity]
	energyMap   *ecs.Map1[components.Energy]
	mobilityMap *ecs.Map1[components.Mobility]
	orgMap      *ecs.Map1[components.Organism]
	botMap      *ecs.Map1[components.Bot]
	foodMap     *ecs.Map1[components.Food]

	// Ordered entity lists; iteration order is part of the tie-breaking contract
	organisms []ecs.Entity
	bots      []ecs.Entity
	food      []ecs.Entity
	foodByID  map[string]ecs.Entity

	// Controllers keyed by organism ID
	brains map[string]*neural.Controller

	species   *evolution.SpeciesManager
	collector *telemetry.Collector
	lifetimes *telemetry.LifetimeTracker
	parallel  *parallelState
	ts        tickState

	generation  int
	epochTime   float64
	simTime     float64
	tick        int
	prevAverage float64
	scores      []evolution.GenerationScore
	best        AgentState
	hasBest     bool
}

// New builds a simulation from cfg. cfg is cloned; later changes to it have no effect.
// Returns an error if the controller shape cannot consume the perception inputs
// or if seed weights do not match the shape.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sim: nil config")
	}
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	cfg.Recompute()

	hidden, err := neural.ParseActivation(cfg.Neural.HiddenActivation)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	shape := neural.Shape{
		Inputs:  systems.NumInputs,
		Hidden:  cfg.Neural.Hidden,
		Outputs: cfg.Neural.Outputs,
	}
	if cfg.Derived.NumInputs != shape.Inputs {
		return nil, fmt.Errorf("sim: perception produces %d inputs, config expects %d", shape.Inputs, cfg.Derived.NumInputs)
	}
	for i, w := range opts.SeedWeights {
		if err := w.Validate(shape); err != nil {
			return nil, fmt.Errorf("sim: seed weights %d: %w", i, err)
		}
		if w.HasNaN() {
			return nil, fmt.Errorf("sim: seed weights %d contain NaN", i)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	world := ecs.NewWorld()
	s := &Simulation{
		cfg:    cfg,
		params: systems.ParamsFromConfig(cfg),
		evo:    evolution.ParamsFromConfig(cfg, shape),
		shape:  shape,
		hidden: hidden,
		arena:  components.NewArena(cfg.World),
		rng:    rand.New(rand.NewSource(opts.Seed)),
		logger: logger,
		opts:   opts,
		world:  world,

		organismMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Energy,
			components.Mobility,
			components.Organism,
		](world),
		botMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Energy,
			components.Mobility,
			components.Bot,
		](world),
		foodMapper: ecs.NewMap2[components.Position, components.Food](world),
		foodFilter: ecs.NewFilter1[components.Food](world),

		posMap:      ecs.NewMap1[components.Position](world),
		velMap:      ecs.NewMap1[components.Velocity](world),
		energyMap:   ecs.NewMap1[components.Energy](world),
		mobilityMap: ecs.NewMap1[components.Mobility](world),
		orgMap:      ecs.NewMap1[components.Organism](world),
		botMap:      ecs.NewMap1[components.Bot](world),
		foodMap:     ecs.NewMap1[components.Food](world),

		foodByID:  make(map[string]ecs.Entity),
		brains:    make(map[string]*neural.Controller),
		collector: telemetry.NewCollector(),
		lifetimes: telemetry.NewLifetimeTracker(),
		parallel:  newParallelState(cfg.Parallel.Workers, cfg.Parallel.Threshold),
	}
	if cfg.Speciation.Enabled {
		s.species = evolution.NewSpeciesManager(cfg.Speciation.Threshold, cfg.Speciation.DropOffAge)
	}

	s.spawnInitialPopulation(opts.SeedWeights)

	logger.Debug("simulation created",
		"seed", opts.Seed,
		"organisms", len(s.organisms),
		"bots", len(s.bots),
		"max_food", cfg.Population.MaxFood,
		"shape", fmt.Sprintf("%d-%d-%d", shape.Inputs, shape.Hidden, shape.Outputs),
		"workers", s.parallel.numWorkers,
	)
	return s, nil
}

// Close stops the worker pool. The simulation must not be used afterwards.
func (s *Simulation) Close() {
	s.parallel.stopWorkers()
}

// Config returns the simulation's private configuration copy.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}

// Shape returns the controller shape shared by the population.
func (s *Simulation) Shape() neural.Shape {
	return s.shape
}

// Generation returns the number of completed evolution cycles.
func (s *Simulation) Generation() int {
	return s.generation
}

// EpochTime returns simulated seconds elapsed in the current generation.
func (s *Simulation) EpochTime() float64 {
	return s.epochTime
}

// Ticks returns the total number of ticks run.
func (s *Simulation) Ticks() int {
	return s.tick
}

// Scores returns a copy of the generation score history, oldest first.
func (s *Simulation) Scores() []evolution.GenerationScore {
	out := make([]evolution.GenerationScore, len(s.scores))
	copy(out, s.scores)
	return out
}

// Best returns the organism with the highest energy after the last tick.
// Returns false before the first tick or with an empty population.
func (s *Simulation) Best() (AgentState, bool) {
	return s.best, s.hasBest
}

// BestWeights returns a copy of the current best organism's controller weights.
func (s *Simulation) BestWeights() (neural.Weights, bool) {
	if !s.hasBest {
		return neural.Weights{}, false
	}
	brain, ok := s.brains[s.best.ID]
	if !ok {
		return neural.Weights{}, false
	}
	return brain.Weights(), true
}
