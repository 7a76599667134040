// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Population PopulationConfig `yaml:"population"`
	Organism   MobilityConfig   `yaml:"organism"`
	Bot        MobilityConfig   `yaml:"bot"`
	Perception PerceptionConfig `yaml:"perception"`
	Energy     EnergyConfig     `yaml:"energy"`
	Neural     NeuralConfig     `yaml:"neural"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Speciation SpeciationConfig `yaml:"speciation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Parallel   ParallelConfig   `yaml:"parallel"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the arena bounds.
// A zero z extent makes the arena planar.
type WorldConfig struct {
	MinX       float64 `yaml:"min_x"`
	MaxX       float64 `yaml:"max_x"`
	MinY       float64 `yaml:"min_y"`
	MaxY       float64 `yaml:"max_y"`
	MinZ       float64 `yaml:"min_z"`
	MaxZ       float64 `yaml:"max_z"`
	SpawnInset float64 `yaml:"spawn_inset"` // Spawn area is the arena shrunk by this on every side
}

// PhysicsConfig holds integration parameters.
type PhysicsConfig struct {
	DT       float64 `yaml:"dt"`
	Friction float64 `yaml:"friction"` // Velocity multiplier per second, applied as friction^dt
}

// PopulationConfig holds the fixed population sizes.
type PopulationConfig struct {
	MaxOrganisms int `yaml:"max_organisms"`
	MaxBots      int `yaml:"max_bots"`
	MaxFood      int `yaml:"max_food"`
}

// MobilityConfig holds per-kind movement limits.
// Each agent draws base + U[0, jitter] at spawn.
type MobilityConfig struct {
	MaxSpeed       float64 `yaml:"max_speed"`
	MaxSpeedJitter float64 `yaml:"max_speed_jitter"`
	MaxAccel       float64 `yaml:"max_accel"`
	MaxAccelJitter float64 `yaml:"max_accel_jitter"`
}

// PerceptionConfig holds sensing parameters.
type PerceptionConfig struct {
	Visibility            float64 `yaml:"visibility"`
	FoodCollisionDistance float64 `yaml:"food_collision_distance"`
	BotCollisionDistance  float64 `yaml:"bot_collision_distance"`
	BotsRequireLiveTarget bool    `yaml:"bots_require_live_target"` // Bots ignore organisms with zero energy
}

// Bot damage modes.
const (
	DamageDecay = "decay" // energy *= bot_damage ^ dt
	DamageFixed = "fixed" // energy -= bot_damage_amount
)

// EnergyConfig holds the fitness economy.
type EnergyConfig struct {
	Initial         float64 `yaml:"initial"`
	FoodValue       float64 `yaml:"food_value"`
	BotDamageMode   string  `yaml:"bot_damage_mode"`
	BotDamage       float64 `yaml:"bot_damage"`        // Decay base per second
	BotDamageAmount float64 `yaml:"bot_damage_amount"` // Fixed decrement per contact tick
	BotReward       float64 `yaml:"bot_reward"`        // Multiplier on dt credited to a bot in contact
	DrainPerSecond  float64 `yaml:"drain_per_second"`
	CenterPenalty   float64 `yaml:"center_penalty"` // Scales (dist/arena radius)^2 per second
}

// Hidden layer activations.
const (
	ActivationTanh     = "tanh"
	ActivationIdentity = "identity"
)

// NeuralConfig holds the controller shape and initialization ranges.
// The input count is fixed by perception (see DerivedConfig.NumInputs).
type NeuralConfig struct {
	Hidden           int     `yaml:"hidden"`
	Outputs          int     `yaml:"outputs"`
	HiddenActivation string  `yaml:"hidden_activation"`
	WeightRange      float64 `yaml:"weight_range"`
	BiasRange        float64 `yaml:"bias_range"`
}

// Parent pool and selection policies.
const (
	PoolTopHalf = "top_half"
	PoolElite   = "elite"

	SelectTournament = "tournament"
	SelectWeighted   = "weighted"

	ExtinctionAbsolute = "absolute"
	ExtinctionRelative = "relative"
)

// EvolutionConfig holds genetic algorithm parameters.
type EvolutionConfig struct {
	EvolutionTime       float64 `yaml:"evolution_time"` // Seconds of simulated time per generation
	Elitism             int     `yaml:"elitism"`
	ParentPool          string  `yaml:"parent_pool"`
	Selection           string  `yaml:"selection"`
	TournamentSize      int     `yaml:"tournament_size"`
	BlendMin            float64 `yaml:"blend_min"`
	BlendMax            float64 `yaml:"blend_max"`
	MutationChance      float64 `yaml:"mutation_chance"`
	MutationRate        float64 `yaml:"mutation_rate"`
	FlipChance          float64 `yaml:"flip_chance"`
	ExtinctionMode      string  `yaml:"extinction_mode"`
	ExtinctionThreshold float64 `yaml:"extinction_threshold"` // 0 disables mass extinction
	SeedWeights         string  `yaml:"seed_weights"`         // Hall of fame JSON used to seed generation 0
}

// SpeciationConfig holds weight-space clustering parameters.
type SpeciationConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Threshold      float64 `yaml:"threshold"`       // Mean absolute weight difference
	FitnessSharing bool    `yaml:"fitness_sharing"` // Rank parents by energy / species size
	DropOffAge     int     `yaml:"drop_off_age"`    // Generations without improvement before a species is dropped
}

// TelemetryConfig holds output parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int `yaml:"perf_collector_window"`
	HallOfFameSize      int `yaml:"hall_of_fame_size"`
}

// ParallelConfig holds worker pool parameters.
type ParallelConfig struct {
	Threshold int `yaml:"threshold"` // Minimum agent count to fan out
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	NumInputs   int     // Two perception slots of (dx, dy, dz, dist)
	CenterX     float64 // Arena center
	CenterY     float64
	CenterZ     float64
	ArenaRadius float64 // Half-diagonal of the arena
	Planar      bool    // MinZ == MaxZ
	HalfExtentX float64
	HalfExtentY float64
	HalfExtentZ float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Clone returns a deep copy. Tests and the optimizer mutate clones.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate reports the first constraint the configuration violates.
func (c *Config) Validate() error {
	switch {
	case c.Physics.DT <= 0:
		return errors.New("physics.dt must be positive")
	case c.Physics.Friction < 0 || c.Physics.Friction > 1:
		return errors.New("physics.friction must be in [0,1]")
	case c.Population.MaxOrganisms < 0 || c.Population.MaxBots < 0 || c.Population.MaxFood < 0:
		return errors.New("population sizes must be non-negative")
	case c.World.MaxX <= c.World.MinX || c.World.MaxY <= c.World.MinY || c.World.MaxZ < c.World.MinZ:
		return errors.New("world bounds are empty")
	case c.Perception.Visibility <= 0:
		return errors.New("perception.visibility must be positive")
	case c.Neural.Hidden < 1:
		return errors.New("neural.hidden must be at least 1")
	case c.Neural.Outputs < 2:
		return errors.New("neural.outputs must be at least 2")
	case c.Evolution.EvolutionTime <= 0:
		return errors.New("evolution.evolution_time must be positive")
	case c.Evolution.Elitism < 0:
		return errors.New("evolution.elitism must be non-negative")
	case c.Evolution.BlendMin < 0 || c.Evolution.BlendMax > 1 || c.Evolution.BlendMin > c.Evolution.BlendMax:
		return errors.New("evolution blend range must be a sub-range of [0,1]")
	}

	switch c.Energy.BotDamageMode {
	case DamageDecay, DamageFixed:
	default:
		return fmt.Errorf("unknown energy.bot_damage_mode %q", c.Energy.BotDamageMode)
	}
	switch c.Neural.HiddenActivation {
	case ActivationTanh, ActivationIdentity:
	default:
		return fmt.Errorf("unknown neural.hidden_activation %q", c.Neural.HiddenActivation)
	}
	switch c.Evolution.ParentPool {
	case PoolTopHalf, PoolElite:
	default:
		return fmt.Errorf("unknown evolution.parent_pool %q", c.Evolution.ParentPool)
	}
	switch c.Evolution.Selection {
	case SelectTournament:
	case SelectWeighted:
		// Weighted selection draws parents from the elites only
		if c.Evolution.Elitism < 1 {
			return fmt.Errorf("evolution.selection %q needs evolution.elitism >= 1", c.Evolution.Selection)
		}
	default:
		return fmt.Errorf("unknown evolution.selection %q", c.Evolution.Selection)
	}
	switch c.Evolution.ExtinctionMode {
	case ExtinctionAbsolute, ExtinctionRelative:
	default:
		return fmt.Errorf("unknown evolution.extinction_mode %q", c.Evolution.ExtinctionMode)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.NumInputs = 8
	c.Derived.CenterX = (c.World.MinX + c.World.MaxX) / 2
	c.Derived.CenterY = (c.World.MinY + c.World.MaxY) / 2
	c.Derived.CenterZ = (c.World.MinZ + c.World.MaxZ) / 2
	c.Derived.HalfExtentX = (c.World.MaxX - c.World.MinX) / 2
	c.Derived.HalfExtentY = (c.World.MaxY - c.World.MinY) / 2
	c.Derived.HalfExtentZ = (c.World.MaxZ - c.World.MinZ) / 2
	c.Derived.Planar = c.World.MaxZ == c.World.MinZ

	hx, hy, hz := c.Derived.HalfExtentX, c.Derived.HalfExtentY, c.Derived.HalfExtentZ
	c.Derived.ArenaRadius = math.Sqrt(hx*hx + hy*hy + hz*hz)
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() {
	c.computeDerived()
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
