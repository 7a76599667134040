// Package systems contains the per-agent steps of a simulation tick:
// perception, decision decoding, integration and contact resolution.
// Every function here is pure over the values it is given, so the
// simulation can run them from worker goroutines.
package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/config"
)

// Params holds the config values read on hot paths.
type Params struct {
	DT       float64
	Friction float64
	Planar   bool
	PlaneZ   float64

	Visibility            float64
	FoodCollisionDistance float64
	BotCollisionDistance  float64
	BotsRequireLiveTarget bool

	FoodValue       float64
	DamageMode      string
	BotDamage       float64
	BotDamageAmount float64
	BotReward       float64
	DrainPerSecond  float64
	CenterPenalty   float64
	Center          r3.Vec
	ArenaRadius     float64
}

// ParamsFromConfig extracts hot-path values from cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		DT:                    cfg.Physics.DT,
		Friction:              cfg.Physics.Friction,
		Planar:                cfg.Derived.Planar,
		PlaneZ:                cfg.World.MinZ,
		Visibility:            cfg.Perception.Visibility,
		FoodCollisionDistance: cfg.Perception.FoodCollisionDistance,
		BotCollisionDistance:  cfg.Perception.BotCollisionDistance,
		BotsRequireLiveTarget: cfg.Perception.BotsRequireLiveTarget,
		FoodValue:             cfg.Energy.FoodValue,
		DamageMode:            cfg.Energy.BotDamageMode,
		BotDamage:             cfg.Energy.BotDamage,
		BotDamageAmount:       cfg.Energy.BotDamageAmount,
		BotReward:             cfg.Energy.BotReward,
		DrainPerSecond:        cfg.Energy.DrainPerSecond,
		CenterPenalty:         cfg.Energy.CenterPenalty,
		Center:                r3.Vec{X: cfg.Derived.CenterX, Y: cfg.Derived.CenterY, Z: cfg.Derived.CenterZ},
		ArenaRadius:           cfg.Derived.ArenaRadius,
	}
}
