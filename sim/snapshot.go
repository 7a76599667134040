package sim

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/components"
	"github.com/pthm-cable/organisms/evolution"
	"github.com/pthm-cable/organisms/neural"
	"github.com/pthm-cable/organisms/telemetry"
)

// AgentState is a read-only copy of one entity for presentation.
type AgentState struct {
	Kind     components.Kind
	ID       string
	Position r3.Vec
	Velocity r3.Vec
	Energy   float64
	Rotation float64 // Heading in the xy plane, derived from velocity
}

// Snapshot is a copy of the world after a completed tick.
// It shares no memory with the simulation.
type Snapshot struct {
	Generation int
	EpochTime  float64
	Tick       int

	Organisms []AgentState // Population order
	Bots      []AgentState
	Food      []AgentState // Pool order

	Best    AgentState
	HasBest bool

	Scores []evolution.GenerationScore
}

// Champion is the best organism of a finished generation.
type Champion struct {
	ID      string
	Energy  float64
	Weights neural.Weights // Copy owned by the receiver
}

// Report is handed to Options.OnEvolve once per evolution cycle.
type Report struct {
	// Snapshot of the finished generation at the epoch boundary,
	// before its organisms were replaced.
	Snapshot Snapshot
	Score    evolution.GenerationScore
	Stats    telemetry.GenerationStats
	Champion Champion
	// One entry per organism of the finished generation, in slot order.
	Lifetimes []telemetry.LifetimeStats
}

// Snapshot copies the current world state.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Generation: s.generation,
		EpochTime:  s.epochTime,
		Tick:       s.tick,
		Organisms:  make([]AgentState, len(s.organisms)),
		Bots:       make([]AgentState, len(s.bots)),
		Food:       make([]AgentState, len(s.food)),
		Best:       s.best,
		HasBest:    s.hasBest,
		Scores:     s.Scores(),
	}
	for i, e := range s.organisms {
		snap.Organisms[i] = s.organismState(e)
	}
	for i, e := range s.bots {
		snap.Bots[i] = s.agentState(e, components.KindBot, s.botMap.Get(e).ID)
	}
	for i, e := range s.food {
		snap.Food[i] = AgentState{
			Kind:     components.KindFood,
			ID:       s.foodMap.Get(e).ID,
			Position: s.posMap.Get(e).Vec,
		}
	}
	return snap
}

func (s *Simulation) organismState(e ecs.Entity) AgentState {
	return s.agentState(e, components.KindOrganism, s.orgMap.Get(e).ID)
}

func (s *Simulation) agentState(e ecs.Entity, kind components.Kind, id string) AgentState {
	vel := *s.velMap.Get(e)
	return AgentState{
		Kind:     kind,
		ID:       id,
		Position: s.posMap.Get(e).Vec,
		Velocity: vel.Vec,
		Energy:   s.energyMap.Get(e).Value,
		Rotation: vel.Rotation(),
	}
}

// Organism returns the state of the organism with the given ID.
func (s *Simulation) Organism(id string) (AgentState, bool) {
	for _, e := range s.organisms {
		if s.orgMap.Get(e).ID == id {
			return s.organismState(e), true
		}
	}
	return AgentState{}, false
}

// FoodCount returns the number of food items in the pool.
func (s *Simulation) FoodCount() int {
	return len(s.food)
}
