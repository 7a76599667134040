package sim

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/components"
	"github.com/pthm-cable/organisms/config"
	"github.com/pthm-cable/organisms/evolution"
	"github.com/pthm-cable/organisms/neural"
)

// organismID names the organism in a population slot of a generation.
func organismID(slot, generation int) string {
	return fmt.Sprintf("organism_%d_gen_%d", slot, generation)
}

// spawnInitialPopulation creates generation 0 and the bots.
func (s *Simulation) spawnInitialPopulation(seeds []neural.Weights) {
	for slot := 0; slot < s.cfg.Population.MaxOrganisms; slot++ {
		var w neural.Weights
		if len(seeds) > 0 {
			w = seeds[slot%len(seeds)].Clone()
			if slot >= len(seeds) {
				evolution.Mutate(s.rng, w, s.evo.Mutation)
			}
		} else {
			w = neural.RandomWeights(s.rng, s.shape, s.cfg.Neural.WeightRange, s.cfg.Neural.BiasRange)
		}
		s.spawnOrganism(slot, w, "")
	}

	for i := 0; i < s.cfg.Population.MaxBots; i++ {
		s.spawnBot(i)
	}
}

// drawMobility samples per-agent limits as base + U[0, jitter].
func (s *Simulation) drawMobility(m config.MobilityConfig) components.Mobility {
	return components.Mobility{
		MaxSpeed: m.MaxSpeed + s.rng.Float64()*m.MaxSpeedJitter,
		MaxAccel: m.MaxAccel + s.rng.Float64()*m.MaxAccelJitter,
	}
}

// spawnOrganism creates an organism in slot with the given weights.
// The controller takes its own copy of w.
func (s *Simulation) spawnOrganism(slot int, w neural.Weights, ancestor string) ecs.Entity {
	id := organismID(slot, s.generation)

	pos := components.Position{Vec: s.arena.RandomPoint(s.rng)}
	vel := components.Velocity{}
	energy := components.Energy{Value: s.cfg.Energy.Initial}
	mob := s.drawMobility(s.cfg.Organism)
	org := components.Organism{
		ID:         id,
		Generation: s.generation,
		Slot:       slot,
		Ancestor:   ancestor,
	}

	s.brains[id] = neural.NewControllerWithWeights(s.shape, s.hidden, w)
	s.lifetimes.Register(id, s.generation, slot, ancestor, energy.Value)

	entity := s.organismMapper.NewEntity(&pos, &vel, &energy, &mob, &org)
	s.organisms = append(s.organisms, entity)
	return entity
}

// spawnBot creates a predator at a random position.
func (s *Simulation) spawnBot(index int) ecs.Entity {
	pos := components.Position{Vec: s.arena.RandomPoint(s.rng)}
	vel := components.Velocity{}
	energy := components.Energy{}
	mob := s.drawMobility(s.cfg.Bot)
	bot := components.Bot{ID: fmt.Sprintf("bot_%d", index)}

	entity := s.botMapper.NewEntity(&pos, &vel, &energy, &mob, &bot)
	s.bots = append(s.bots, entity)
	return entity
}

// spawnFood tops the food pool up to max_food and returns the number added.
// IDs are drawn from the simulation's random source so runs stay reproducible.
func (s *Simulation) spawnFood() int {
	added := 0
	for len(s.food) < s.cfg.Population.MaxFood {
		id, err := uuid.NewRandomFromReader(s.rng)
		if err != nil {
			// math/rand never fails to read
			panic(fmt.Sprintf("sim: drawing food id: %v", err))
		}

		pos := components.Position{Vec: s.arena.RandomPoint(s.rng)}
		food := components.Food{ID: id.String()}

		entity := s.foodMapper.NewEntity(&pos, &food)
		s.food = append(s.food, entity)
		s.foodByID[food.ID] = entity
		added++
	}
	return added
}

// consumeFood removes the food item with the given ID.
// Returns false if it is already gone, which makes removal idempotent when
// two organisms reach the same item in one tick.
func (s *Simulation) consumeFood(id string) bool {
	entity, ok := s.foodByID[id]
	if !ok {
		return false
	}
	delete(s.foodByID, id)

	for i, e := range s.food {
		if e == entity {
			s.food = append(s.food[:i], s.food[i+1:]...)
			break
		}
	}
	s.world.RemoveEntity(entity)
	return true
}

// clearFood removes every food entity.
func (s *Simulation) clearFood() {
	// Collect first: the world must not change during a query
	var toRemove []ecs.Entity
	query := s.foodFilter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}

	for _, e := range toRemove {
		s.world.RemoveEntity(e)
	}
	s.food = s.food[:0]
	clear(s.foodByID)
}

// removeOrganisms discards the whole organism population and its controllers.
func (s *Simulation) removeOrganisms() {
	for _, e := range s.organisms {
		if org := s.orgMap.Get(e); org != nil {
			delete(s.brains, org.ID)
		}
		s.world.RemoveEntity(e)
	}
	s.organisms = s.organisms[:0]
}

// resetBots repositions every bot and zeroes its energy, velocity and target.
func (s *Simulation) resetBots() {
	for _, e := range s.bots {
		s.posMap.Get(e).Vec = s.arena.RandomPoint(s.rng)
		s.velMap.Get(e).Vec = r3.Vec{}
		s.energyMap.Get(e).Value = 0
		bot := s.botMap.Get(e)
		bot.Target = components.Ref{}
		bot.TargetDistance = 0
	}
}

// foodRefs returns perception views of the food pool in pool order.
func (s *Simulation) foodRefs(dst []components.Ref) []components.Ref {
	dst = dst[:0]
	for _, e := range s.food {
		dst = append(dst, components.Ref{
			Kind: components.KindFood,
			ID:   s.foodMap.Get(e).ID,
			Pos:  s.posMap.Get(e).Vec,
		})
	}
	return dst
}

// organismRefs returns perception views of the population in slot order.
func (s *Simulation) organismRefs(dst []components.Ref) []components.Ref {
	dst = dst[:0]
	for _, e := range s.organisms {
		dst = append(dst, components.Ref{
			Kind:   components.KindOrganism,
			ID:     s.orgMap.Get(e).ID,
			Pos:    s.posMap.Get(e).Vec,
			Energy: s.energyMap.Get(e).Value,
		})
	}
	return dst
}

// botRefs returns perception views of the bots in index order.
func (s *Simulation) botRefs(dst []components.Ref) []components.Ref {
	dst = dst[:0]
	for _, e := range s.bots {
		dst = append(dst, components.Ref{
			Kind:   components.KindBot,
			ID:     s.botMap.Get(e).ID,
			Pos:    s.posMap.Get(e).Vec,
			Energy: s.energyMap.Get(e).Value,
		})
	}
	return dst
}
