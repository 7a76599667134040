package sim

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/components"
	"github.com/pthm-cable/organisms/neural"
	"github.com/pthm-cable/organisms/systems"
	"github.com/pthm-cable/organisms/telemetry"
)

// agentSnapshot captures read-only start-of-step state for one agent.
type agentSnapshot struct {
	Entity   ecs.Entity
	Pos      r3.Vec
	Vel      r3.Vec
	Energy   float64
	Mobility components.Mobility
}

// organismSnapshot adds what an organism step needs.
type organismSnapshot struct {
	agentSnapshot
	Organism components.Organism
	Brain    *neural.Controller
}

// botSnapshot adds what a bot step needs.
type botSnapshot struct {
	agentSnapshot
	Bot components.Bot
}

// organismIntent is the computed result of one organism step.
type organismIntent struct {
	Pos, Vel r3.Vec
	Energy   float64
	Organism components.Organism
	Eaten    string // Food ID reached this tick, removed at commit
	Hit      bool   // Took bot damage
}

// botIntent is the computed result of one bot step.
type botIntent struct {
	Pos, Vel r3.Vec
	Energy   float64
	Bot      components.Bot
	Hit      bool // Touched its target
}

// tickState holds buffers reused across ticks.
type tickState struct {
	foodRefs     []components.Ref
	organismRefs []components.Ref
	botRefs      []components.Ref

	organisms []organismSnapshot
	bots      []botSnapshot
	orgOut    []organismIntent
	botOut    []botIntent
}

// Tick advances the simulation by one step of dt simulated seconds.
// dt <= 0 uses the configured physics.dt.
//
// Order within a tick:
//  1. food is topped up to max_food
//  2. bots perceive organisms at their start-of-tick positions, move and collide
//  3. organisms perceive food and the bots' post-move positions, decide, move and collide
//  4. food removals and credits are committed in organism order
//  5. the best organism is recorded
//  6. if the epoch is over, the population evolves
func (s *Simulation) Tick(dt float64) {
	if dt <= 0 {
		dt = s.cfg.Physics.DT
	}
	p := s.params
	p.DT = dt

	perf := s.opts.Perf
	perf.StartTick()

	perf.StartPhase(telemetry.PhaseFood)
	if added := s.spawnFood(); added > 0 {
		s.collector.RecordFoodSpawned(added)
		s.logger.Debug("food spawned", "count", added, "tick", s.tick)
	}

	perf.StartPhase(telemetry.PhaseBots)
	s.stepBots(p)

	perf.StartPhase(telemetry.PhaseOrganisms)
	s.stepOrganisms(p)

	perf.StartPhase(telemetry.PhaseCommit)
	eaten := s.commitOrganisms(p)
	if eaten > 0 {
		s.logger.Debug("food consumed", "count", eaten, "tick", s.tick)
	}
	s.updateBest()
	s.collector.RecordTick()
	s.opts.Metrics.SetFood(len(s.food))

	s.tick++
	s.simTime += dt
	s.epochTime += dt
	if s.epochTime+epochEpsilon >= s.cfg.Evolution.EvolutionTime {
		perf.StartPhase(telemetry.PhaseEvolution)
		s.evolve()
	}

	perf.EndTick()
}

// stepBots runs perception, pursuit, integration and contact for every bot
// and applies the results.
func (s *Simulation) stepBots(p systems.Params) {
	ts := &s.ts
	ts.organismRefs = s.organismRefs(ts.organismRefs)

	ts.bots = ts.bots[:0]
	for _, e := range s.bots {
		ts.bots = append(ts.bots, botSnapshot{
			agentSnapshot: s.snapshotAgent(e),
			Bot:           *s.botMap.Get(e),
		})
	}
	ts.botOut = resize(ts.botOut, len(ts.bots))

	orgRefs := ts.organismRefs
	s.parallel.run(len(ts.bots), func(start, end int, _ *workerScratch) {
		for i := start; i < end; i++ {
			ts.botOut[i] = stepBot(&ts.bots[i], orgRefs, p)
		}
	})

	for i := range ts.bots {
		e := ts.bots[i].Entity
		out := &ts.botOut[i]
		s.posMap.Get(e).Vec = out.Pos
		s.velMap.Get(e).Vec = out.Vel
		s.energyMap.Get(e).Value = out.Energy
		*s.botMap.Get(e) = out.Bot
		if out.Hit {
			s.collector.RecordBotContact()
		}
	}
}

// stepBot is the pure per-bot step.
func stepBot(snap *botSnapshot, organisms []components.Ref, p systems.Params) botIntent {
	bot := snap.Bot
	bot.Target, bot.TargetDistance = systems.PerceiveBot(snap.Pos, organisms, p.Visibility, p.BotsRequireLiveTarget)

	d := systems.Decision{Throttle: 1}
	if bot.Target.Valid() {
		d.Accel = systems.PursuitSteering(snap.Pos, snap.Vel, bot.Target.Pos, snap.Mobility.MaxSpeed)
	}
	pos, vel := systems.Integrate(snap.Pos, snap.Vel, d, snap.Mobility, p)

	energy, hit := systems.ResolveBotContact(pos, snap.Energy, &bot, p)
	return botIntent{Pos: pos, Vel: vel, Energy: energy, Bot: bot, Hit: hit}
}

// stepOrganisms computes every organism's step in parallel. Results are
// applied by commitOrganisms.
func (s *Simulation) stepOrganisms(p systems.Params) {
	ts := &s.ts
	ts.foodRefs = s.foodRefs(ts.foodRefs)
	ts.botRefs = s.botRefs(ts.botRefs)

	ts.organisms = ts.organisms[:0]
	for _, e := range s.organisms {
		org := *s.orgMap.Get(e)
		ts.organisms = append(ts.organisms, organismSnapshot{
			agentSnapshot: s.snapshotAgent(e),
			Organism:      org,
			Brain:         s.brains[org.ID],
		})
	}
	ts.orgOut = resize(ts.orgOut, len(ts.organisms))

	food, bots := ts.foodRefs, ts.botRefs
	s.parallel.run(len(ts.organisms), func(start, end int, scratch *workerScratch) {
		for i := start; i < end; i++ {
			ts.orgOut[i] = stepOrganism(&ts.organisms[i], food, bots, scratch, p)
		}
	})
}

// stepOrganism is the pure per-organism step.
func stepOrganism(snap *organismSnapshot, food, bots []components.Ref, scratch *workerScratch, p systems.Params) organismIntent {
	org := snap.Organism
	org.Target, org.Threat = systems.PerceiveOrganism(snap.Pos, food, bots, p.Visibility)

	scratch.Inputs = systems.EncodeInputs(scratch.Inputs, snap.Pos, org.Target, org.Threat, p.Visibility)
	d := systems.InterpretOutputs(snap.Brain.Predict(scratch.Inputs))

	pos, vel := systems.Integrate(snap.Pos, snap.Vel, d, snap.Mobility, p)

	hadThreat := org.Threat.Valid()
	energy, eaten := systems.ResolveOrganismContacts(pos, snap.Energy, &org, p)
	hit := hadThreat && !org.Threat.Valid()
	energy = systems.ApplyPenalties(energy, pos, p)

	return organismIntent{Pos: pos, Vel: vel, Energy: energy, Organism: org, Eaten: eaten, Hit: hit}
}

// commitOrganisms applies organism results in population order. Food is
// credited only when its removal succeeds, so an item reached by several
// organisms in one tick goes to the first of them. Returns the number eaten.
func (s *Simulation) commitOrganisms(p systems.Params) int {
	ts := &s.ts
	eaten := 0
	for i := range ts.organisms {
		e := ts.organisms[i].Entity
		out := &ts.orgOut[i]

		id := out.Organism.ID
		energy := out.Energy
		if out.Eaten != "" && s.consumeFood(out.Eaten) {
			energy = systems.CreditFood(energy, p)
			s.collector.RecordFoodEaten()
			s.lifetimes.RecordFood(id)
			eaten++
		}
		if out.Hit {
			s.collector.RecordThreatContact()
			s.lifetimes.RecordBotContact(id)
		}
		s.lifetimes.UpdateEnergy(id, energy)

		s.posMap.Get(e).Vec = out.Pos
		s.velMap.Get(e).Vec = out.Vel
		s.energyMap.Get(e).Value = energy
		*s.orgMap.Get(e) = out.Organism
	}
	return eaten
}

// updateBest records the highest-energy organism. Ties keep the lower slot.
func (s *Simulation) updateBest() {
	s.hasBest = false
	for _, e := range s.organisms {
		energy := s.energyMap.Get(e).Value
		if !s.hasBest || energy > s.best.Energy {
			s.best = s.organismState(e)
			s.hasBest = true
		}
	}
}

func (s *Simulation) snapshotAgent(e ecs.Entity) agentSnapshot {
	return agentSnapshot{
		Entity:   e,
		Pos:      s.posMap.Get(e).Vec,
		Vel:      s.velMap.Get(e).Vec,
		Energy:   s.energyMap.Get(e).Value,
		Mobility: *s.mobilityMap.Get(e),
	}
}

// resize returns buf with length n, reallocating only when capacity is short.
func resize[T any](buf []T, n int) []T {
	if cap(buf) < n {
		return make([]T, n)
	}
	return buf[:n]
}
