package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/components"
	"github.com/pthm-cable/organisms/config"
)

// ResolveOrganismContacts checks an organism's post-move position against
// its target and threat.
//
// A target closer than the food collision distance is cleared and its ID is
// returned as eaten; the energy credit is applied by the caller once removal
// from the shared pool succeeds. A threat closer than the bot collision
// distance damages energy and is cleared. Energy never drops below zero.
func ResolveOrganismContacts(pos r3.Vec, energy float64, org *components.Organism, p Params) (float64, string) {
	var eaten string
	if org.Target.Valid() && components.Distance(pos, org.Target.Pos) < p.FoodCollisionDistance {
		eaten = org.Target.ID
		org.Target = components.Ref{}
	}

	if org.Threat.Valid() && components.Distance(pos, org.Threat.Pos) < p.BotCollisionDistance {
		energy = ApplyBotDamage(energy, p)
		org.Threat = components.Ref{}
	}

	return max(energy, 0), eaten
}

// ApplyBotDamage applies one tick of predator contact.
func ApplyBotDamage(energy float64, p Params) float64 {
	switch p.DamageMode {
	case config.DamageFixed:
		energy -= p.BotDamageAmount
	default:
		energy *= math.Pow(p.BotDamage, p.DT)
	}
	return max(energy, 0)
}

// CreditFood returns energy after eating one food item.
func CreditFood(energy float64, p Params) float64 {
	return energy + p.FoodValue
}

// ResolveBotContact rewards a bot touching its target with BotReward*dt.
// The reward is continuous while contact lasts.
func ResolveBotContact(pos r3.Vec, energy float64, bot *components.Bot, p Params) (float64, bool) {
	if !bot.Target.Valid() {
		return energy, false
	}
	if components.Distance(pos, bot.Target.Pos) >= p.BotCollisionDistance {
		return energy, false
	}
	return energy + p.BotReward*p.DT, true
}

// ApplyPenalties applies the optional continuous energy costs: a flat drain
// and a quadratic penalty on normalized distance from the arena center.
func ApplyPenalties(energy float64, pos r3.Vec, p Params) float64 {
	energy -= p.DrainPerSecond * p.DT
	if p.CenterPenalty > 0 && p.ArenaRadius > 0 {
		r := components.Distance(pos, p.Center) / p.ArenaRadius
		energy -= p.CenterPenalty * r * r * p.DT
	}
	return max(energy, 0)
}
