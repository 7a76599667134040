package components

// Energy is the fitness signal for organisms and the reward tally for bots.
type Energy struct {
	Value float64
}

// Mobility holds per-agent movement limits drawn at spawn.
type Mobility struct {
	MaxSpeed float64
	MaxAccel float64
}

// Organism holds prey identity and the last perception results.
// The controller lives in the simulation's brain map, keyed by ID.
type Organism struct {
	ID         string
	Generation int
	Slot       int    // Index in the ordered population
	Ancestor   string // Elite this organism was copied from, empty otherwise
	Target     Ref    // Nearest visible food
	Threat     Ref    // Nearest visible bot
}

// Bot holds predator identity and pursuit state.
type Bot struct {
	ID             string
	Target         Ref // Nearest visible organism
	TargetDistance float64
}

// Food is a consumable with no behavior.
type Food struct {
	ID string
}
