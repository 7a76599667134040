package telemetry

// LifetimeStats tracks one organism over the generation it lived in.
type LifetimeStats struct {
	OrganismID  string  `csv:"organism_id"`
	Generation  int     `csv:"generation"`
	Slot        int     `csv:"slot"`
	Ancestor    string  `csv:"ancestor"` // Elite source ID, empty for bred and random organisms
	FoodEaten   int     `csv:"food_eaten"`
	BotContacts int     `csv:"bot_contacts"`
	PeakEnergy  float64 `csv:"peak_energy"`
	FinalEnergy float64 `csv:"final_energy"`
}

// LifetimeTracker manages per-organism statistics for the current generation.
type LifetimeTracker struct {
	stats map[string]*LifetimeStats
	order []string // Registration order, which is slot order
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[string]*LifetimeStats),
	}
}

// Register creates stats for a newly spawned organism.
func (lt *LifetimeTracker) Register(id string, generation, slot int, ancestor string, energy float64) {
	if _, ok := lt.stats[id]; !ok {
		lt.order = append(lt.order, id)
	}
	lt.stats[id] = &LifetimeStats{
		OrganismID:  id,
		Generation:  generation,
		Slot:        slot,
		Ancestor:    ancestor,
		PeakEnergy:  energy,
		FinalEnergy: energy,
	}
}

// Get returns the stats for an organism, or nil if not found.
func (lt *LifetimeTracker) Get(id string) *LifetimeStats {
	return lt.stats[id]
}

// RecordFood increments the food eaten count.
func (lt *LifetimeTracker) RecordFood(id string) {
	if s := lt.stats[id]; s != nil {
		s.FoodEaten++
	}
}

// RecordBotContact increments the bot contact count.
func (lt *LifetimeTracker) RecordBotContact(id string) {
	if s := lt.stats[id]; s != nil {
		s.BotContacts++
	}
}

// UpdateEnergy tracks current and peak energy.
func (lt *LifetimeTracker) UpdateEnergy(id string, energy float64) {
	if s := lt.stats[id]; s != nil {
		s.FinalEnergy = energy
		s.PeakEnergy = max(s.PeakEnergy, energy)
	}
}

// Count returns the number of tracked organisms.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// Flush returns every tracked organism in registration order and resets the tracker.
func (lt *LifetimeTracker) Flush() []LifetimeStats {
	out := make([]LifetimeStats, 0, len(lt.order))
	for _, id := range lt.order {
		out = append(out, *lt.stats[id])
	}
	lt.stats = make(map[string]*LifetimeStats, len(lt.order))
	lt.order = lt.order[:0]
	return out
}
