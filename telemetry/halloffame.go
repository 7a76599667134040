package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"

	"github.com/pthm-cable/organisms/neural"
)

// HallEntry is one generation champion kept across the whole run.
type HallEntry struct {
	Weights       neural.Weights
	Fitness       float64 // BestEnergy * AverageEnergy of the champion's generation
	OrganismID    string
	Generation    int
	BestEnergy    float64
	AverageEnergy float64
}

// HallOfFame is the caller-owned accumulator of the best controllers seen
// during a run. Entries are kept sorted by fitness, highest first.
type HallOfFame struct {
	entries []HallEntry
	shape   neural.Shape
	maxSize int
	rng     *rand.Rand
}

// NewHallOfFame creates an empty hall holding at most maxSize entries of the given shape.
func NewHallOfFame(maxSize int, shape neural.Shape, rng *rand.Rand) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		shape:   shape,
		maxSize: maxSize,
		rng:     rng,
	}
}

// Consider evaluates a generation champion for entry.
// Generations are ranked by best*average energy.
// Returns true if the champion was added.
func (hof *HallOfFame) Consider(id string, generation int, weights neural.Weights, best, average float64) bool {
	if err := weights.Validate(hof.shape); err != nil {
		slog.Warn("hall_of_fame: rejecting champion", "id", id, "error", err)
		return false
	}
	if weights.HasNaN() {
		return false
	}

	entry := HallEntry{
		Weights:       weights.Clone(),
		Fitness:       best * average,
		OrganismID:    id,
		Generation:    generation,
		BestEnergy:    best,
		AverageEnergy: average,
	}

	var added bool
	hof.entries, added = hof.insertEntry(hof.entries, entry)
	return added
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
// Reports false if the entry ranked below a full hall.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) ([]HallEntry, bool) {
	// Equal fitness keeps the older entry first
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall, false
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}

	return hall, true
}

// Sample selects weights from the hall using tournament selection.
// Returns false if the hall is empty.
func (hof *HallOfFame) Sample() (neural.Weights, bool) {
	if len(hof.entries) == 0 {
		return neural.Weights{}, false
	}

	const tournamentSize = 3
	best := -1
	for i := 0; i < tournamentSize && i < len(hof.entries); i++ {
		idx := hof.rng.Intn(len(hof.entries))
		if best < 0 || hof.entries[idx].Fitness > hof.entries[best].Fitness {
			best = idx
		}
	}

	return hof.entries[best].Weights.Clone(), true
}

// Seeds returns copies of every entry's weights in rank order.
func (hof *HallOfFame) Seeds() []neural.Weights {
	out := make([]neural.Weights, len(hof.entries))
	for i, e := range hof.entries {
		out[i] = e.Weights.Clone()
	}
	return out
}

// ResumeSeeds returns n weights for restarting a population from the hall.
// Every entry appears once in rank order; remaining slots are filled by Sample.
// Fewer than n weights are returned only when n is below the hall size.
func (hof *HallOfFame) ResumeSeeds(n int) []neural.Weights {
	out := hof.Seeds()
	if len(out) > n {
		return out[:n]
	}
	for len(out) < n {
		w, ok := hof.Sample()
		if !ok {
			break
		}
		out = append(out, w)
	}
	return out
}

// Entries returns the ranked entries. The slice must not be modified.
func (hof *HallOfFame) Entries() []HallEntry {
	return hof.entries
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// Shape returns the controller shape every entry conforms to.
func (hof *HallOfFame) Shape() neural.Shape {
	return hof.shape
}

// TopFitness returns the highest fitness in the hall, or 0 if empty.
func (hof *HallOfFame) TopFitness() float64 {
	if len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Fitness
}

// hallOfFameJSON is the serialized form of a hall of fame.
type hallOfFameJSON struct {
	Shape   neural.Shape    `json:"shape"`
	Entries []hallEntryJSON `json:"entries"`
}

type hallEntryJSON struct {
	OrganismID    string         `json:"organism_id"`
	Generation    int            `json:"generation"`
	Fitness       float64        `json:"fitness"`
	BestEnergy    float64        `json:"best_energy"`
	AverageEnergy float64        `json:"average_energy"`
	Weights       neural.Weights `json:"weights"`
}

// MarshalJSON serializes the hall of fame to JSON.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	export := hallOfFameJSON{
		Shape:   hof.shape,
		Entries: make([]hallEntryJSON, len(hof.entries)),
	}
	for i, e := range hof.entries {
		export.Entries[i] = hallEntryJSON{
			OrganismID:    e.OrganismID,
			Generation:    e.Generation,
			Fitness:       e.Fitness,
			BestEnergy:    e.BestEnergy,
			AverageEnergy: e.AverageEnergy,
			Weights:       e.Weights,
		}
	}
	return json.MarshalIndent(export, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file.
// Entries whose weights do not match the stored shape are skipped with a warning.
func LoadHallOfFameFromFile(path string, rng *rand.Rand) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var raw hallOfFameJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}
	if !raw.Shape.Valid() {
		return nil, fmt.Errorf("hall of fame has invalid shape %+v", raw.Shape)
	}

	maxSize := max(len(raw.Entries), 10)
	hof := NewHallOfFame(maxSize, raw.Shape, rng)

	for _, ej := range raw.Entries {
		if err := ej.Weights.Validate(raw.Shape); err != nil {
			slog.Warn("hall_of_fame_load: skipping entry", "id", ej.OrganismID, "error", err)
			continue
		}
		hof.entries, _ = hof.insertEntry(hof.entries, HallEntry{
			Weights:       ej.Weights,
			Fitness:       ej.Fitness,
			OrganismID:    ej.OrganismID,
			Generation:    ej.Generation,
			BestEnergy:    ej.BestEnergy,
			AverageEnergy: ej.AverageEnergy,
		})
	}

	return hof, nil
}
