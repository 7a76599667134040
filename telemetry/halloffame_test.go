package telemetry

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/organisms/neural"
)

var hofShape = neural.Shape{Inputs: 8, Hidden: 6, Outputs: 4}

func constWeights(v float64) neural.Weights {
	w := neural.NewWeights(hofShape)
	for _, arr := range w.Arrays() {
		for i := range arr {
			arr[i] = v
		}
	}
	return w
}

func TestHallOfFameRanking(t *testing.T) {
	hof := NewHallOfFame(3, hofShape, rand.New(rand.NewSource(1)))

	// Fitness is best*average: a=2, b=6, c=1, d=4
	hof.Consider("a", 0, constWeights(0.1), 2, 1)
	hof.Consider("b", 1, constWeights(0.2), 3, 2)
	hof.Consider("c", 2, constWeights(0.3), 10, 0.1)
	hof.Consider("d", 3, constWeights(0.4), 2, 2)

	if hof.Size() != 3 {
		t.Fatalf("size = %d, want 3", hof.Size())
	}
	want := []string{"b", "d", "a"}
	for i, e := range hof.Entries() {
		if e.OrganismID != want[i] {
			t.Errorf("entry %d = %s, want %s", i, e.OrganismID, want[i])
		}
	}
	if hof.TopFitness() != 6 {
		t.Errorf("top fitness = %v, want 6", hof.TopFitness())
	}

	if hof.Consider("e", 4, constWeights(0.5), 1, 1) {
		t.Error("entry below a full hall was accepted")
	}
}

func TestHallOfFameCopiesWeights(t *testing.T) {
	hof := NewHallOfFame(2, hofShape, rand.New(rand.NewSource(1)))
	w := constWeights(0.5)
	hof.Consider("a", 0, w, 1, 1)

	w.InputToHidden[0] = -1
	if hof.Entries()[0].Weights.InputToHidden[0] != 0.5 {
		t.Error("hall aliases the caller's weights")
	}

	seeds := hof.Seeds()
	seeds[0].InputToHidden[0] = -1
	if hof.Entries()[0].Weights.InputToHidden[0] != 0.5 {
		t.Error("Seeds aliases the hall's weights")
	}
}

func TestHallOfFameRejectsBadWeights(t *testing.T) {
	hof := NewHallOfFame(2, hofShape, rand.New(rand.NewSource(1)))

	if hof.Consider("short", 0, neural.NewWeights(neural.Shape{Inputs: 2, Hidden: 6, Outputs: 4}), 5, 5) {
		t.Error("mis-shaped weights accepted")
	}
	if hof.Size() != 0 {
		t.Errorf("size = %d, want 0", hof.Size())
	}
}

func TestHallOfFameSample(t *testing.T) {
	hof := NewHallOfFame(5, hofShape, rand.New(rand.NewSource(3)))
	if _, ok := hof.Sample(); ok {
		t.Error("empty hall returned a sample")
	}

	hof.Consider("a", 0, constWeights(0.1), 1, 1)
	hof.Consider("b", 1, constWeights(0.9), 3, 3)

	w, ok := hof.Sample()
	if !ok {
		t.Fatal("Sample returned nothing")
	}
	if err := w.Validate(hofShape); err != nil {
		t.Fatal(err)
	}
}

func TestHallOfFameResumeSeeds(t *testing.T) {
	hof := NewHallOfFame(5, hofShape, rand.New(rand.NewSource(4)))
	if got := hof.ResumeSeeds(4); len(got) != 0 {
		t.Errorf("empty hall gave %d seeds", len(got))
	}

	hof.Consider("low", 0, constWeights(0.1), 1, 1)
	hof.Consider("high", 1, constWeights(0.9), 3, 3)

	seeds := hof.ResumeSeeds(6)
	if len(seeds) != 6 {
		t.Fatalf("len = %d, want 6", len(seeds))
	}
	if seeds[0].InputToHidden[0] != 0.9 || seeds[1].InputToHidden[0] != 0.1 {
		t.Errorf("first seeds not in rank order: %v, %v", seeds[0].InputToHidden[0], seeds[1].InputToHidden[0])
	}
	for i, w := range seeds[2:] {
		if v := w.InputToHidden[0]; v != 0.1 && v != 0.9 {
			t.Errorf("sampled seed %d = %v, not from the hall", i+2, v)
		}
	}

	// Seeds are copies
	seeds[0].InputToHidden[0] = -1
	if hof.Entries()[0].Weights.InputToHidden[0] != 0.9 {
		t.Error("ResumeSeeds exposed hall storage")
	}

	if got := hof.ResumeSeeds(1); len(got) != 1 || got[0].InputToHidden[0] != 0.9 {
		t.Errorf("ResumeSeeds(1) = %d seeds, want the top entry", len(got))
	}
}

func TestHallOfFameJSONRoundTrip(t *testing.T) {
	hof := NewHallOfFame(4, hofShape, rand.New(rand.NewSource(1)))
	hof.Consider("organism_3_gen_1", 1, constWeights(0.25), 4, 2)
	hof.Consider("organism_0_gen_2", 2, constWeights(-0.5), 5, 3)

	data, err := hof.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "hof.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadHallOfFameFromFile(path, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Shape() != hofShape {
		t.Errorf("shape = %+v, want %+v", loaded.Shape(), hofShape)
	}
	if loaded.Size() != 2 {
		t.Fatalf("size = %d, want 2", loaded.Size())
	}
	top := loaded.Entries()[0]
	if top.OrganismID != "organism_0_gen_2" || top.Fitness != 15 || top.Weights.HiddenToOutputBias[0] != -0.5 {
		t.Errorf("top entry = %+v", top)
	}
}

func TestLoadHallOfFameErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadHallOfFameFromFile(filepath.Join(dir, "missing.json"), nil); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHallOfFameFromFile(bad, nil); err == nil {
		t.Error("expected error for malformed JSON")
	}

	noShape := filepath.Join(dir, "noshape.json")
	if err := os.WriteFile(noShape, []byte(`{"entries": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHallOfFameFromFile(noShape, nil); err == nil {
		t.Error("expected error for missing shape")
	}
}
