package evolution

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/organisms/config"
	"github.com/pthm-cable/organisms/neural"
)

func testParams(t *testing.T) Params {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Population.MaxOrganisms = 6
	cfg.Evolution.Elitism = 2
	cfg.Evolution.ExtinctionThreshold = 0
	return ParamsFromConfig(cfg, testShape)
}

func candidates(rng *rand.Rand, energies ...float64) []Candidate {
	out := make([]Candidate, len(energies))
	for i, e := range energies {
		out[i] = Candidate{
			ID:      fmt.Sprintf("organism_%d_gen_0", i),
			Weights: neural.RandomWeights(rng, testShape, 1, 0.1),
			Energy:  e,
			Fitness: e,
		}
	}
	return out
}

func TestEvolvePopulationSize(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := testParams(t)

	for _, n := range []int{0, 1, 3, 6, 9} {
		energies := make([]float64, n)
		for i := range energies {
			energies[i] = float64(i) + 1
		}
		out := Evolve(rng, candidates(rng, energies...), 0, p)
		if len(out.Offspring) != p.Population {
			t.Errorf("n=%d: %d offspring, want %d", n, len(out.Offspring), p.Population)
		}
		for i, o := range out.Offspring {
			if err := o.Weights.Validate(testShape); err != nil {
				t.Errorf("n=%d offspring %d: %v", n, i, err)
			}
		}
	}
}

func TestEvolveElitesVerbatim(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := testParams(t)
	cands := candidates(rng, 0.5, 3, 1, 2, 0.1, 0.2)

	out := Evolve(rng, cands, 0, p)
	if out.Elites != 2 {
		t.Fatalf("elites = %d, want 2", out.Elites)
	}

	wantIDs := []string{cands[1].ID, cands[3].ID}
	for i, id := range wantIDs {
		o := out.Offspring[i]
		if !o.Elite || o.Ancestor != id {
			t.Fatalf("offspring %d = %+v, want elite copy of %s", i, o, id)
		}
		src := cands[1]
		if i == 1 {
			src = cands[3]
		}
		got, want := o.Weights.Flatten(), src.Weights.Flatten()
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("elite %d weight %d = %v, want %v", i, j, got[j], want[j])
			}
		}
		// Elite weights must be a copy, not an alias
		o.Weights.InputToHidden[0] = 42
		if src.Weights.InputToHidden[0] == 42 {
			t.Fatal("elite weights alias the parent")
		}
	}

	for _, o := range out.Offspring[2:] {
		if o.Elite {
			t.Error("non-elite slot marked elite")
		}
	}
}

func TestEvolveParentsFromTopHalf(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	p := testParams(t)
	cands := candidates(rng, 6, 5, 4, 3, 2, 1)
	top := map[string]bool{cands[0].ID: true, cands[1].ID: true, cands[2].ID: true}

	for trial := 0; trial < 20; trial++ {
		out := Evolve(rng, cands, 0, p)
		for _, o := range out.Offspring[out.Elites:] {
			if o.Random {
				continue
			}
			for _, parent := range o.Parents {
				if !top[parent] {
					t.Fatalf("parent %s is outside the top half", parent)
				}
			}
		}
	}
}

func TestEvolveSharedFitnessKeepsEnergyElites(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	p := testParams(t)
	p.Elitism = 1
	cands := candidates(rng, 5, 2, 1, 0.5, 0.2, 0.1)
	// Fitness sharing shrank the champion's ranking key below the runner-up's
	cands[0].Fitness = 1.25
	cands[1].Fitness = 2
	top := map[string]bool{cands[1].ID: true, cands[0].ID: true, cands[2].ID: true}

	for trial := 0; trial < 20; trial++ {
		out := Evolve(rng, cands, 0, p)
		if out.Elites != 1 || out.Offspring[0].Ancestor != cands[0].ID {
			t.Fatalf("elite ancestor = %q, want highest-energy %q", out.Offspring[0].Ancestor, cands[0].ID)
		}
		for _, o := range out.Offspring[out.Elites:] {
			if o.Random {
				continue
			}
			if o.Parents[0] == cands[0].ID && o.Parents[1] == cands[1].ID {
				t.Fatalf("parents ordered by energy, want fitter-by-fitness first: %v", o.Parents)
			}
			for _, parent := range o.Parents {
				if !top[parent] {
					t.Fatalf("parent %s is outside the top half by fitness", parent)
				}
			}
		}
	}
}

func TestEvolveElitePoolPolicy(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	p := testParams(t)
	p.ParentPool = config.PoolElite
	cands := candidates(rng, 6, 5, 4, 3, 2, 1)

	out := Evolve(rng, cands, 0, p)
	for _, o := range out.Offspring[out.Elites:] {
		for _, parent := range o.Parents {
			if parent != cands[0].ID && parent != cands[1].ID {
				t.Fatalf("parent %s is not an elite", parent)
			}
		}
	}
}

func TestEvolveNoElitesEmptyPoolReseeds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	p := testParams(t)
	p.Elitism = 0
	p.ParentPool = config.PoolElite

	out := Evolve(rng, candidates(rng, 1, 2, 3), 0, p)
	if out.Random != p.Population {
		t.Errorf("random = %d, want %d", out.Random, p.Population)
	}
	if out.Extinction {
		t.Error("empty pool is not an extinction")
	}
}

func TestEvolveEmptyPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	p := testParams(t)

	out := Evolve(rng, nil, 0, p)
	if len(out.Offspring) != p.Population || out.Random != p.Population {
		t.Errorf("empty population: %d offspring, %d random", len(out.Offspring), out.Random)
	}
}

func TestEvolveMassExtinction(t *testing.T) {
	rng := rand.New(rand.NewSource(13))

	tests := []struct {
		name      string
		mode      string
		threshold float64
		prev      float64
		energies  []float64
		want      bool
	}{
		{"absolute below", config.ExtinctionAbsolute, 0.05, 0, []float64{0.01, 0.02}, true},
		{"absolute above", config.ExtinctionAbsolute, 0.05, 0, []float64{0.5, 0.02}, false},
		{"relative drop", config.ExtinctionRelative, 0.5, 2, []float64{0.5, 0.5}, true},
		{"relative steady", config.ExtinctionRelative, 0.5, 2, []float64{1.5, 1.5}, false},
		{"relative first generation", config.ExtinctionRelative, 0.5, 0, []float64{0.1}, false},
		{"disabled", config.ExtinctionAbsolute, 0, 0, []float64{0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams(t)
			p.ExtinctionMode = tt.mode
			p.ExtinctionThreshold = tt.threshold

			out := Evolve(rng, candidates(rng, tt.energies...), tt.prev, p)
			if out.Extinction != tt.want {
				t.Fatalf("extinction = %v, want %v", out.Extinction, tt.want)
			}
			if tt.want && (out.Elites != 0 || out.Random != p.Population) {
				t.Errorf("extinction kept %d elites, %d random", out.Elites, out.Random)
			}
			if len(out.Offspring) != p.Population {
				t.Errorf("%d offspring, want %d", len(out.Offspring), p.Population)
			}
		})
	}
}

func TestEvolveWeightedSelection(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Evolution.Selection = config.SelectWeighted
	p := ParamsFromConfig(cfg, testShape)

	if p.Selector.Name() != "weighted" {
		t.Errorf("selector = %s, want weighted", p.Selector.Name())
	}
	if p.ParentPool != config.PoolElite {
		t.Errorf("weighted selection pool = %s, want elite", p.ParentPool)
	}
}

func TestEvolveAverage(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	p := testParams(t)
	out := Evolve(rng, candidates(rng, 1, 2, 3), 0, p)
	if math.Abs(out.Average-2) > 1e-12 {
		t.Errorf("average = %v, want 2", out.Average)
	}
}

func TestScore(t *testing.T) {
	s := Score(3, []float64{4, 2, 0}, nil)
	if s.Generation != 3 || s.BestEnergy != 4 || s.AverageEnergy != 2 || s.AverageBotEnergy != 0 {
		t.Errorf("Score = %+v", s)
	}
	s = Score(0, nil, []float64{1, 2})
	if s.BestEnergy != 0 || s.AverageBotEnergy != 1.5 {
		t.Errorf("Score = %+v", s)
	}
}
