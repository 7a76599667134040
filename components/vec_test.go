package components

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/config"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		v    r3.Vec
	}{
		{"x axis", r3.Vec{X: 3}},
		{"diagonal", r3.Vec{X: 1, Y: 1, Z: 1}},
		{"negative", r3.Vec{X: -2, Y: 5, Z: -0.5}},
		{"tiny", r3.Vec{X: 1e-200, Y: 1e-200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := Normalize(tt.v)
			if n := r3.Norm(u); math.Abs(n-1) > 1e-9 {
				t.Errorf("|Normalize(%v)| = %v, want 1", tt.v, n)
			}
			// Same direction: positive dot product with the original
			if r3.Dot(u, tt.v) <= 0 {
				t.Errorf("Normalize(%v) = %v points the wrong way", tt.v, u)
			}
		})
	}
}

func TestNormalizeZero(t *testing.T) {
	u := Normalize(r3.Vec{})
	if !IsFinite(u) {
		t.Fatalf("Normalize(zero) = %v, want finite", u)
	}
	if u != (r3.Vec{}) {
		t.Errorf("Normalize(zero) = %v, want zero vector", u)
	}
}

func TestDiv(t *testing.T) {
	if got := Div(r3.Vec{X: 4, Y: -2}, 2); got != (r3.Vec{X: 2, Y: -1}) {
		t.Errorf("Div = %v", got)
	}
	if got := Div(r3.Vec{X: 4}, 0); got != (r3.Vec{}) {
		t.Errorf("Div by zero = %v, want zero vector", got)
	}
}

func TestDistance(t *testing.T) {
	d := Distance(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 4, Y: 6, Z: 3})
	if math.Abs(d-5) > 1e-12 {
		t.Errorf("Distance = %v, want 5", d)
	}
}

func TestClampComponents(t *testing.T) {
	got := ClampComponents(r3.Vec{X: 2, Y: -3, Z: 0.5}, 1)
	want := r3.Vec{X: 1, Y: -1, Z: 0.5}
	if got != want {
		t.Errorf("ClampComponents = %v, want %v", got, want)
	}
}

func TestWithinDistance(t *testing.T) {
	points := []r3.Vec{{X: 0.5}, {X: 2}, {Y: -0.9}, {X: 1}}
	got := WithinDistance(points, r3.Vec{}, 1)
	want := []int{0, 2}
	if len(got) != len(want) {
		t.Fatalf("WithinDistance = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("WithinDistance[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestVelocityRotation(t *testing.T) {
	v := Velocity{Vec: r3.Vec{Y: 1}}
	if math.Abs(v.Rotation()-math.Pi/2) > 1e-12 {
		t.Errorf("Rotation = %v, want pi/2", v.Rotation())
	}
}

func TestArenaRandomPoint(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	a := NewArena(cfg.World)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		p := a.RandomPoint(rng)
		if p.X < -1.5 || p.X > 1.5 || p.Y < -1.5 || p.Y > 1.5 {
			t.Fatalf("point %v outside spawn area", p)
		}
		if p.Z != 0 {
			t.Fatalf("planar arena produced z = %v", p.Z)
		}
		if !a.Contains(p) {
			t.Fatalf("arena does not contain spawn point %v", p)
		}
	}
	if !a.Planar() {
		t.Error("default arena should be planar")
	}
	if a.Center() != (r3.Vec{}) {
		t.Errorf("Center = %v, want origin", a.Center())
	}
}

func TestRefValid(t *testing.T) {
	if (Ref{}).Valid() {
		t.Error("zero Ref should be invalid")
	}
	if !(Ref{Kind: KindFood, ID: "f"}).Valid() {
		t.Error("Ref with ID should be valid")
	}
	if KindBot.String() != "bot" {
		t.Errorf("KindBot.String() = %q", KindBot.String())
	}
}
