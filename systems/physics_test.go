package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/components"
)

func TestInterpretOutputs(t *testing.T) {
	tests := []struct {
		name     string
		out      []float64
		accel    r3.Vec
		throttle float64
	}{
		{"four outputs", []float64{0.1, -0.2, 0.3, 0}, r3.Vec{X: 0.1, Y: -0.2, Z: 0.3}, 0.5},
		{"full throttle", []float64{1, 1, 1, 1}, r3.Vec{X: 1, Y: 1, Z: 1}, 1},
		{"zero throttle", []float64{1, 1, 1, -1}, r3.Vec{X: 1, Y: 1, Z: 1}, 0},
		{"two outputs", []float64{0.4, -0.4}, r3.Vec{X: 0.4, Y: -0.4}, 1},
		{"three outputs", []float64{0.4, -0.4, 0.2}, r3.Vec{X: 0.4, Y: -0.4, Z: 0.2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := InterpretOutputs(tt.out)
			if d.Accel != tt.accel || math.Abs(d.Throttle-tt.throttle) > 1e-12 {
				t.Errorf("InterpretOutputs(%v) = %+v, want accel %v throttle %v", tt.out, d, tt.accel, tt.throttle)
			}
		})
	}
}

func TestIntegrate(t *testing.T) {
	p := testParams(t)
	p.Planar = false
	mob := components.Mobility{MaxSpeed: 1, MaxAccel: 2}

	pos, vel := Integrate(r3.Vec{}, r3.Vec{X: 0.5}, Decision{Accel: r3.Vec{X: 1, Y: -1, Z: 0.5}, Throttle: 1}, mob, p)

	damp := math.Pow(p.Friction, p.DT)
	wantVel := r3.Vec{
		X: (0.5 + 1*p.DT*2) * damp,
		Y: (-1 * p.DT * 2) * damp,
		Z: (0.5 * p.DT * 2) * damp,
	}
	if components.Distance(vel, wantVel) > 1e-12 {
		t.Errorf("vel = %v, want %v", vel, wantVel)
	}
	if components.Distance(pos, wantVel) > 1e-12 {
		t.Errorf("pos = %v, want %v", pos, wantVel)
	}
}

func TestIntegrateClampsSpeed(t *testing.T) {
	p := testParams(t)
	p.Friction = 1
	mob := components.Mobility{MaxSpeed: 0.1, MaxAccel: 100}

	_, vel := Integrate(r3.Vec{}, r3.Vec{X: 5, Y: -5}, Decision{Accel: r3.Vec{X: 1, Y: -1}, Throttle: 1}, mob, p)
	if vel.X != 0.1 || vel.Y != -0.1 {
		t.Errorf("vel = %v, want componentwise clamp to 0.1", vel)
	}
}

func TestIntegratePlanar(t *testing.T) {
	p := testParams(t)
	if !p.Planar {
		t.Fatal("default arena should be planar")
	}
	mob := components.Mobility{MaxSpeed: 1, MaxAccel: 1}

	pos, vel := Integrate(r3.Vec{}, r3.Vec{}, Decision{Accel: r3.Vec{Z: 1}, Throttle: 1}, mob, p)
	if pos.Z != 0 || vel.Z != 0 {
		t.Errorf("planar integrate left z: pos %v vel %v", pos, vel)
	}
}

func TestIntegrateNonFinite(t *testing.T) {
	p := testParams(t)
	mob := components.Mobility{MaxSpeed: math.Inf(1), MaxAccel: 1}
	start := r3.Vec{X: 1}

	pos, vel := Integrate(start, r3.Vec{}, Decision{Accel: r3.Vec{X: math.NaN()}, Throttle: 1}, mob, p)
	if pos != start || vel != (r3.Vec{}) {
		t.Errorf("non-finite step = %v %v, want agent stalled at %v", pos, vel, start)
	}
}

func TestPursuitSteering(t *testing.T) {
	// At rest, steering points straight at the target
	s := PursuitSteering(r3.Vec{}, r3.Vec{}, r3.Vec{X: 2}, 1)
	if components.Distance(s, r3.Vec{X: 1}) > 1e-12 {
		t.Errorf("steering = %v, want (1,0,0)", s)
	}

	// Already at desired velocity: no steering
	s = PursuitSteering(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 2}, 1)
	if s != (r3.Vec{}) {
		t.Errorf("steering = %v, want zero", s)
	}

	// Moving away: steering opposes current velocity
	s = PursuitSteering(r3.Vec{}, r3.Vec{X: -1}, r3.Vec{X: 2}, 1)
	if s.X <= 0 {
		t.Errorf("steering = %v, want +x", s)
	}
}
