package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/components"
)

// Decision is a decoded controller output.
type Decision struct {
	Accel    r3.Vec  // Components in [-1, 1]
	Throttle float64 // In [0, 1]
}

// InterpretOutputs decodes controller outputs.
// With four or more outputs the last one is a throttle remapped from [-1,1] to [0,1]
// and the first min(3, n-1) are the acceleration direction.
// With two or three outputs all of them are direction and throttle is 1.
func InterpretOutputs(out []float64) Decision {
	d := Decision{Throttle: 1}
	dirs := out
	if len(out) >= 4 {
		d.Throttle = (out[len(out)-1] + 1) / 2
		dirs = out[:min(3, len(out)-1)]
	}

	var a [3]float64
	copy(a[:], dirs)
	d.Accel = r3.Vec{X: a[0], Y: a[1], Z: a[2]}
	return d
}

// PursuitSteering returns the unit steering direction that turns vel toward
// the desired velocity unit(target-pos)*maxSpeed. Returns zero when already on course.
func PursuitSteering(pos, vel, target r3.Vec, maxSpeed float64) r3.Vec {
	desired := r3.Scale(maxSpeed, components.Normalize(r3.Sub(target, pos)))
	return components.Normalize(r3.Sub(desired, vel))
}

// Integrate advances one agent by one tick:
//
//	vel = clamp(vel + accel*dt*maxAccel*throttle, ±maxSpeed) componentwise
//	vel *= friction^dt
//	pos += vel
//
// Planar arenas drop the z acceleration and pin z to the plane.
func Integrate(pos, vel r3.Vec, d Decision, mob components.Mobility, p Params) (r3.Vec, r3.Vec) {
	start := pos
	accel := d.Accel
	if p.Planar {
		accel.Z = 0
	}

	vel = r3.Add(vel, r3.Scale(p.DT*mob.MaxAccel*d.Throttle, accel))
	vel = components.ClampComponents(vel, mob.MaxSpeed)
	vel = r3.Scale(math.Pow(p.Friction, p.DT), vel)

	pos = r3.Add(pos, vel)
	if p.Planar {
		pos.Z = p.PlaneZ
		vel.Z = 0
	}
	if !components.IsFinite(pos) || !components.IsFinite(vel) {
		// A non-finite controller output stalls the agent in place
		return start, r3.Vec{}
	}
	return pos, vel
}
