package components

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Position represents an entity's world position.
type Position struct {
	r3.Vec
}

// Velocity represents an entity's displacement per tick.
type Velocity struct {
	r3.Vec
}

// Rotation returns the heading in the xy plane, for display.
func (v Velocity) Rotation() float64 {
	return math.Atan2(v.Y, v.X)
}
