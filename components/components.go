// Package components defines ECS components and vector helpers for the simulation.
package components

import "gonum.org/v1/gonum/spatial/r3"

// Kind tags the concrete entity type behind a Ref.
type Kind uint8

const (
	KindFood Kind = iota
	KindBot
	KindOrganism
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindFood:
		return "food"
	case KindBot:
		return "bot"
	case KindOrganism:
		return "organism"
	}
	return "unknown"
}

// Ref is a perception-time view of another entity: enough to steer toward
// or away from it without holding the entity itself.
// The zero Ref means "nothing perceived".
type Ref struct {
	Kind   Kind
	ID     string
	Pos    r3.Vec
	Energy float64
}

// Valid reports whether the reference points at an entity.
func (r Ref) Valid() bool {
	return r.ID != ""
}
