package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/organisms/components"
)

// NumInputs is the controller input length: two slots of (dx, dy, dz, dist).
const NumInputs = 8

// Nearest scans cands for the closest entity within radius of self.
// Ties keep the first candidate seen, so the result depends only on input order.
func Nearest(self r3.Vec, cands []components.Ref, radius float64) (components.Ref, float64, bool) {
	var best components.Ref
	bestDist := 0.0
	found := false
	for _, c := range cands {
		d := components.Distance(self, c.Pos)
		if d > radius {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, bestDist, found
}

// PerceiveOrganism returns the nearest visible food as target and the
// nearest visible bot as threat. Missing slots are zero Refs.
func PerceiveOrganism(self r3.Vec, food, bots []components.Ref, visibility float64) (target, threat components.Ref) {
	target, _, _ = Nearest(self, food, visibility)
	threat, _, _ = Nearest(self, bots, visibility)
	return target, threat
}

// PerceiveBot returns the nearest visible organism and its distance.
// With requireLive, organisms without energy are invisible.
func PerceiveBot(self r3.Vec, organisms []components.Ref, visibility float64, requireLive bool) (components.Ref, float64) {
	if !requireLive {
		ref, d, _ := Nearest(self, organisms, visibility)
		return ref, d
	}

	var best components.Ref
	bestDist := 0.0
	found := false
	for _, o := range organisms {
		if o.Energy <= 0 {
			continue
		}
		d := components.Distance(self, o.Pos)
		if d > visibility {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = o, d, true
		}
	}
	return best, bestDist
}

// EncodeInputs fills dst with [target dir, target dist, threat dir, threat dist].
// Directions are unit vectors from self; distances are d/visibility clamped to [0,1].
// An absent slot encodes as (0, 0, 0, -1).
// dst is reused when it has room for NumInputs values.
func EncodeInputs(dst []float64, self r3.Vec, target, threat components.Ref, visibility float64) []float64 {
	if cap(dst) < NumInputs {
		dst = make([]float64, NumInputs)
	}
	dst = dst[:NumInputs]
	encodeSlot(dst[0:4], self, target, visibility)
	encodeSlot(dst[4:8], self, threat, visibility)
	return dst
}

func encodeSlot(dst []float64, self r3.Vec, ref components.Ref, visibility float64) {
	if !ref.Valid() {
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, -1
		return
	}
	delta := r3.Sub(ref.Pos, self)
	dir := components.Normalize(delta)
	dist := r3.Norm(delta) / visibility
	dst[0], dst[1], dst[2] = dir.X, dir.Y, dir.Z
	dst[3] = min(max(dist, 0), 1)
}
