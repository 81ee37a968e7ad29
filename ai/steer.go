package ai

import (
	"math"

	"battlecar/world"
)

// avoidance sums unit push-away vectors from obstacle centers within radius.
// weight lets a caller soften individual obstacles; it may be nil.
func avoidance(from world.Vec, obstacles []world.Obstacle, radius, boost float64, weight func(world.Obstacle) float64) (world.Vec, bool) {
	var sum world.Vec
	active := false
	for _, o := range obstacles {
		d := world.Distance(from, o.Center())
		if d >= radius {
			continue
		}
		mod := 1.0
		if weight != nil {
			mod = weight(o)
		}
		strength := math.Max(0, (1-d/radius)*boost*mod)
		sum = sum.Add(from.Sub(o.Center()).Normalize().Scale(strength))
		if strength > 0.01 {
			active = true
		}
	}
	return sum, active
}

// blend mixes the desired heading with the avoidance push and renormalizes.
func blend(heading, push world.Vec, w float64) world.Vec {
	return heading.Scale(1 - w).Add(push.Scale(w)).Normalize()
}
