package ai

import (
	"math/rand/v2"

	"battlecar/world"
)

// Attacker chases a target body along A* paths, refreshed every
// PathUpdateTicks, with local obstacle avoidance.
type Attacker struct {
	Body     world.Body
	MaxSpeed float64

	pf       *Pathfinder
	target   *world.Body
	path     []world.Vec
	waypoint *world.Vec
	counter  int
}

func NewAttacker(x, y float64, pf *Pathfinder, rng *rand.Rand) *Attacker {
	a := &Attacker{
		Body:     world.NewBody(x, y),
		MaxSpeed: AttackerMaxSpeed,
		pf:       pf,
	}
	if rng != nil {
		a.counter = rng.IntN(PathUpdateTicks/2 + 1)
	}
	return a
}

// SetTarget drops the current path and forces a repath on the next update.
func (a *Attacker) SetTarget(t *world.Body) {
	a.target = t
	a.path = nil
	a.waypoint = nil
	a.counter = PathUpdateTicks
}

func (a *Attacker) Path() []world.Vec { return a.path }

func (a *Attacker) Waypoint() (world.Vec, bool) {
	if a.waypoint == nil {
		return world.Vec{}, false
	}
	return *a.waypoint, true
}

func (a *Attacker) Update(obstacles []world.Obstacle, arena world.Arena) {
	if a.target == nil {
		a.Body.Vel = world.Vec{}
		return
	}
	a.Body.Vel = a.Heading(a.Body.Center(), obstacles).Scale(a.MaxSpeed)
	a.Body.MoveBounce(obstacles, arena)
}

// Heading advances the path plan from pos and returns the unit direction to
// drive in. Without a target it returns the zero vector.
func (a *Attacker) Heading(pos world.Vec, obstacles []world.Obstacle) world.Vec {
	if a.target == nil {
		return world.Vec{}
	}
	goal := a.target.Center()

	a.counter++
	if len(a.path) == 0 || a.counter >= PathUpdateTicks {
		a.counter = 0
		if p := a.pf.FindPath(pos, goal); len(p) > 0 {
			a.path = p
			a.waypoint = &a.path[0]
		} else {
			a.path = nil
			a.waypoint = &goal
		}
	}

	if len(a.path) > 0 && a.waypoint != nil {
		if world.Distance(pos, *a.waypoint) < WaypointReachAttack {
			a.path = a.path[1:]
			if len(a.path) > 0 {
				a.waypoint = &a.path[0]
			} else {
				a.path = nil
				a.waypoint = &goal
			}
		}
	} else if len(a.path) == 0 {
		a.waypoint = &goal
	}

	heading := a.waypoint.Sub(pos).Normalize()
	push, active := avoidance(pos, obstacles, a.Body.W*AttackerAvoidRadiusK, AttackerAvoidBoost, nil)
	if active && push.Len() > 0.01 {
		heading = blend(heading, push.Normalize(), AttackerAvoidWeight)
	}
	return heading
}
