package ai

import (
	"math"
	"math/rand/v2"
	"time"

	"battlecar/world"
)

// Defender moves toward whatever target its FSM picks, easing off the
// obstacle it is using for cover.
type Defender struct {
	Body     world.Body
	MaxSpeed float64
	FSM      *FSM

	threat     *world.Body
	moveTarget *world.Vec
}

func NewDefender(x, y float64) *Defender {
	return &Defender{
		Body:     world.NewBody(x, y),
		MaxSpeed: DefenderMaxSpeed,
		FSM:      NewFSM(),
	}
}

func (d *Defender) SetThreat(t *world.Body) { d.threat = t }

// SetPatrolPoints also starts patrolling when the FSM is idle.
func (d *Defender) SetPatrolPoints(points []world.Vec, now time.Duration) {
	d.FSM.SetPatrolPoints(points)
	if d.FSM.State() == StateIdle && len(points) > 0 {
		d.FSM.ChangeState(StatePatrol, now)
	}
}

func (d *Defender) MoveTarget() (world.Vec, bool) {
	if d.moveTarget == nil {
		return world.Vec{}, false
	}
	return *d.moveTarget, true
}

func (d *Defender) Update(obstacles []world.Obstacle, arena world.Arena, now time.Duration) {
	if d.threat == nil {
		d.Body.Vel = world.Vec{}
		return
	}
	d.Body.Vel = d.Velocity(d.Body.Center(), obstacles, arena, now)
	d.Body.MoveBounce(obstacles, arena)
}

// Velocity runs the FSM for a car centered at pos and returns the velocity
// that moves it toward the FSM target.
func (d *Defender) Velocity(pos world.Vec, obstacles []world.Obstacle, arena world.Arena, now time.Duration) world.Vec {
	if d.threat == nil {
		return world.Vec{}
	}
	to := d.FSM.Update(Situation{
		Self:      pos,
		Threat:    d.threat.Center(),
		Obstacles: obstacles,
		Arena:     arena,
		Margin:    d.Body.W,
		Now:       now,
	})
	d.moveTarget = &to

	toTarget := to.Sub(pos)
	dist := toTarget.Len()
	heading := toTarget.Normalize()

	speed := d.MaxSpeed
	switch {
	case d.FSM.State() == StateHide && dist < d.Body.W*2:
		speed = math.Max(1.0, d.MaxSpeed*(dist/(d.Body.W*4)))
	case dist < DefenderStopDistance:
		speed = 0
	}

	push, active := avoidance(pos, obstacles, d.Body.W*DefenderAvoidRadiusK, 1.0, d.avoidWeight(obstacles))
	if active && push.Len() > 0.01 {
		p := push.Normalize()
		heading = blend(heading, p, oppositionWeight(heading.Dot(p)))
	}
	return heading.Scale(speed)
}

// avoidWeight softens the push from the obstacle the defender is hiding
// behind so it can tuck in close.
func (d *Defender) avoidWeight(obstacles []world.Obstacle) func(world.Obstacle) float64 {
	cover, hasCover := d.coverObstacle(obstacles)
	return func(o world.Obstacle) float64 {
		if hasCover && o == cover {
			return CoverAvoidModifier
		}
		return 1.0
	}
}

// oppositionWeight is the share of the avoidance push in the blended
// heading. The more the push opposes the heading, the less it counts.
func oppositionWeight(dot float64) float64 {
	switch {
	case dot < -0.7:
		return 0.2
	case dot < -0.2:
		return 0.4
	}
	return 0.8
}

// coverObstacle is the obstacle closest to the hide target within its
// buffer zone, only while hiding.
func (d *Defender) coverObstacle(obstacles []world.Obstacle) (world.Obstacle, bool) {
	if d.FSM.State() != StateHide {
		return world.Obstacle{}, false
	}
	spot, ok := d.FSM.HideTarget()
	if !ok {
		return world.Obstacle{}, false
	}
	var best world.Obstacle
	bestDist, found := math.Inf(1), false
	for _, o := range obstacles {
		dist := world.Distance(spot, o.Center())
		if dist < o.Size()/2+BufferBehindObstacle*1.2 && dist < bestDist {
			best, bestDist, found = o, dist, true
		}
	}
	return best, found
}

// GeneratePatrolPoints scatters n points on a jittered ellipse inside the
// arena margin.
func GeneratePatrolPoints(rng *rand.Rand, a world.Arena, n int, margin float64) []world.Vec {
	c := a.Center()
	rx := math.Max(10, (a.Width-2*margin)/2)
	ry := math.Max(10, (a.Height-2*margin)/2)
	points := make([]world.Vec, 0, n)
	for range n {
		angle := rng.Float64() * 2 * math.Pi
		x := c.X + rx*(0.7+0.3*rng.Float64())*math.Cos(angle)
		y := c.Y + ry*(0.7+0.3*rng.Float64())*math.Sin(angle)
		points = append(points, world.Vec{
			X: world.Clamp(x, margin, a.Width-margin),
			Y: world.Clamp(y, margin, a.Height-margin),
		})
	}
	return points
}
