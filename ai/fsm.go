package ai

import (
	"math"
	"sort"
	"time"

	"battlecar/world"
)

type DefenseState uint8

const (
	StateIdle DefenseState = iota
	StateEvade
	StatePatrol
	StateHide
	StateReturn
)

var stateNames = [...]string{"IDLE", "EVADE", "PATROL", "HIDE", "RETURN_TO_SAFE_AREA"}

func (s DefenseState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// Situation is what the FSM sees on a tick. Now is simulation time.
type Situation struct {
	Self      world.Vec
	Threat    world.Vec
	Obstacles []world.Obstacle
	Arena     world.Arena
	Margin    float64 // clamp margin for evade targets, the car width
	Now       time.Duration
}

// Transition is reported to the optional OnTransition hook.
type Transition struct {
	From, To DefenseState
	At       time.Duration
}

// FSM picks a movement target for a car that hides from a threat.
type FSM struct {
	state       DefenseState
	enteredAt   time.Duration
	patrol      []world.Vec
	patrolIdx   int
	lastTarget  *world.Vec
	hideTarget  *world.Vec
	minStateDur time.Duration

	OnTransition func(Transition)
}

func NewFSM() *FSM {
	return &FSM{state: StateIdle, minStateDur: MinStateTime}
}

func (f *FSM) State() DefenseState { return f.state }

// HideTarget returns the spot currently sought in HIDE, if any.
func (f *FSM) HideTarget() (world.Vec, bool) {
	if f.hideTarget == nil {
		return world.Vec{}, false
	}
	return *f.hideTarget, true
}

func (f *FSM) SetPatrolPoints(points []world.Vec) {
	f.patrol = points
	f.patrolIdx = 0
}

func (f *FSM) PatrolPoints() []world.Vec { return f.patrol }

func (f *FSM) restState() DefenseState {
	if len(f.patrol) > 0 {
		return StatePatrol
	}
	return StateIdle
}

// ChangeState switches state, restarting the state timer and dropping the
// hide target. Same-state calls are no-ops.
func (f *FSM) ChangeState(next DefenseState, now time.Duration) {
	if f.state == next {
		return
	}
	prev := f.state
	f.state = next
	f.enteredAt = now
	f.hideTarget = nil
	if f.OnTransition != nil {
		f.OnTransition(Transition{From: prev, To: next, At: now})
	}
}

func safe(self, threat world.Vec, obstacles []world.Obstacle) bool {
	return world.LineOfSightBlocked(threat, self, obstacles)
}

// Update evaluates transitions, runs the current state's handler and
// returns the position to move toward.
func (f *FSM) Update(s Situation) world.Vec {
	dist := world.Distance(s.Threat, s.Self)
	isSafe := safe(s.Self, s.Threat, s.Obstacles)
	next := f.state

	if dist < VeryCloseDistance {
		next = StateEvade
	} else if s.Now-f.enteredAt >= f.minStateDur {
		inRest := f.state == StatePatrol || f.state == StateIdle
		switch {
		case !isSafe && dist < HideTriggerDistance:
			next = StateHide
		case isSafe && f.state == StateHide:
			if dist > HideTriggerDistance*1.2 {
				next = f.restState()
			}
		case f.state == StateHide && !isSafe:
			next = StateHide
		case dist > HideTriggerDistance*1.1:
			if !inRest {
				next = f.restState()
			}
		case inRest && dist < HideTriggerDistance:
			next = StateHide
		}
	}
	f.ChangeState(next, s.Now)

	var target world.Vec
	switch f.state {
	case StateEvade:
		target = f.evade(s)
	case StatePatrol:
		target = f.patrolTarget(s)
	case StateHide:
		target = f.hide(s, true)
	case StateReturn:
		target = f.returnToCenter(s)
	default:
		target = s.Self
	}

	if target.IsNaN() {
		if f.lastTarget != nil {
			return *f.lastTarget
		}
		return s.Self
	}
	f.lastTarget = &target
	return target
}

func (f *FSM) patrolTarget(s Situation) world.Vec {
	if len(f.patrol) == 0 {
		f.ChangeState(StateIdle, s.Now)
		return s.Self
	}
	target := f.patrol[f.patrolIdx]
	if world.Distance(s.Self, target) < PatrolReachDistance {
		f.patrolIdx = (f.patrolIdx + 1) % len(f.patrol)
		target = f.patrol[f.patrolIdx]
	}
	return target
}

func (f *FSM) evade(s Situation) world.Vec {
	away := s.Self.Sub(s.Threat).Normalize()
	t := s.Self.Add(away.Scale(SafeDistance * 1.1))
	return world.Vec{
		X: world.Clamp(t.X, s.Margin, s.Arena.Width-s.Margin),
		Y: world.Clamp(t.Y, s.Margin, s.Arena.Height-s.Margin),
	}
}

func (f *FSM) returnToCenter(s Situation) world.Vec {
	c := s.Arena.Center()
	if world.Distance(s.Self, c) < ReturnReachDistance {
		f.ChangeState(f.restState(), s.Now)
	}
	return c
}

// hide keeps a safe hide target, holding position once there, and searches
// for a new one when it is lost. With no spot at all it evades.
func (f *FSM) hide(s Situation, retry bool) world.Vec {
	if f.hideTarget != nil && world.Distance(s.Self, *f.hideTarget) < HideReachDistance {
		if safe(s.Self, s.Threat, s.Obstacles) {
			return s.Self
		}
		f.hideTarget = nil
	}

	if f.hideTarget == nil {
		spot, ok := FindHidingSpot(s)
		if !ok {
			return f.evade(s)
		}
		f.hideTarget = &spot
		return spot
	}

	if safe(*f.hideTarget, s.Threat, s.Obstacles) {
		return *f.hideTarget
	}
	f.hideTarget = nil
	if !retry {
		return f.evade(s)
	}
	return f.hide(s, false)
}

type hideCandidate struct {
	obstacle world.Obstacle
	score    float64
}

// FindHidingSpot scores obstacles near the defender by distance and by how
// far they sit off the defender-to-threat line, then returns the closest
// spot behind one of the best MaxHideSearchObstacles that blocks sight.
func FindHidingSpot(s Situation) (world.Vec, bool) {
	distThreatSelf := world.Distance(s.Threat, s.Self)
	var cands []hideCandidate

	for _, o := range s.Obstacles {
		c := o.Center()
		distSelfObs := world.Distance(s.Self, c)
		if distSelfObs > HideTriggerDistance*1.5 {
			continue
		}
		distThreatObs := world.Distance(s.Threat, c)
		if !(distThreatObs < distThreatSelf*1.2 || distSelfObs < distThreatSelf) {
			continue
		}

		toThreat := s.Threat.Sub(s.Self)
		toObs := c.Sub(s.Self)
		angle := 180.0
		if toThreat.Len() > 0.1 && toObs.Len() > 0.1 {
			cos := world.Clamp(toThreat.Dot(toObs)/(toThreat.Len()*toObs.Len()), -1, 1)
			angle = math.Acos(cos) * 180 / math.Pi
		}
		cands = append(cands, hideCandidate{
			obstacle: o,
			score:    distSelfObs*ObstacleWeightDist + angle*ObstacleWeightAngle,
		})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score < cands[j].score })
	if len(cands) > MaxHideSearchObstacles {
		cands = cands[:MaxHideSearchObstacles]
	}

	best, bestDist, found := world.Vec{}, math.Inf(1), false
	for _, cand := range cands {
		c := cand.obstacle.Center()
		dir := c.Sub(s.Threat).Normalize()
		spot := c.Add(dir.Scale(cand.obstacle.Size()/2 + BufferBehindObstacle))

		if !(spot.X > HideEdgeMargin && spot.X < s.Arena.Width-HideEdgeMargin &&
			spot.Y > HideEdgeMargin && spot.Y < s.Arena.Height-HideEdgeMargin) {
			continue
		}
		if !safe(spot, s.Threat, s.Obstacles) {
			continue
		}
		if d := world.Distance(s.Self, spot); d < bestDist {
			best, bestDist, found = spot, d, true
		}
	}
	return best, found
}
