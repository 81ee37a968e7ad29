package game

import (
	"context"
	"fmt"

	"battlecar/ai"
	"battlecar/world"
)

// Pilot produces player input each tick, for matches without a human.
type Pilot interface {
	Drive(m *Match) Input
}

// NewAutopilot returns the AI that plays the player's side of m: the
// defender state machine in hider mode, the A* chaser in chaser mode.
func NewAutopilot(m *Match) Pilot {
	if m.Mode == ModeHider {
		d := ai.NewDefender(m.Player.Pos.X, m.Player.Pos.Y)
		d.SetThreat(&m.Attacker.Body)
		return &hiderPilot{shadow: d}
	}
	a := ai.NewAttacker(m.Player.Pos.X, m.Player.Pos.Y, m.Pathfinder, m.rng)
	a.SetTarget(&m.Defender.Body)
	return &chaserPilot{shadow: a}
}

type hiderPilot struct {
	shadow *ai.Defender
}

func (p *hiderPilot) Drive(m *Match) Input {
	v := p.shadow.Velocity(m.Player.Center(), m.Obstacles, m.Arena, m.Elapsed())
	return stick(v)
}

type chaserPilot struct {
	shadow *ai.Attacker
}

func (p *chaserPilot) Drive(m *Match) Input {
	return stick(p.shadow.Heading(m.Player.Center(), m.Obstacles))
}

// stick turns an AI velocity into the input that reproduces it, so the
// autopilot keeps the speed its steering chose.
func stick(v world.Vec) Input {
	u := v.Scale(1 / PlayerSpeed)
	if l := u.Len(); l > 1 {
		u = u.Scale(1 / l)
	}
	return Input{Ax: u.X, Ay: u.Y}
}

// Play drives m with p until the match ends or ctx is cancelled.
func Play(ctx context.Context, m *Match, p Pilot) (Result, error) {
	for m.Phase == PhasePlaying {
		if m.Tick%m.TickHz == 0 {
			if err := ctx.Err(); err != nil {
				return m.Result(), fmt.Errorf("match interrupted at tick %d: %w", m.Tick, err)
			}
		}
		Step(m, p.Drive(m))
	}
	return m.Result(), nil
}
