package game

import (
	"math"

	"battlecar/ai"
	"battlecar/world"
)

// Step advances a playing match by one tick. Finished matches are left
// untouched.
func Step(m *Match, in Input) {
	if m.Phase != PhasePlaying {
		return
	}
	m.Tick++
	now := m.Elapsed()

	m.Player.Vel = inputVelocity(in)
	m.Player.MoveResolved(m.Obstacles, m.Arena)

	switch {
	case m.Attacker != nil:
		m.Attacker.Update(m.Obstacles, m.Arena)
	case m.Defender != nil:
		m.Defender.Update(m.Obstacles, m.Arena, now)
	}

	hider, chaser := m.Hider(), m.Chaser()
	m.Predictor.Observe(ai.Observation{Pos: hider.Center(), Vel: hider.Vel, At: now})
	m.Predicted = nil
	if hider.Vel != (world.Vec{}) {
		m.Predicted = ai.PredictPath(hider.Center(), hider.Vel, ai.PredictionSteps, ai.PredictionInterval, m.TickHz)
	}

	maxLaser := m.Arena.Diagonal() * LaserLengthFactor
	m.Laser = world.TraceLaser(chaser.Center(), hider.Center(), maxLaser, chaser.W*LaserOffsetFactor, m.Obstacles)

	switch m.Mode {
	case ModeHider:
		inSight := !world.LineOfSightBlocked(chaser.Center(), hider.Center(), m.Obstacles) &&
			world.Distance(chaser.Center(), hider.Center()) <= maxLaser
		switch {
		case !inSight:
			m.losSince = nil
		case m.losSince == nil:
			m.losSince = &now
		case now-*m.losSince >= LOSWinDuration:
			m.finish(RoleChaser)
			return
		}
	case ModeChaser:
		catch := (chaser.W + hider.W) / 2 * CatchFactor
		if world.Distance(chaser.Center(), hider.Center()) <= catch {
			m.finish(RoleChaser)
			return
		}
	}

	if m.MaxTicks > 0 && m.Tick >= m.MaxTicks {
		m.finish(RoleHider)
	}
}

func (m *Match) finish(winner Role) {
	m.Phase = PhaseGameOver
	m.Winner = winner
}

// inputVelocity maps the stick to a heading with speed proportional to its
// deflection, capped at PlayerSpeed; a stick inside the deadzone stops the car.
func inputVelocity(in Input) world.Vec {
	ax := world.Clamp(in.Ax, -1, 1)
	ay := world.Clamp(in.Ay, -1, 1)
	mag := math.Hypot(ax, ay)
	if math.IsNaN(mag) || mag <= Deadzone {
		return world.Vec{}
	}
	return world.Vec{X: ax, Y: ay}.Normalize().Scale(PlayerSpeed * min(1, mag))
}
