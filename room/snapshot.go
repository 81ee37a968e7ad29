package room

import (
	"battlecar/ai"
	"battlecar/game"
	"battlecar/protocol"
	"battlecar/world"
)

func point(v world.Vec) protocol.Point {
	return protocol.Point{X: v.X, Y: v.Y}
}

func points(vs []world.Vec) []protocol.Point {
	if len(vs) == 0 {
		return nil
	}
	out := make([]protocol.Point, len(vs))
	for i, v := range vs {
		out[i] = point(v)
	}
	return out
}

func car(id string, role game.Role, b *world.Body) protocol.CarSnapshot {
	return protocol.CarSnapshot{
		ID:   id,
		Role: string(role),
		X:    b.Pos.X,
		Y:    b.Pos.Y,
		VX:   b.Vel.X,
		VY:   b.Vel.Y,
		W:    b.W,
		H:    b.H,
	}
}

func (r *Room) buildSnapshot() protocol.State {
	m := r.match
	if m == nil {
		return protocol.State{Tick: 0, Phase: game.PhaseMenu.String(), Cars: []protocol.CarSnapshot{}}
	}
	aiRole := game.RoleChaser
	if m.Mode == game.ModeChaser {
		aiRole = game.RoleHider
	}
	snap := protocol.State{
		Tick:  m.Tick,
		Phase: m.Phase.String(),
		Mode:  string(m.Mode),
		Cars: []protocol.CarSnapshot{
			car("player", m.PlayerRole(), &m.Player),
		},
		Obstacles: make([]protocol.RectSnapshot, 0, len(m.Obstacles)),
		Winner:    string(m.Winner),
	}
	for _, o := range m.Obstacles {
		snap.Obstacles = append(snap.Obstacles, protocol.RectSnapshot{X: o.X, Y: o.Y, W: o.W, H: o.H})
	}

	switch m.Mode {
	case game.ModeHider:
		snap.Cars = append(snap.Cars, car("ai", aiRole, &m.Attacker.Body))
		snap.Laser = &protocol.LaserSnapshot{Start: point(m.Laser.Start), End: point(m.Laser.End), Hit: m.Laser.Hit}
		snap.Path = points(m.Attacker.Path())
		snap.Predicted = points(m.Predicted)
		snap.LOS = &protocol.LOSTimer{
			HeldMs: m.LOSHeld().Milliseconds(),
			NeedMs: game.LOSWinDuration.Milliseconds(),
		}
	case game.ModeChaser:
		snap.Cars = append(snap.Cars, car("ai", aiRole, &m.Defender.Body))
		snap.Defender = defenderDebug(m.Defender)
	}
	return snap
}

func defenderDebug(d *ai.Defender) *protocol.DefenderDebug {
	out := &protocol.DefenderDebug{State: d.FSM.State().String()}
	if t, ok := d.MoveTarget(); ok {
		p := point(t)
		out.MoveTarget = &p
	}
	if t, ok := d.FSM.HideTarget(); ok {
		p := point(t)
		out.HideTarget = &p
	}
	return out
}
