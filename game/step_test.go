package game

import (
	"context"
	"errors"
	"math"
	"testing"

	"battlecar/ai"
	"battlecar/world"
)

func emptyLayout(t *testing.T) *world.Layout {
	t.Helper()
	l, err := world.ParseLayout([]byte("name: empty\n"))
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	return l
}

func TestStepMovesPlayerAndAdvancesTick(t *testing.T) {
	m, err := Setup(Options{Mode: ModeHider, Layout: emptyLayout(t)})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	x0 := m.Player.Pos.X

	Step(m, Input{Ax: 1})
	if m.Tick != 1 {
		t.Fatalf("tick after 1 step = %d, want 1", m.Tick)
	}
	if got := m.Player.Pos.X - x0; got != PlayerSpeed {
		t.Fatalf("player moved %f, want %f", got, PlayerSpeed)
	}

	for range 4 {
		Step(m, Input{Ax: 1, Ay: 1})
	}
	if m.Tick != 5 {
		t.Fatalf("tick after 5 steps = %d, want 5", m.Tick)
	}
	if v := m.Player.Vel.Len(); v < PlayerSpeed-1e-9 || v > PlayerSpeed+1e-9 {
		t.Fatalf("diagonal speed = %f, want %f", v, PlayerSpeed)
	}
}

func TestStepDeadzoneStopsPlayer(t *testing.T) {
	m, err := Setup(Options{Mode: ModeHider, Layout: emptyLayout(t)})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	before := m.Player.Pos
	Step(m, Input{Ax: 0.05, Ay: -0.05})
	if m.Player.Pos != before {
		t.Fatalf("stick inside deadzone moved the player to %+v", m.Player.Pos)
	}
	if m.Predicted != nil {
		t.Fatalf("stationary hider should have no predicted path")
	}
}

func TestInputSpeedFollowsStick(t *testing.T) {
	for _, tc := range []struct {
		in   Input
		want float64
	}{
		{Input{Ax: 0.5}, PlayerSpeed * 0.5},
		{Input{Ay: -0.2}, PlayerSpeed * 0.2},
		{Input{Ax: 1}, PlayerSpeed},
		{Input{Ax: 3, Ay: 3}, PlayerSpeed},
		{Input{Ax: 0.05}, 0},
	} {
		if got := inputVelocity(tc.in).Len(); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("inputVelocity(%+v) speed = %f, want %f", tc.in, got, tc.want)
		}
	}
}

func TestStickKeepsAISpeed(t *testing.T) {
	slow := stick(world.Vec{X: 2})
	if math.Abs(slow.Ax-0.4) > 1e-9 || slow.Ay != 0 {
		t.Fatalf("stick(2,0) = %+v, want Ax 0.4", slow)
	}
	if got := inputVelocity(slow).Len(); math.Abs(got-2) > 1e-9 {
		t.Fatalf("slow AI velocity replayed at %f px/tick, want 2", got)
	}
	fast := stick(world.Vec{X: 0, Y: -10})
	if math.Abs(fast.Ay+1) > 1e-9 || fast.Ax != 0 {
		t.Fatalf("stick(0,-10) = %+v, want Ay -1", fast)
	}
}

func TestSetupObstacleCount(t *testing.T) {
	m, err := Setup(Options{Mode: ModeHider, Seed: 5, Obstacles: NoObstacles})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if len(m.Obstacles) != 0 {
		t.Fatalf("NoObstacles gave %d obstacles", len(m.Obstacles))
	}

	m, err = Setup(Options{Mode: ModeHider, Seed: 5})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if len(m.Obstacles) == 0 || len(m.Obstacles) > world.NumObstacles {
		t.Fatalf("default gave %d obstacles, want 1..%d", len(m.Obstacles), world.NumObstacles)
	}

	for _, n := range []int{world.MaxObstacles + 1, -2} {
		if _, err := Setup(Options{Mode: ModeHider, Obstacles: n}); err == nil {
			t.Fatalf("Setup accepted %d obstacles", n)
		}
	}
}

func TestPredictedTrackCoversNextSecond(t *testing.T) {
	m, err := Setup(Options{Mode: ModeHider, Layout: emptyLayout(t)})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	Step(m, Input{Ax: 1})
	if len(m.Predicted) != ai.PredictionSteps/ai.PredictionInterval {
		t.Fatalf("predicted %d points, want %d", len(m.Predicted), ai.PredictionSteps/ai.PredictionInterval)
	}
	want := m.Player.Center().Add(world.Vec{X: PlayerSpeed * ai.PredictionSteps})
	if last := m.Predicted[len(m.Predicted)-1]; world.Distance(last, want) > 1e-9 {
		t.Fatalf("track ends at %+v, want %+v one second out", last, want)
	}
}

func TestSetupRejectsUnknownMode(t *testing.T) {
	if _, err := Setup(Options{Mode: "spectator"}); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("err = %v, want ErrInvalidMode", err)
	}
	if _, err := ParseMode("hider"); err != nil {
		t.Fatalf("ParseMode(hider): %v", err)
	}
}

func TestSetupSpawnsByMode(t *testing.T) {
	m, err := Setup(Options{Mode: ModeHider, Seed: 3})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if m.Player.Pos != (world.Vec{X: 250, Y: 600}) || m.Attacker.Body.Pos != (world.Vec{X: 750, Y: 200}) {
		t.Fatalf("hider spawns: player %+v attacker %+v", m.Player.Pos, m.Attacker.Body.Pos)
	}
	if m.Defender != nil {
		t.Fatalf("hider mode must not have a defender")
	}
	for _, o := range m.Obstacles {
		if world.Distance(o.Center(), m.Player.Center()) < world.ObstacleMinFromCars {
			t.Fatalf("obstacle %+v spawned on the player", o)
		}
	}

	m, err = Setup(Options{Mode: ModeChaser, Seed: 3})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if m.Player.Pos != (world.Vec{X: 250, Y: 400}) || m.Defender.Body.Pos != (world.Vec{X: 750, Y: 400}) {
		t.Fatalf("chaser spawns: player %+v defender %+v", m.Player.Pos, m.Defender.Body.Pos)
	}
	if m.Defender.FSM.State() != ai.StatePatrol || len(m.Defender.FSM.PatrolPoints()) != ai.PatrolPoints {
		t.Fatalf("defender should start patrolling %d points", ai.PatrolPoints)
	}
}

func TestSetupIsDeterministic(t *testing.T) {
	a, _ := Setup(Options{Mode: ModeChaser, Seed: 99})
	b, _ := Setup(Options{Mode: ModeChaser, Seed: 99})
	if len(a.Obstacles) != len(b.Obstacles) {
		t.Fatalf("obstacle counts differ: %d vs %d", len(a.Obstacles), len(b.Obstacles))
	}
	for i := range a.Obstacles {
		if a.Obstacles[i] != b.Obstacles[i] {
			t.Fatalf("obstacle %d differs", i)
		}
	}
}

func TestHiderModeAttackerWinsAfterHoldingSight(t *testing.T) {
	m, err := Setup(Options{Mode: ModeHider, Layout: emptyLayout(t)})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	for m.Phase == PhasePlaying && m.Tick < 200 {
		Step(m, Input{})
		if !m.Laser.Hit && m.Phase == PhasePlaying {
			t.Fatalf("tick %d: laser should hit in an open arena", m.Tick)
		}
	}
	if m.Phase != PhaseGameOver || m.Winner != RoleChaser {
		t.Fatalf("phase=%v winner=%q, want chaser win", m.Phase, m.Winner)
	}
	// sight acquired on tick 1, 1500ms later is tick 91 at 60Hz
	if m.Tick != 91 {
		t.Fatalf("match ended on tick %d, want 91", m.Tick)
	}
}

func TestHiderModeCoverRunsOutTheClock(t *testing.T) {
	l, err := world.ParseLayout([]byte(`
name: wall
obstacles:
  - {x: 400, y: 300, size: 200}
`))
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	m, err := Setup(Options{Mode: ModeHider, Layout: l, MaxTicks: 30})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	for m.Phase == PhasePlaying {
		Step(m, Input{})
		if m.LOSHeld() != 0 {
			t.Fatalf("tick %d: attacker should not see through the wall", m.Tick)
		}
	}
	if m.Winner != RoleHider || m.Tick != 30 {
		t.Fatalf("winner=%q tick=%d, want hider at tick 30", m.Winner, m.Tick)
	}
}

func TestChaserModeCatch(t *testing.T) {
	m, err := Setup(Options{Mode: ModeChaser, Layout: emptyLayout(t)})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	m.Player.Pos = m.Defender.Body.Pos
	Step(m, Input{})
	if m.Phase != PhaseGameOver || m.Winner != RoleChaser {
		t.Fatalf("phase=%v winner=%q, want chaser catch", m.Phase, m.Winner)
	}

	tick := m.Tick
	Step(m, Input{Ax: 1})
	if m.Tick != tick {
		t.Fatalf("finished match advanced to tick %d", m.Tick)
	}
}

func TestAutopilotPlaysToCompletion(t *testing.T) {
	for _, mode := range []Mode{ModeHider, ModeChaser} {
		t.Run(string(mode), func(t *testing.T) {
			run := func() Result {
				m, err := Setup(Options{Mode: mode, Seed: 11, MaxTicks: 3000})
				if err != nil {
					t.Fatalf("Setup: %v", err)
				}
				res, err := Play(context.Background(), m, NewAutopilot(m))
				if err != nil {
					t.Fatalf("Play: %v", err)
				}
				return res
			}
			first, second := run(), run()
			if first.Winner == "" || first.Ticks == 0 || first.Ticks > 3000 {
				t.Fatalf("unexpected result %+v", first)
			}
			if first != second {
				t.Fatalf("same seed gave different results: %+v vs %+v", first, second)
			}
		})
	}
}

func TestPlayStopsOnCancelledContext(t *testing.T) {
	m, err := Setup(Options{Mode: ModeHider, Seed: 1})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Play(ctx, m, NewAutopilot(m)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
