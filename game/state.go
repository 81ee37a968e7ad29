package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"battlecar/ai"
	"battlecar/world"
)

var ErrInvalidMode = errors.New("invalid game mode")

// Mode is the role the player picked.
type Mode string

const (
	ModeHider  Mode = "hider"  // player evades an AI attacker
	ModeChaser Mode = "chaser" // player hunts an AI defender
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeHider, ModeChaser:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Role names the side that won.
type Role string

const (
	RoleChaser Role = "chaser"
	RoleHider  Role = "hider"
)

type Phase uint8

const (
	PhaseMenu Phase = iota
	PhasePlaying
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseMenu:
		return "menu"
	case PhasePlaying:
		return "playing"
	case PhaseGameOver:
		return "game_over"
	}
	return "unknown"
}

// Input is the player's stick: each axis in [-1, 1].
type Input struct {
	Ax, Ay float64
}

// NoObstacles asks Setup for an empty arena; the zero Obstacles count means
// the default NumObstacles.
const NoObstacles = -1

type Options struct {
	Mode      Mode
	Seed      uint64
	TickHz    int
	Obstacles int           // random obstacle count: 0 = NumObstacles, NoObstacles = none; ignored with a Layout
	Layout    *world.Layout // fixed obstacles instead of random ones
	MaxTicks  int           // 0 = no limit; reaching it lets the hider win
}

// Match is the authoritative state of one round.
type Match struct {
	Mode   Mode
	Seed   uint64
	TickHz int
	Arena  world.Arena

	Tick   int
	Phase  Phase
	Winner Role

	Player    world.Body
	Attacker  *ai.Attacker // set in hider mode
	Defender  *ai.Defender // set in chaser mode
	Obstacles []world.Obstacle

	Pathfinder *ai.Pathfinder
	Predictor  *ai.Predictor
	Predicted  []world.Vec
	Laser      world.Laser

	MaxTicks int

	rng      *rand.Rand
	losSince *time.Duration
}

// Setup lays out a new match: cars at their mode's spawn points, obstacles
// kept clear of both, and the pathfinding grid built once.
func Setup(opts Options) (*Match, error) {
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.TickHz <= 0 {
		opts.TickHz = DefaultTickHz
	}
	if opts.Obstacles < NoObstacles || opts.Obstacles > world.MaxObstacles {
		return nil, fmt.Errorf("obstacle count %d out of range [%d, %d]", opts.Obstacles, NoObstacles, world.MaxObstacles)
	}

	arena := world.DefaultArena()
	if opts.Layout != nil {
		arena = opts.Layout.ArenaBounds()
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	pf := ai.NewPathfinder(arena)

	m := &Match{
		Mode:       opts.Mode,
		Seed:       opts.Seed,
		TickHz:     opts.TickHz,
		Arena:      arena,
		Phase:      PhasePlaying,
		Pathfinder: pf,
		Predictor:  ai.NewPredictor(),
		MaxTicks:   opts.MaxTicks,
		rng:        rng,
	}

	w, h := arena.Width, arena.Height
	var aiBody *world.Body
	switch opts.Mode {
	case ModeHider:
		m.Player = world.NewBody(w/4, h*3/4)
		m.Attacker = ai.NewAttacker(w*3/4, h/4, pf, rng)
		m.Attacker.SetTarget(&m.Player)
		aiBody = &m.Attacker.Body
	case ModeChaser:
		m.Player = world.NewBody(w/4, h/2)
		m.Defender = ai.NewDefender(w*3/4, h/2)
		m.Defender.SetThreat(&m.Player)
		m.Defender.SetPatrolPoints(ai.GeneratePatrolPoints(rng, arena, ai.PatrolPoints, ai.PatrolMargin), 0)
		aiBody = &m.Defender.Body
	}

	if opts.Layout != nil {
		m.Obstacles = opts.Layout.Build()
	} else {
		n := opts.Obstacles
		switch n {
		case 0:
			n = world.NumObstacles
		case NoObstacles:
			n = 0
		}
		avoid := []world.Vec{m.Player.Center(), aiBody.Center()}
		m.Obstacles = world.GenerateObstacles(rng, arena, avoid, n, world.ObstacleMinFromCars, world.ObstacleMinBetween)
	}
	pf.UpdateObstacles(m.Obstacles)
	return m, nil
}

// Elapsed is simulation time derived from the tick count.
func (m *Match) Elapsed() time.Duration {
	return time.Duration(m.Tick) * time.Second / time.Duration(m.TickHz)
}

func (m *Match) Chaser() *world.Body {
	if m.Mode == ModeHider {
		return &m.Attacker.Body
	}
	return &m.Player
}

func (m *Match) Hider() *world.Body {
	if m.Mode == ModeHider {
		return &m.Player
	}
	return &m.Defender.Body
}

// LOSHeld reports how long the attacker has kept the hider in sight.
func (m *Match) LOSHeld() time.Duration {
	if m.losSince == nil {
		return 0
	}
	return m.Elapsed() - *m.losSince
}

// PlayerRole is the side the player is on.
func (m *Match) PlayerRole() Role {
	if m.Mode == ModeHider {
		return RoleHider
	}
	return RoleChaser
}

// Result summarizes a finished match.
type Result struct {
	Mode     Mode
	Winner   Role
	Seed     uint64
	Ticks    int
	Duration time.Duration
}

func (m *Match) Result() Result {
	return Result{Mode: m.Mode, Winner: m.Winner, Seed: m.Seed, Ticks: m.Tick, Duration: m.Elapsed()}
}
