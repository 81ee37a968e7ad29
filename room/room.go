package room

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"battlecar/game"
	blog "battlecar/log"
	"battlecar/metrics"
	"battlecar/protocol"
	"battlecar/store"
	"battlecar/world"
)

// Recorder persists finished matches.
type Recorder interface {
	Record(ctx context.Context, m store.Match) error
}

// Options tune every match a room starts.
type Options struct {
	TickHz    int
	Obstacles int
	MaxTicks  int
	Layout    *world.Layout
	Recorder  Recorder // optional
}

const recordTimeout = 2 * time.Second

type client struct {
	id   string
	name string
	conn Conn
}

type Room struct {
	Inbox          chan any
	tickHz         int
	broadcastEvery int
	opts           Options
	match          *game.Match
	matchID        string
	clients        map[string]*client
	order          []string // join order; order[0] drives
	input          game.Input
	ticks          int
	nextID         int
	quit           chan struct{}
	done           chan struct{}
	stopOnce       sync.Once
	players        atomic.Int32
	phase          atomic.Uint32
	log            zerolog.Logger

	Code    string            // room code (e.g. "ABC123")
	OnEmpty func(code string) // called when last player leaves
}

func New(opts Options) *Room {
	if opts.TickHz <= 0 {
		opts.TickHz = protocol.SimTickHz
	}
	broadcastEvery := opts.TickHz / protocol.BroadcastHz
	if broadcastEvery <= 0 {
		broadcastEvery = 1
	}
	return &Room{
		Inbox:          make(chan any, 256),
		tickHz:         opts.TickHz,
		broadcastEvery: broadcastEvery,
		opts:           opts,
		clients:        make(map[string]*client),
		nextID:         1,
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		log:            blog.WithComponent("room"),
	}
}

// Stop ends the room loop. Safe to call more than once and from inside
// the loop itself.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once Run has returned.
func (r *Room) Done() <-chan struct{} { return r.done }

// Send queues a command unless the room has stopped.
func (r *Room) Send(cmd any) bool {
	select {
	case <-r.quit:
		return false
	default:
	}
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

// NumPlayers returns the current number of connected clients.
func (r *Room) NumPlayers() int {
	return int(r.players.Load())
}

// Phase is the phase of the current match, or menu when none is running.
func (r *Room) Phase() game.Phase {
	return game.Phase(r.phase.Load())
}

// Info is the listing entry for this room.
func (r *Room) Info() RoomInfo {
	return RoomInfo{Code: r.Code, Players: r.NumPlayers(), Phase: r.Phase().String()}
}

func (r *Room) Run() {
	defer close(r.done)
	r.log = r.log.With().Str(blog.FieldRoom, r.Code).Logger()
	ticker := time.NewTicker(time.Second / time.Duration(r.tickHz))
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Room) tick() {
	r.ticks++
	if r.match != nil && r.match.Phase == game.PhasePlaying {
		began := time.Now()
		game.Step(r.match, r.input)
		metrics.ObserveTick(time.Since(began))
		if r.match.Phase == game.PhaseGameOver {
			r.finishMatch()
		}
	}
	if r.ticks%r.broadcastEvery == 0 {
		r.broadcastState()
	}
}

func (r *Room) handleCommand(cmd any) {
	// A stopping room drops queued commands. A Join gets no reply, so the
	// caller sees Done and can retry on a fresh room.
	select {
	case <-r.quit:
		return
	default:
	}
	switch c := cmd.(type) {
	case Join:
		r.handleJoin(c)
	case Start:
		r.handleStart(c)
	case Input:
		if r.driver() != c.PlayerID {
			return
		}
		r.input = c.Input
	case Restart:
		r.handleRestart(c)
	case Leave:
		r.handleLeave(c.PlayerID)
	}
}

func (r *Room) driver() string {
	if len(r.order) == 0 {
		return ""
	}
	return r.order[0]
}

func (r *Room) handleJoin(c Join) {
	playerID := fmt.Sprintf("p%d", r.nextID)
	r.nextID++
	name := c.Name
	if name == "" {
		name = "Player " + playerID[1:]
	}
	r.clients[playerID] = &client{id: playerID, name: name, conn: c.Conn}
	r.order = append(r.order, playerID)
	r.players.Store(int32(len(r.clients)))
	driver := r.driver() == playerID

	role := "spectator"
	if driver {
		role = "driver"
	}
	r.sendTo(c.Conn, protocol.MsgWelcome, protocol.Welcome{
		PlayerID: playerID,
		TickHz:   r.tickHz,
		Role:     role,
		Room:     r.Code,
	})
	r.sendTo(c.Conn, protocol.MsgState, r.buildSnapshot())
	r.log.Info().Str(blog.FieldPlayerID, playerID).Str(blog.FieldEvent, "room.join").Bool("driver", driver).Msg("client joined")
	c.Reply <- JoinResult{PlayerID: playerID, Driver: driver}
}

func (r *Room) handleStart(c Start) {
	cl, ok := r.clients[c.PlayerID]
	if !ok {
		return
	}
	if r.driver() != c.PlayerID {
		r.sendError(cl.conn, "not_driver", "only the driver can start a match")
		return
	}
	if r.match != nil {
		r.sendError(cl.conn, "in_progress", "a match is already running")
		return
	}
	mode, err := game.ParseMode(c.Mode)
	if err != nil {
		r.sendError(cl.conn, "bad_mode", err.Error())
		return
	}
	seed := c.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	m, err := game.Setup(game.Options{
		Mode:      mode,
		Seed:      seed,
		TickHz:    r.tickHz,
		Obstacles: r.opts.Obstacles,
		Layout:    r.opts.Layout,
		MaxTicks:  r.opts.MaxTicks,
	})
	if err != nil {
		r.sendError(cl.conn, "setup_failed", err.Error())
		return
	}
	r.match = m
	r.input = game.Input{}
	r.phase.Store(uint32(game.PhasePlaying))
	metrics.IncMatchStarted(string(mode))
	r.log.Info().Str(blog.FieldMode, string(mode)).Uint64(blog.FieldSeed, seed).Str(blog.FieldEvent, "match.start").Msg("match started")
	r.broadcastState()
}

func (r *Room) handleRestart(c Restart) {
	if r.driver() != c.PlayerID {
		return
	}
	if r.match == nil || r.match.Phase != game.PhaseGameOver {
		return
	}
	r.match = nil
	r.matchID = ""
	r.input = game.Input{}
	r.phase.Store(uint32(game.PhaseMenu))
	r.broadcastState()
}

func (r *Room) finishMatch() {
	res := r.match.Result()
	rec := store.NewMatch(r.Code, res, time.Now().UTC())
	r.matchID = rec.ID
	r.phase.Store(uint32(game.PhaseGameOver))
	metrics.IncMatchFinished(string(res.Mode), string(res.Winner))
	r.log.Info().
		Str(blog.FieldMatchID, rec.ID).
		Str(blog.FieldMode, string(res.Mode)).
		Str(blog.FieldWinner, string(res.Winner)).
		Int(blog.FieldTicks, res.Ticks).
		Str(blog.FieldEvent, "match.over").
		Msg("match finished")

	r.broadcastState()
	r.broadcast(protocol.MsgOver, protocol.Over{
		MatchID: rec.ID,
		Mode:    string(res.Mode),
		Winner:  string(res.Winner),
		Ticks:   res.Ticks,
		Seed:    res.Seed,
	})

	if r.opts.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := r.opts.Recorder.Record(ctx, rec); err != nil {
		metrics.IncRecordError()
		r.log.Error().Err(err).Str(blog.FieldMatchID, rec.ID).Msg("record match")
	}
}

func (r *Room) handleLeave(playerID string) {
	r.removeClient(playerID)
	if len(r.clients) == 0 && r.OnEmpty != nil && r.Code != "" {
		r.OnEmpty(r.Code)
	}
}

func (r *Room) removeClient(playerID string) {
	c, ok := r.clients[playerID]
	if !ok {
		return
	}
	wasDriver := r.driver() == playerID
	_ = c.conn.Close()
	delete(r.clients, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.players.Store(int32(len(r.clients)))
	r.log.Info().Str(blog.FieldPlayerID, playerID).Str(blog.FieldEvent, "room.leave").Msg("client left")

	if wasDriver {
		r.input = game.Input{}
		if next := r.driver(); next != "" {
			r.log.Info().Str(blog.FieldPlayerID, next).Msg("driver handed over")
		}
	}
}

func (r *Room) broadcastState() {
	r.broadcast(protocol.MsgState, r.buildSnapshot())
}

func (r *Room) broadcast(t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		r.log.Error().Err(err).Str("type", t).Msg("encode broadcast")
		return
	}
	var failed []string
	for _, id := range r.order {
		if err := r.clients[id].conn.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		r.handleLeave(id)
	}
}

func (r *Room) sendTo(c Conn, t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		return
	}
	_ = c.Send(b)
}

func (r *Room) sendError(c Conn, code, msg string) {
	r.sendTo(c, protocol.MsgError, protocol.Error{Code: code, Msg: msg})
}
