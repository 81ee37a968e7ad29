package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"battlecar/game"
	"battlecar/protocol"
	"battlecar/store"
	"battlecar/world"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConn struct {
	sendCh chan []byte
	mu     sync.Mutex
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{sendCh: make(chan []byte, 1024)}
}

func (f *fakeConn) Send(b []byte) error {
	cp := make([]byte, len(b))
	copy(cp, b)
	f.sendCh <- cp
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type failConn struct{}

func (failConn) Send([]byte) error { return errors.New("broken pipe") }
func (failConn) Close() error      { return nil }

type fakeRecorder struct {
	got chan store.Match
}

func (f *fakeRecorder) Record(_ context.Context, m store.Match) error {
	f.got <- m
	return nil
}

func startRoom(t *testing.T, opts Options) *Room {
	t.Helper()
	r := New(opts)
	r.Code = "TEST01"
	go r.Run()
	t.Cleanup(func() {
		r.Stop()
		<-r.Done()
	})
	return r
}

func emptyLayout(t *testing.T) *world.Layout {
	t.Helper()
	l, err := world.ParseLayout([]byte("name: empty\n"))
	require.NoError(t, err)
	return l
}

func join(t *testing.T, r *Room, fc Conn, name string) JoinResult {
	t.Helper()
	reply := make(chan JoinResult, 1)
	require.True(t, r.Send(Join{Conn: fc, Name: name, Reply: reply}))
	select {
	case res := <-reply:
		return res
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for join reply")
	}
	return JoinResult{}
}

// next returns the first message of type typ, skipping others.
func next[T any](t *testing.T, fc *fakeConn, typ string) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case b := <-fc.sendCh:
			env, err := protocol.DecodeEnvelope(b)
			require.NoError(t, err)
			if env.T != typ {
				continue
			}
			out, err := protocol.DecodePayload[T](env)
			require.NoError(t, err)
			return out
		case <-timeout:
			t.Fatalf("timed out waiting for %q", typ)
		}
	}
}

// nextState waits for a state snapshot satisfying ok.
func nextState(t *testing.T, fc *fakeConn, ok func(protocol.State) bool) protocol.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := next[protocol.State](t, fc, protocol.MsgState)
		if ok(st) {
			return st
		}
	}
	t.Fatalf("no matching state snapshot")
	return protocol.State{}
}

func findCar(st protocol.State, id string) (protocol.CarSnapshot, bool) {
	for _, c := range st.Cars {
		if c.ID == id {
			return c, true
		}
	}
	return protocol.CarSnapshot{}, false
}

func TestRoomJoinSendsWelcomeThenMenuState(t *testing.T) {
	r := startRoom(t, Options{})
	fc := newFakeConn()
	res := join(t, r, fc, "alice")
	assert.True(t, res.Driver)

	b := <-fc.sendCh
	env, err := protocol.DecodeEnvelope(b)
	require.NoError(t, err)
	require.Equal(t, protocol.MsgWelcome, env.T)
	w, err := protocol.DecodePayload[protocol.Welcome](env)
	require.NoError(t, err)
	assert.Equal(t, res.PlayerID, w.PlayerID)
	assert.Equal(t, "driver", w.Role)
	assert.Equal(t, "TEST01", w.Room)
	assert.Equal(t, protocol.SimTickHz, w.TickHz)

	st := next[protocol.State](t, fc, protocol.MsgState)
	assert.Equal(t, "menu", st.Phase)
	assert.Empty(t, st.Cars)
	assert.Equal(t, 1, r.NumPlayers())
}

func TestRoomSecondJoinerSpectates(t *testing.T) {
	r := startRoom(t, Options{})
	driver := newFakeConn()
	spectator := newFakeConn()
	d := join(t, r, driver, "a")
	s := join(t, r, spectator, "b")
	assert.True(t, d.Driver)
	assert.False(t, s.Driver)
	assert.NotEqual(t, d.PlayerID, s.PlayerID)

	w := next[protocol.Welcome](t, spectator, protocol.MsgWelcome)
	assert.Equal(t, "spectator", w.Role)

	r.Send(Start{PlayerID: s.PlayerID, Mode: "hider"})
	e := next[protocol.Error](t, spectator, protocol.MsgError)
	assert.Equal(t, "not_driver", e.Code)
}

func TestRoomStartRejectsBadMode(t *testing.T) {
	r := startRoom(t, Options{})
	fc := newFakeConn()
	res := join(t, r, fc, "a")
	r.Send(Start{PlayerID: res.PlayerID, Mode: "tag"})
	e := next[protocol.Error](t, fc, protocol.MsgError)
	assert.Equal(t, "bad_mode", e.Code)
	assert.Equal(t, game.PhaseMenu, r.Phase())
}

func TestRoomStartBroadcastsPlayingState(t *testing.T) {
	r := startRoom(t, Options{})
	fc := newFakeConn()
	res := join(t, r, fc, "a")
	r.Send(Start{PlayerID: res.PlayerID, Mode: "hider", Seed: 42})

	st := nextState(t, fc, func(s protocol.State) bool { return s.Phase == "playing" })
	assert.Equal(t, "hider", st.Mode)
	require.Len(t, st.Cars, 2)
	player, ok := findCar(st, "player")
	require.True(t, ok)
	assert.Equal(t, "hider", player.Role)
	aiCar, ok := findCar(st, "ai")
	require.True(t, ok)
	assert.Equal(t, "chaser", aiCar.Role)
	assert.NotEmpty(t, st.Obstacles)
	assert.LessOrEqual(t, len(st.Obstacles), world.NumObstacles)
	assert.NotNil(t, st.Laser)
	assert.NotNil(t, st.LOS)
	assert.Nil(t, st.Defender)
}

func TestRoomInputMovesDriverCar(t *testing.T) {
	r := startRoom(t, Options{Layout: emptyLayout(t)})
	fc := newFakeConn()
	res := join(t, r, fc, "mover")
	r.Send(Start{PlayerID: res.PlayerID, Mode: "chaser", Seed: 3})
	first := nextState(t, fc, func(s protocol.State) bool { return s.Phase == "playing" })
	startCar, ok := findCar(first, "player")
	require.True(t, ok)
	require.NotNil(t, first.Defender)

	r.Send(Input{PlayerID: res.PlayerID, Input: game.Input{Ax: 1}})
	nextState(t, fc, func(s protocol.State) bool {
		c, ok := findCar(s, "player")
		return ok && c.X > startCar.X+20
	})
}

func TestRoomIgnoresSpectatorInput(t *testing.T) {
	r := startRoom(t, Options{Layout: emptyLayout(t)})
	driver := newFakeConn()
	spectator := newFakeConn()
	d := join(t, r, driver, "a")
	s := join(t, r, spectator, "b")
	r.Send(Start{PlayerID: d.PlayerID, Mode: "chaser", Seed: 3})
	r.Send(Input{PlayerID: s.PlayerID, Input: game.Input{Ax: 1}})

	first := nextState(t, spectator, func(st protocol.State) bool { return st.Phase == "playing" })
	later := nextState(t, spectator, func(st protocol.State) bool { return st.Tick >= first.Tick+20 })
	a, _ := findCar(first, "player")
	b, _ := findCar(later, "player")
	assert.Equal(t, a.X, b.X)
	assert.Equal(t, a.Y, b.Y)
}

func TestRoomGameOverRecordsAndRestarts(t *testing.T) {
	rec := &fakeRecorder{got: make(chan store.Match, 1)}
	r := startRoom(t, Options{MaxTicks: 5, Recorder: rec})
	fc := newFakeConn()
	res := join(t, r, fc, "a")
	r.Send(Start{PlayerID: res.PlayerID, Mode: "hider", Seed: 9})

	over := next[protocol.Over](t, fc, protocol.MsgOver)
	assert.Equal(t, "hider", over.Winner)
	assert.Equal(t, "hider", over.Mode)
	assert.Equal(t, 5, over.Ticks)
	assert.Equal(t, uint64(9), over.Seed)

	select {
	case m := <-rec.got:
		assert.Equal(t, over.MatchID, m.ID)
		assert.Equal(t, "TEST01", m.Room)
		assert.Equal(t, game.RoleHider, m.Winner)
	case <-time.After(time.Second):
		t.Fatalf("result was not recorded")
	}
	assert.Equal(t, game.PhaseGameOver, r.Phase())

	// a second start is refused until restart
	r.Send(Start{PlayerID: res.PlayerID, Mode: "chaser"})
	e := next[protocol.Error](t, fc, protocol.MsgError)
	assert.Equal(t, "in_progress", e.Code)

	r.Send(Restart{PlayerID: res.PlayerID})
	nextState(t, fc, func(s protocol.State) bool { return s.Phase == "menu" })
	assert.Equal(t, game.PhaseMenu, r.Phase())
}

func TestRoomDriverLeavingHandsOver(t *testing.T) {
	r := startRoom(t, Options{})
	driver := newFakeConn()
	spectator := newFakeConn()
	d := join(t, r, driver, "a")
	s := join(t, r, spectator, "b")

	r.Send(Leave{PlayerID: d.PlayerID})
	r.Send(Start{PlayerID: s.PlayerID, Mode: "chaser", Seed: 1})
	nextState(t, spectator, func(st protocol.State) bool { return st.Phase == "playing" })
	assert.True(t, driver.isClosed())
	assert.Equal(t, 1, r.NumPlayers())
}

func TestRoomLastLeaveCallsOnEmpty(t *testing.T) {
	r := New(Options{})
	r.Code = "EMPTY1"
	emptied := make(chan string, 1)
	r.OnEmpty = func(code string) {
		emptied <- code
		r.Stop()
	}
	go r.Run()

	fc := newFakeConn()
	res := join(t, r, fc, "a")
	r.Send(Leave{PlayerID: res.PlayerID})

	select {
	case code := <-emptied:
		assert.Equal(t, "EMPTY1", code)
	case <-time.After(time.Second):
		t.Fatalf("OnEmpty not called")
	}
	<-r.Done()
	assert.False(t, r.Send(Leave{PlayerID: res.PlayerID}))
}

func TestRoomDropsFailingConn(t *testing.T) {
	r := startRoom(t, Options{})
	good := newFakeConn()
	join(t, r, good, "good")
	join(t, r, failConn{}, "bad")

	deadline := time.Now().Add(time.Second)
	for r.NumPlayers() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, r.NumPlayers())
}

func TestRoomBroadcastRateRoughly20Hz(t *testing.T) {
	r := startRoom(t, Options{})
	fc := newFakeConn()
	join(t, r, fc, "rate")
	// drain welcome and the join snapshot
	<-fc.sendCh
	<-fc.sendCh

	deadline := time.After(300 * time.Millisecond)
	count := 0
	for {
		select {
		case b := <-fc.sendCh:
			var env protocol.Envelope
			if json.Unmarshal(b, &env) == nil && env.T == protocol.MsgState {
				count++
			}
		case <-deadline:
			// 20Hz for 0.3s => ~6 msgs
			if count < 2 || count > 12 {
				t.Fatalf("unexpected state broadcast count in 300ms: %d", count)
			}
			return
		}
	}
}
