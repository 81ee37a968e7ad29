package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreateAndList(t *testing.T) {
	m := NewManager(Options{})
	defer m.StopAll()

	a := m.CreateRoom()
	b := m.CreateRoom()
	assert.Len(t, a, 6)
	assert.NotEqual(t, a, b)

	rooms := m.ListRooms()
	require.Len(t, rooms, 2)
	assert.True(t, rooms[0].Code < rooms[1].Code)
	for _, info := range rooms {
		assert.Equal(t, 0, info.Players)
		assert.Equal(t, "menu", info.Phase)
	}
}

func TestManagerGetOrCreateReusesRoom(t *testing.T) {
	m := NewManager(Options{})
	defer m.StopAll()

	assert.Nil(t, m.GetOrCreateRoom(""))
	r1 := m.GetOrCreateRoom("ROOM42")
	r2 := m.GetOrCreateRoom("ROOM42")
	assert.Same(t, r1, r2)

	got, err := m.Get("ROOM42")
	require.NoError(t, err)
	assert.Same(t, r1, got)

	_, err = m.Get("NOPE00")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestManagerRemovesEmptyRoom(t *testing.T) {
	m := NewManager(Options{})
	defer m.StopAll()

	r := m.GetOrCreateRoom("GONE99")
	fc := newFakeConn()
	res := join(t, r, fc, "a")
	r.Send(Leave{PlayerID: res.PlayerID})

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("room did not stop after last leave")
	}
	_, err := m.Get("GONE99")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestGenerateCodeAlphabet(t *testing.T) {
	code := generateCode(32)
	for _, c := range code {
		assert.Contains(t, codeChars, string(c))
	}
}

func TestJoinQueuedBehindLastLeaveIsDropped(t *testing.T) {
	m := NewManager(Options{})
	defer m.StopAll()

	for i := range 50 {
		r := m.GetOrCreateRoom("LATE01")
		first := join(t, r, newFakeConn(), "a")

		reply := make(chan JoinResult, 1)
		r.Inbox <- Leave{PlayerID: first.PlayerID}
		r.Inbox <- Join{Conn: newFakeConn(), Name: "b", Reply: reply}

		select {
		case <-r.Done():
		case <-time.After(time.Second):
			t.Fatalf("round %d: room did not stop after last leave", i)
		}
		select {
		case res := <-reply:
			t.Fatalf("round %d: stopped room acknowledged join %+v", i, res)
		default:
		}

		fresh := m.GetOrCreateRoom("LATE01")
		require.NotSame(t, r, fresh)
		res := join(t, fresh, newFakeConn(), "b")
		assert.True(t, res.Driver)
		fresh.Send(Leave{PlayerID: res.PlayerID})
		<-fresh.Done()
	}
}
