package room

import "battlecar/game"

type Conn interface {
	Send([]byte) error
	Close() error
}

// Join: issued once after hello parsed
type Join struct {
	Conn  Conn
	Name  string
	Reply chan<- JoinResult
}

type JoinResult struct {
	PlayerID string
	Driver   bool // false for spectators
}

// Start: driver picks a mode from the menu. Seed 0 picks one at random.
type Start struct {
	PlayerID string
	Mode     string
	Seed     uint64
}

// Input: latest stick for a player; only the driver's is applied
type Input struct {
	PlayerID string
	Input    game.Input
}

// Restart: back to the menu after game over
type Restart struct {
	PlayerID string
}

// Leave: issued on disconnect
type Leave struct {
	PlayerID string
}
