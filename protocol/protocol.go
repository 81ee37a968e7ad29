package protocol

import (
	"encoding/json"
)

const (
	MsgHello   = "hello"
	MsgStart   = "start"
	MsgInput   = "input"
	MsgRestart = "restart"
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgOver    = "over"
	MsgError   = "error"
)

const (
	Version       = 1
	SimTickHz     = 60
	ClientInputHz = 60
	BroadcastHz   = 20
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}
