package game

import "time"

const (
	DefaultTickHz = 60

	Deadzone    = 0.08
	PlayerSpeed = 5.0 // px per tick, both roles

	LOSWinDuration    = 1500 * time.Millisecond
	LaserLengthFactor = 1.0 // x arena diagonal
	LaserOffsetFactor = 1.0 / 3.0
	CatchFactor       = 0.8 // x mean car width
)
