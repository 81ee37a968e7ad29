package log

// Common structured field names.
const (
	FieldComponent = "component"
	FieldRoom      = "room"
	FieldMode      = "mode"
	FieldMatchID   = "match_id"
	FieldPlayerID  = "player_id"
	FieldEvent     = "event"
	FieldWinner    = "winner"
	FieldSeed      = "seed"
	FieldTicks     = "ticks"
)
