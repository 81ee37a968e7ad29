package protocol

type Welcome struct {
	PlayerID string `json:"playerId"`
	TickHz   int    `json:"tickHz"`
	Role     string `json:"role"` // "driver" or "spectator"
	Room     string `json:"room"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type State struct {
	Tick      int            `json:"tick"`
	Phase     string         `json:"phase"`
	Mode      string         `json:"mode,omitempty"`
	Cars      []CarSnapshot  `json:"cars"`
	Obstacles []RectSnapshot `json:"obstacles,omitempty"`
	Laser     *LaserSnapshot `json:"laser,omitempty"`
	Path      []Point        `json:"path,omitempty"` // attacker A* waypoints
	// Predicted is the hider's straight-line track for the next second:
	// one point every 5 ticks, extrapolated from its per-tick velocity.
	Predicted []Point        `json:"predicted,omitempty"`
	Defender  *DefenderDebug `json:"defender,omitempty"`
	LOS       *LOSTimer      `json:"los,omitempty"`
	Winner    string         `json:"winner,omitempty"`
}

type CarSnapshot struct {
	ID   string  `json:"id"` // "player" or "ai"
	Role string  `json:"role"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	VX   float64 `json:"vx"`
	VY   float64 `json:"vy"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
}

type RectSnapshot struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type LaserSnapshot struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
	Hit   bool  `json:"hit"`
}

type DefenderDebug struct {
	State      string `json:"state"`
	MoveTarget *Point `json:"moveTarget,omitempty"`
	HideTarget *Point `json:"hideTarget,omitempty"`
}

type LOSTimer struct {
	HeldMs int64 `json:"heldMs"`
	NeedMs int64 `json:"needMs"`
}

type Over struct {
	MatchID string `json:"matchId"`
	Mode    string `json:"mode"`
	Winner  string `json:"winner"`
	Ticks   int    `json:"ticks"`
	Seed    uint64 `json:"seed"`
}

type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
