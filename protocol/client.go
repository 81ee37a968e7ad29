package protocol

// Messages coming in from the client.

type Hello struct {
	V    int    `json:"v"`              // version
	Name string `json:"name,omitempty"` // optional name
}

// Start begins a match from the menu. Seed 0 asks the server to pick one.
type Start struct {
	Mode string `json:"mode"` // "hider" or "chaser"
	Seed uint64 `json:"seed,omitempty"`
}

type Input struct {
	Ax float64 `json:"ax"` // -1..1 movement X
	Ay float64 `json:"ay"` // -1..1 movement Y
}

type Restart struct{}
