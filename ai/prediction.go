package ai

import (
	"time"

	"battlecar/world"
)

type Observation struct {
	Pos world.Vec
	Vel world.Vec
	At  time.Duration
}

// Predictor extrapolates a car's future positions from its velocity.
type Predictor struct {
	history []Observation
}

func NewPredictor() *Predictor {
	return &Predictor{history: make([]Observation, 0, PredictorHistory)}
}

// Observe keeps the latest PredictorHistory observations.
func (p *Predictor) Observe(o Observation) {
	if len(p.history) == PredictorHistory {
		copy(p.history, p.history[1:])
		p.history = p.history[:PredictorHistory-1]
	}
	p.history = append(p.history, o)
}

func (p *Predictor) History() []Observation { return p.history }

func PredictLinear(pos, vel world.Vec, ticks float64) world.Vec {
	return pos.Add(vel.Scale(ticks))
}

// PredictPath returns steps/interval points spaced interval ticks apart.
// vel is per tick; hz only guards against a meaningless clock.
func PredictPath(pos, vel world.Vec, steps, interval, hz int) []world.Vec {
	if hz <= 0 || interval <= 0 {
		return nil
	}
	n := steps / interval
	path := make([]world.Vec, 0, n)
	for i := 1; i <= n; i++ {
		path = append(path, PredictLinear(pos, vel, float64(interval*i)))
	}
	return path
}
