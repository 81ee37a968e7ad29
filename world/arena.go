package world

import (
	"math"
	"math/rand/v2"
)

type Arena struct {
	Width, Height float64
}

func DefaultArena() Arena {
	return Arena{Width: ArenaWidth, Height: ArenaHeight}
}

func (a Arena) Center() Vec       { return Vec{a.Width / 2, a.Height / 2} }
func (a Arena) Diagonal() float64 { return math.Hypot(a.Width, a.Height) }

// GridDims is the pathfinding grid size in cells.
func (a Arena) GridDims() (int, int) {
	return int(a.Width / GridSize), int(a.Height / GridSize)
}

type Obstacle struct {
	Rect
}

func NewObstacle(x, y, size float64) Obstacle {
	return Obstacle{Rect{X: x, Y: y, W: size, H: size}}
}

func (o Obstacle) Size() float64 { return o.W }

// GenerateObstacles places up to n square obstacles at random, keeping their
// centers away from the avoid points and from each other. It gives up after
// n*ObstacleAttemptsFactor attempts and returns whatever it placed.
func GenerateObstacles(rng *rand.Rand, a Arena, avoid []Vec, n int, minFromCars, minBetween float64) []Obstacle {
	n = max(0, min(n, MaxObstacles))
	obstacles := make([]Obstacle, 0, n)
	maxAttempts := n * ObstacleAttemptsFactor
	span := func(limit float64) float64 {
		hi := int(limit - ObstacleSize)
		if hi <= 0 {
			return 0
		}
		return float64(rng.IntN(hi + 1))
	}

	for attempts := 0; len(obstacles) < n && attempts < maxAttempts; attempts++ {
		cand := NewObstacle(span(a.Width), span(a.Height), ObstacleSize)
		center := cand.Center()

		ok := true
		for _, p := range avoid {
			if Distance(p, center) < minFromCars {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, existing := range obstacles {
			if Distance(existing.Center(), center) < minBetween {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		obstacles = append(obstacles, cand)
	}
	return obstacles
}
