package world

import "math"

// Body is a car: top-left position plus per-tick velocity.
type Body struct {
	Pos  Vec
	Vel  Vec
	W, H float64
}

func NewBody(x, y float64) Body {
	return Body{Pos: Vec{x, y}, W: CarWidth, H: CarHeight}
}

func (b *Body) Center() Vec { return Vec{b.Pos.X + b.W/2, b.Pos.Y + b.H/2} }
func (b *Body) Rect() Rect  { return Rect{b.Pos.X, b.Pos.Y, b.W, b.H} }

// MoveResolved applies velocity one axis at a time, snapping against the
// first obstacle hit on each axis, then clamps into the arena.
func (b *Body) MoveResolved(obstacles []Obstacle, a Arena) {
	b.Pos.X += b.Vel.X
	for _, o := range obstacles {
		if b.Rect().Intersects(o.Rect) {
			if b.Vel.X > 0 {
				b.Pos.X = o.Left() - b.W
			} else if b.Vel.X < 0 {
				b.Pos.X = o.Right()
			}
			b.Vel.X = 0
			break
		}
	}

	b.Pos.Y += b.Vel.Y
	for _, o := range obstacles {
		if b.Rect().Intersects(o.Rect) {
			if b.Vel.Y > 0 {
				b.Pos.Y = o.Top() - b.H
			} else if b.Vel.Y < 0 {
				b.Pos.Y = o.Bottom()
			}
			b.Vel.Y = 0
			break
		}
	}

	b.Pos.X = Clamp(b.Pos.X, 0, a.Width-b.W)
	b.Pos.Y = Clamp(b.Pos.Y, 0, a.Height-b.H)
}

// MoveBounce applies velocity; hitting an obstacle reverts the move and
// bounces on the dominant axis, hitting an arena edge clamps and rebounds.
func (b *Body) MoveBounce(obstacles []Obstacle, a Arena) {
	old := b.Pos
	b.Pos = b.Pos.Add(b.Vel)

	for _, o := range obstacles {
		if b.Rect().Intersects(o.Rect) {
			b.Pos = old
			if math.Abs(b.Vel.X) > math.Abs(b.Vel.Y) {
				b.Vel.X *= BounceObstacle
				b.Vel.Y *= DampObstacle
			} else {
				b.Vel.Y *= BounceObstacle
				b.Vel.X *= DampObstacle
			}
			break
		}
	}

	if b.Pos.X < 0 {
		b.Pos.X = 0
		b.Vel.X *= BounceEdge
		b.Vel.Y *= DampEdge
	} else if b.Pos.X > a.Width-b.W {
		b.Pos.X = a.Width - b.W
		b.Vel.X *= BounceEdge
		b.Vel.Y *= DampEdge
	}
	if b.Pos.Y < 0 {
		b.Pos.Y = 0
		b.Vel.Y *= BounceEdge
		b.Vel.X *= DampEdge
	} else if b.Pos.Y > a.Height-b.H {
		b.Pos.Y = a.Height - b.H
		b.Vel.Y *= BounceEdge
		b.Vel.X *= DampEdge
	}
}
