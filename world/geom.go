package world

import "math"

type Vec struct {
	X, Y float64
}

func (v Vec) Add(o Vec) Vec       { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }
func (v Vec) Dot(o Vec) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }

func (v Vec) IsNaN() bool { return math.IsNaN(v.X) || math.IsNaN(v.Y) }

// Normalize returns the unit vector, or the zero vector for near-zero input.
func (v Vec) Normalize() Vec {
	mag := v.Len()
	if mag < 0.0001 {
		return Vec{}
	}
	return Vec{v.X / mag, v.Y / mag}
}

func Distance(a, b Vec) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Rect is axis aligned. Containment is half-open on the far edges.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }
func (r Rect) Center() Vec     { return Vec{r.X + r.W/2, r.Y + r.H/2} }

func (r Rect) Contains(p Vec) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && r.Right() > o.X && r.Y < o.Bottom() && r.Bottom() > o.Y
}

type Cell struct {
	X, Y int
}

func WorldToGrid(p Vec) Cell {
	return Cell{int(math.Floor(p.X / GridSize)), int(math.Floor(p.Y / GridSize))}
}

// GridToWorld returns the center of the cell.
func GridToWorld(c Cell) Vec {
	return Vec{float64(c.X)*GridSize + GridSize/2, float64(c.Y)*GridSize + GridSize/2}
}

func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
