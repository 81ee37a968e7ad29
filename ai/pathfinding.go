package ai

import (
	"container/heap"
	"math"

	"battlecar/world"
)

var directions = [8]world.Cell{
	{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0},
	{X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1},
}

func moveCost(d world.Cell) float64 {
	if d.X != 0 && d.Y != 0 {
		return DiagonalCost
	}
	return 1.0
}

// Pathfinder runs A* over a blocked-cell grid covering the arena.
type Pathfinder struct {
	w, h    int
	blocked []bool
}

func NewPathfinder(a world.Arena) *Pathfinder {
	w, h := a.GridDims()
	return &Pathfinder{w: w, h: h, blocked: make([]bool, w*h)}
}

func (p *Pathfinder) inBounds(c world.Cell) bool {
	return c.X >= 0 && c.X < p.w && c.Y >= 0 && c.Y < p.h
}

func (p *Pathfinder) Blocked(c world.Cell) bool {
	return p.inBounds(c) && p.blocked[c.Y*p.w+c.X]
}

// UpdateObstacles rebuilds the grid, blocking every cell an obstacle touches
// plus ObstaclePadding cells around it.
func (p *Pathfinder) UpdateObstacles(obstacles []world.Obstacle) {
	clear(p.blocked)
	for _, o := range obstacles {
		lo := world.WorldToGrid(world.Vec{X: o.Left() - 0.1, Y: o.Top() - 0.1})
		hi := world.WorldToGrid(world.Vec{X: o.Right() + 0.1, Y: o.Bottom() + 0.1})
		for gx := lo.X - ObstaclePadding; gx <= hi.X+ObstaclePadding; gx++ {
			for gy := lo.Y - ObstaclePadding; gy <= hi.Y+ObstaclePadding; gy++ {
				if c := (world.Cell{X: gx, Y: gy}); p.inBounds(c) {
					p.blocked[gy*p.w+gx] = true
				}
			}
		}
	}
}

func heuristic(a, b world.Cell) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func (p *Pathfinder) clampCell(c world.Cell) world.Cell {
	return world.Cell{
		X: max(0, min(c.X, p.w-1)),
		Y: max(0, min(c.Y, p.h-1)),
	}
}

// FindPath returns cell-center waypoints from start to end, both included.
// Blocked endpoints are moved to the nearest free cell; an empty result means
// no route exists.
func (p *Pathfinder) FindPath(start, end world.Vec) []world.Vec {
	if p.w == 0 || p.h == 0 {
		return nil
	}
	s := p.clampCell(world.WorldToGrid(start))
	e := p.clampCell(world.WorldToGrid(end))

	if p.Blocked(s) {
		free, ok := p.nearestFree(s, e)
		if !ok {
			return nil
		}
		s = free
	}
	if p.Blocked(e) {
		free, ok := p.nearestFree(e, s)
		if !ok {
			return nil
		}
		e = free
	}
	if s == e {
		return []world.Vec{world.GridToWorld(e)}
	}

	open := &nodeHeap{}
	cameFrom := map[world.Cell]world.Cell{}
	gScore := map[world.Cell]float64{s: 0}
	closed := map[world.Cell]bool{}

	h0 := heuristic(s, e)
	heap.Push(open, node{cell: s, f: h0, h: h0})

	for open.Len() > 0 {
		cur := heap.Pop(open).(node)
		if cur.cell == e {
			return reconstruct(cameFrom, s, e)
		}
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true

		for _, d := range directions {
			nb := world.Cell{X: cur.cell.X + d.X, Y: cur.cell.Y + d.Y}
			if !p.inBounds(nb) || p.Blocked(nb) {
				continue
			}
			g := gScore[cur.cell] + moveCost(d)
			if old, seen := gScore[nb]; !seen || g < old {
				cameFrom[nb] = cur.cell
				gScore[nb] = g
				h := heuristic(nb, e)
				heap.Push(open, node{cell: nb, f: g + h, h: h})
			}
		}
	}
	return nil
}

func reconstruct(cameFrom map[world.Cell]world.Cell, start, end world.Cell) []world.Vec {
	var rev []world.Vec
	for c := end; ; {
		rev = append(rev, world.GridToWorld(c))
		if c == start {
			break
		}
		c = cameFrom[c]
	}
	path := make([]world.Vec, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = v
	}
	return path
}

// nearestFree searches outward from a blocked cell, preferring cells that
// head toward target, within half the larger grid dimension.
func (p *Pathfinder) nearestFree(from, target world.Cell) (world.Cell, bool) {
	radius := float64(max(p.w, p.h) / 2)
	visited := map[world.Cell]bool{from: true}
	q := &nodeHeap{}
	heap.Push(q, node{cell: from, f: heuristic(from, target)})

	for q.Len() > 0 {
		cur := heap.Pop(q).(node)
		if !p.Blocked(cur.cell) {
			return cur.cell, true
		}
		if cur.g >= radius {
			continue
		}
		for _, d := range directions {
			nb := world.Cell{X: cur.cell.X + d.X, Y: cur.cell.Y + d.Y}
			if !p.inBounds(nb) || visited[nb] {
				continue
			}
			visited[nb] = true
			g := cur.g + moveCost(d)
			heap.Push(q, node{cell: nb, f: g + heuristic(nb, target), h: g, g: g})
		}
	}
	return world.Cell{}, false
}

type node struct {
	cell world.Cell
	f, h float64
	g    float64
}

// nodeHeap orders by f, breaking ties on the lower h.
type nodeHeap []node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].h < h[j].h
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
