package world

// LineOfSightBlocked samples the segment every RayStep px, starting RayStep
// from the origin, and reports whether any sample falls inside an obstacle.
func LineOfSightBlocked(from, to Vec, obstacles []Obstacle) bool {
	dist := Distance(from, to)
	if dist < 1.0 {
		return false
	}
	dir := to.Sub(from).Normalize()
	for d := RayStep; d < dist; d += RayStep {
		p := from.Add(dir.Scale(d))
		for _, o := range obstacles {
			if o.Contains(p) {
				return true
			}
		}
	}
	return false
}

type Laser struct {
	Start Vec  `json:"start"`
	End   Vec  `json:"end"`
	Hit   bool `json:"hit"` // target reached unobstructed and in range
}

// TraceLaser casts a beam from source toward target, clipped to maxLen and
// stopped at the first obstacle. The visible start is pushed offset px along
// the beam so it leaves the car body.
func TraceLaser(source, target Vec, maxLen, offset float64, obstacles []Obstacle) Laser {
	dist := Distance(source, target)
	dir := target.Sub(source).Normalize()
	length := min(dist, maxLen)

	end := source.Add(dir.Scale(length))
	blocked := false
	for d := RayStep; d < length && !blocked; d += RayStep {
		p := source.Add(dir.Scale(d))
		for _, o := range obstacles {
			if o.Contains(p) {
				end = p
				blocked = true
				break
			}
		}
	}
	return Laser{
		Start: source.Add(dir.Scale(offset)),
		End:   end,
		Hit:   !blocked && dist <= maxLen,
	}
}
