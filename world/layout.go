package world

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidLayout = errors.New("invalid layout")

// Layout is a fixed arena with hand-placed obstacles, used instead of
// random generation.
type Layout struct {
	Name      string         `yaml:"name"`
	Arena     layoutArena    `yaml:"arena"`
	Obstacles []layoutSquare `yaml:"obstacles"`
}

type layoutArena struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type layoutSquare struct {
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Size float64 `yaml:"size"`
}

func LoadLayout(path string) (*Layout, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	return ParseLayout(b)
}

// ParseLayout decodes YAML and fills defaults: the default arena when none is
// given and ObstacleSize for squares without a size.
func ParseLayout(b []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if l.Arena.Width == 0 && l.Arena.Height == 0 {
		l.Arena = layoutArena{Width: ArenaWidth, Height: ArenaHeight}
	}
	if l.Arena.Width < CarWidth || l.Arena.Height < CarHeight {
		return nil, fmt.Errorf("%w: arena %gx%g too small", ErrInvalidLayout, l.Arena.Width, l.Arena.Height)
	}
	for i := range l.Obstacles {
		sq := &l.Obstacles[i]
		if sq.Size == 0 {
			sq.Size = ObstacleSize
		}
		if sq.Size < 0 || sq.X < 0 || sq.Y < 0 ||
			sq.X+sq.Size > l.Arena.Width || sq.Y+sq.Size > l.Arena.Height {
			return nil, fmt.Errorf("%w: obstacle %d at (%g,%g) size %g outside arena", ErrInvalidLayout, i, sq.X, sq.Y, sq.Size)
		}
	}
	return &l, nil
}

func (l *Layout) ArenaBounds() Arena {
	return Arena{Width: l.Arena.Width, Height: l.Arena.Height}
}

func (l *Layout) Build() []Obstacle {
	out := make([]Obstacle, 0, len(l.Obstacles))
	for _, sq := range l.Obstacles {
		out = append(out, NewObstacle(sq.X, sq.Y, sq.Size))
	}
	return out
}
