package buildable

import (
	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/catalogs"
)

// Line lays connector buildings along an L: first along x at the start row,
// then along y at the end column. Each recorded result carries an action
// code naming the sides it connects to (a, b, c, d and pairs of them).
func (p *Planner) Line(def catalogs.BuildingDef, p1, p2 geom.Vec2, opts Options) ([]Result, error) {
	if err := p.validate(def, p1, p2); err != nil {
		return nil, err
	}
	opts.Rotation = DefaultLineRotation
	a, b := p1.Round(), p2.Round()
	c := p.checker(def)
	s := &Session{}

	stepX := step(b.X > a.X)
	for x := a.X; x != b.X; x += stepX {
		r, ok := c.Evaluate(geom.Point{X: x, Y: a.Y}, opts, s)
		if !ok {
			continue
		}
		r.Action = horizontalAction(s.Len() == 0, a, b)
		s.Append(r)
	}

	stepY := step(b.Y > a.Y)
	for y := a.Y; y != b.Y+stepY; y += stepY {
		action := verticalAction(s.Len() == 0, y, a, b)
		r, ok := c.Evaluate(geom.Point{X: b.X, Y: y}, opts, s)
		if !ok {
			continue
		}
		r.Action = action
		s.Append(r)
	}
	return s.Results(), nil
}

func step(forward bool) int {
	if forward {
		return 1
	}
	return -1
}

func horizontalAction(first bool, a, b geom.Point) string {
	if !first {
		return "bd"
	}
	if b.X < a.X {
		return "d"
	}
	return "b"
}

func verticalAction(first bool, y int, a, b geom.Point) string {
	switch {
	case first:
		if y == b.Y {
			return "ac"
		}
		if b.Y > a.Y {
			return "c"
		}
		return "a"
	case y == b.Y:
		if a.Y == b.Y {
			if b.X > a.X {
				return "d"
			}
			return "b"
		}
		if b.Y > a.Y {
			return "a"
		}
		return "c"
	case y == a.Y:
		// Corner between the two legs.
		if b.X > a.X {
			if b.Y > a.Y {
				return "cd"
			}
			return "ad"
		}
		if b.Y > a.Y {
			return "bc"
		}
		return "ab"
	default:
		return "ac"
	}
}
