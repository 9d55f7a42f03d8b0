package buildable

import (
	"fmt"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/catalogs"
)

// Planner turns pointer gestures into build lists.
type Planner struct {
	World     Provider
	Buildings Registry
	Units     UnitCheck
}

func NewPlanner(world Provider, buildings Registry) *Planner {
	return &Planner{World: world, Buildings: buildings}
}

// BuildList dispatches on the building's configured shape.
func (p *Planner) BuildList(def catalogs.BuildingDef, p1, p2 geom.Vec2, opts Options) ([]Result, error) {
	switch def.Shape {
	case catalogs.ShapeSingle, "":
		return p.Single(def, p1, p2, opts)
	case catalogs.ShapeRect:
		return p.Rect(def, p1, p2, opts)
	case catalogs.ShapeLine:
		return p.Line(def, p1, p2, opts)
	case catalogs.ShapeSingleSurrounding:
		return p.SingleWithSurrounding(def, p1, p2, opts)
	default:
		return nil, fmt.Errorf("%w: building %s: unknown shape %q", ErrInvalid, def.ID, def.Shape)
	}
}

// Single places one footprint centred on p2. The drag start is ignored.
func (p *Planner) Single(def catalogs.BuildingDef, p1, p2 geom.Vec2, opts Options) ([]Result, error) {
	if err := p.validate(def, p1, p2); err != nil {
		return nil, err
	}
	r, ok := p.checker(def).Evaluate(centeredAnchor(def, p2), opts, nil)
	if !ok {
		return nil, nil
	}
	return []Result{r}, nil
}

// Rect visits every cell of the rounded bounding box, x outer, y inner.
func (p *Planner) Rect(def catalogs.BuildingDef, p1, p2 geom.Vec2, opts Options) ([]Result, error) {
	if err := p.validate(def, p1, p2); err != nil {
		return nil, err
	}
	a, b := p1.Round(), p2.Round()
	box := geom.Rect{
		Left:   geom.MinInt(a.X, b.X),
		Top:    geom.MinInt(a.Y, b.Y),
		Right:  geom.MaxInt(a.X, b.X),
		Bottom: geom.MaxInt(a.Y, b.Y),
	}
	c := p.checker(def)
	s := &Session{}
	for _, cell := range box.Cells() {
		if r, ok := c.Evaluate(cell, opts, s); ok {
			s.Append(r)
		}
	}
	return s.Results(), nil
}

// SingleWithSurrounding places def centred on p2 plus its companion building
// on every cell within def.Radius of the footprint.
func (p *Planner) SingleWithSurrounding(def catalogs.BuildingDef, p1, p2 geom.Vec2, opts Options) ([]Result, error) {
	if err := p.validate(def, p1, p2); err != nil {
		return nil, err
	}
	if def.Radius < 0 {
		return nil, fmt.Errorf("%w: building %s: negative radius %d", ErrInvalid, def.ID, def.Radius)
	}
	if p.Buildings == nil {
		return nil, fmt.Errorf("%w: no building registry", ErrInvalid)
	}
	companion, ok := p.Buildings.Building(def.Surrounding)
	if !ok {
		return nil, fmt.Errorf("%w: building %s: unknown surrounding building %q", ErrInvalid, def.ID, def.Surrounding)
	}
	if err := validateDef(companion); err != nil {
		return nil, err
	}

	anchor := centeredAnchor(def, p2)
	primary, ok := p.checker(def).Evaluate(anchor, opts, nil)
	if !ok || !primary.Buildable {
		return nil, nil
	}
	out := []Result{primary}

	w, h, radius := def.Size[0], def.Size[1], def.Radius
	foot := geom.RectAt(anchor, w, h)
	cc := p.checker(companion)
	for xx := anchor.X - radius; xx < anchor.X+w+radius; xx++ {
		for yy := anchor.Y - radius; yy < anchor.Y+h+radius; yy++ {
			cell := geom.Point{X: xx, Y: yy}
			if foot.Contains(cell) {
				continue
			}
			dx := geom.MaxInt(anchor.X-xx, 0, xx-anchor.X-w+1)
			dy := geom.MaxInt(anchor.Y-yy, 0, yy-anchor.Y-h+1)
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			r, ok := cc.Evaluate(cell, opts, nil)
			if !ok {
				continue
			}
			r.Building = companion.ID
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *Planner) checker(def catalogs.BuildingDef) *Checker {
	return &Checker{World: p.World, Def: def, Units: p.Units}
}

func (p *Planner) validate(def catalogs.BuildingDef, p1, p2 geom.Vec2) error {
	if p == nil || p.World == nil {
		return fmt.Errorf("%w: no spatial provider", ErrInvalid)
	}
	if !p1.InRange() || !p2.InRange() {
		return fmt.Errorf("%w: pointer %v -> %v outside ±%d", ErrInvalid, p1, p2, geom.MaxCoord)
	}
	return validateDef(def)
}

func validateDef(def catalogs.BuildingDef) error {
	if def.Size[0] <= 0 || def.Size[1] <= 0 {
		return fmt.Errorf("%w: building %s: footprint %dx%d", ErrInvalid, def.ID, def.Size[0], def.Size[1])
	}
	return nil
}

func centeredAnchor(def catalogs.BuildingDef, at geom.Vec2) geom.Point {
	return geom.Point{
		X: geom.CenteredAnchor(at.X, def.Size[0]),
		Y: geom.CenteredAnchor(at.Y, def.Size[1]),
	}
}
