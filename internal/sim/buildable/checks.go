package buildable

import (
	"github.com/samber/lo"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/catalogs"
)

// Verdict is the outcome of a single requirement check.
type Verdict uint8

const (
	// Continue passes the (possibly updated) state to the next check.
	Continue Verdict = iota
	// Reject stops evaluation; the state is recorded with Buildable=false.
	Reject
	// Drop stops evaluation and discards the candidate entirely.
	Drop
)

func (v Verdict) String() string {
	switch v {
	case Continue:
		return "continue"
	case Reject:
		return "reject"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// Checker evaluates placement requirements for one building type.
type Checker struct {
	World Provider
	Def   catalogs.BuildingDef
	Units UnitCheck
}

type check func(c *Checker, st Result, island Island) (Result, Island, Verdict)

var requirementChecks = []check{
	(*Checker).checkIsland,
	(*Checker).checkSettlement,
	(*Checker).checkGround,
	(*Checker).checkOccupants,
	(*Checker).checkUnits,
}

// Evaluate runs every requirement for a footprint anchored at anchor. The
// boolean is false when the candidate is dropped and must not be recorded.
// A nil session skips the same-drag conflict check.
func (c *Checker) Evaluate(anchor geom.Point, opts Options, session *Session) (Result, bool) {
	st := Result{Anchor: anchor, Buildable: true, Rotation: opts.Rotation}
	var island Island
	var v Verdict
	for _, fn := range requirementChecks {
		st, island, v = fn(c, st, island)
		switch v {
		case Drop:
			return Result{}, false
		case Reject:
			st.Buildable = false
			return st, true
		}
	}
	if session != nil {
		if st, v = checkMulti(session.Results(), st); v != Continue {
			if v == Drop {
				return Result{}, false
			}
			st.Buildable = false
		}
	}
	return st, true
}

func (c *Checker) footprint(anchor geom.Point) geom.Rect {
	return geom.RectAt(anchor, c.Def.Size[0], c.Def.Size[1])
}

func (c *Checker) checkIsland(st Result, _ Island) (Result, Island, Verdict) {
	island, ok := c.World.IslandAt(st.Anchor)
	if !ok || island == nil {
		return st, nil, Reject
	}
	for _, p := range c.footprint(st.Anchor).Cells() {
		if _, ok := island.TileAt(p); !ok {
			return st, nil, Reject
		}
	}
	st.Island = island.ID()
	return st, island, Continue
}

func (c *Checker) checkSettlement(st Result, island Island) (Result, Island, Verdict) {
	settlements := lo.Uniq(island.SettlementsIn(c.footprint(st.Anchor)))
	if len(settlements) != 1 {
		return st, island, Reject
	}
	st.Settlement = settlements[0]
	return st, island, Continue
}

func (c *Checker) checkGround(st Result, island Island) (Result, Island, Verdict) {
	for _, p := range c.footprint(st.Anchor).Cells() {
		t, _ := island.TileAt(p)
		if !t.HasClass(ClassConstructible) {
			return st, island, Reject
		}
	}
	return st, island, Continue
}

func (c *Checker) checkOccupants(st Result, island Island) (Result, Island, Verdict) {
	tear := []string{}
	for _, p := range c.footprint(st.Anchor).Cells() {
		t, _ := island.TileAt(p)
		o := t.Occupant
		if o == nil {
			continue
		}
		if !o.HasClass(ClassGrowing) {
			return st, island, Reject
		}
		if o.Type == c.Def.ID {
			// Same growing building already stands here.
			return st, island, Drop
		}
		tear = append(tear, o.ID)
	}
	st.Tear = lo.Uniq(tear)
	return st, island, Continue
}

func (c *Checker) checkUnits(st Result, island Island) (Result, Island, Verdict) {
	if c.Units != nil && c.Units(island, c.footprint(st.Anchor)) {
		return st, island, Reject
	}
	return st, island, Continue
}
