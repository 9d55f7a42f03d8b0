package world

import (
	"fmt"
	"strings"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/buildable"
	"islebuild.ai/internal/sim/catalogs"
)

// IslandAt implements buildable.Provider.
func (w *World) IslandAt(p geom.Point) (buildable.Island, bool) {
	is := w.islandAt(p)
	if is == nil {
		return nil, false
	}
	return is, true
}

func (w *World) islandAt(p geom.Point) *Island {
	if w.ground.Get(p) == 0 {
		return nil
	}
	for _, is := range w.islands {
		if is.Bounds.Contains(p) {
			return is
		}
	}
	return nil
}

func (is *Island) ID() string { return is.id }

func (is *Island) TileAt(p geom.Point) (buildable.Tile, bool) {
	if !is.Bounds.Contains(p) {
		return buildable.Tile{}, false
	}
	g := is.w.ground.Get(p)
	if g == 0 {
		return buildable.Tile{}, false
	}
	def, ok := is.w.catalogs.Grounds.ByIndex(g)
	if !ok {
		return buildable.Tile{}, false
	}
	t := buildable.Tile{Ground: def.ID, Classes: def.Classes}
	if id, ok := is.w.occupied[p]; ok {
		s := is.w.structures[id]
		bdef, _ := is.w.catalogs.Buildings.Building(s.Type)
		t.Occupant = &buildable.Occupant{ID: s.ID, Type: s.Type, Classes: bdef.Classes}
	}
	return t, true
}

func (is *Island) SettlementsIn(r geom.Rect) []string {
	var out []string
	for _, s := range is.settlements {
		if s.Area.Intersects(r) {
			out = append(out, s.ID)
		}
	}
	return out
}

// AddIsland reserves bounds for a new island. Bounds of different islands
// must not overlap.
func (w *World) AddIsland(id string, center geom.Point, bounds geom.Rect) (*Island, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("island id must not be empty")
	}
	for _, is := range w.islands {
		if is.id == id {
			return nil, fmt.Errorf("duplicate island id: %s", id)
		}
		if is.Bounds.Intersects(bounds) {
			return nil, fmt.Errorf("island %s overlaps %s", id, is.id)
		}
	}
	is := &Island{w: w, id: id, Center: center, Bounds: bounds}
	w.islands = append(w.islands, is)
	return is, nil
}

// SetGround paints one island tile; NONE removes it.
func (w *World) SetGround(islandID string, p geom.Point, ground string) error {
	is := w.island(islandID)
	if is == nil {
		return fmt.Errorf("island %s: %w", islandID, ErrNotFound)
	}
	if !is.Bounds.Contains(p) {
		return fmt.Errorf("island %s: %v outside bounds", islandID, p)
	}
	g, ok := w.catalogs.Grounds.Index[ground]
	if !ok {
		return fmt.Errorf("unknown ground %q", ground)
	}
	if ground == catalogs.GroundNone {
		if _, occ := w.occupied[p]; occ {
			return fmt.Errorf("island %s: %v: %w", islandID, p, ErrBlocked)
		}
	}
	w.ground.Set(p, g)
	return nil
}

func (w *World) AddSettlement(islandID string, s Settlement) error {
	is := w.island(islandID)
	if is == nil {
		return fmt.Errorf("island %s: %w", islandID, ErrNotFound)
	}
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("settlement id must not be empty")
	}
	for _, o := range w.islands {
		for _, existing := range o.settlements {
			if existing.ID == s.ID {
				return fmt.Errorf("duplicate settlement id: %s", s.ID)
			}
		}
	}
	is.settlements = append(is.settlements, s)
	return nil
}

func (w *World) island(id string) *Island {
	for _, is := range w.islands {
		if is.id == id {
			return is
		}
	}
	return nil
}
