package buildable

import (
	"sort"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/catalogs"
)

type fakeIsland struct {
	id          string
	tiles       map[geom.Point]Tile
	settlements map[string]geom.Rect
}

func (i *fakeIsland) ID() string { return i.id }

func (i *fakeIsland) TileAt(p geom.Point) (Tile, bool) {
	t, ok := i.tiles[p]
	return t, ok
}

func (i *fakeIsland) SettlementsIn(r geom.Rect) []string {
	var out []string
	for id, area := range i.settlements {
		if area.Intersects(r) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (i *fakeIsland) occupy(o Occupant, cells ...geom.Point) {
	for _, p := range cells {
		t := i.tiles[p]
		occ := o
		t.Occupant = &occ
		i.tiles[p] = t
	}
}

func (i *fakeIsland) setGround(p geom.Point, ground string, classes ...string) {
	t := i.tiles[p]
	t.Ground = ground
	t.Classes = classes
	i.tiles[p] = t
}

type fakeWorld struct {
	islands []*fakeIsland
}

func (w *fakeWorld) IslandAt(p geom.Point) (Island, bool) {
	for _, is := range w.islands {
		if _, ok := is.tiles[p]; ok {
			return is, true
		}
	}
	return nil, false
}

// newIsland covers area with constructible grass and one settlement
// spanning the whole island.
func newIsland(id string, area geom.Rect) *fakeIsland {
	is := &fakeIsland{
		id:          id,
		tiles:       map[geom.Point]Tile{},
		settlements: map[string]geom.Rect{"S_" + id: area},
	}
	for _, p := range area.Cells() {
		is.tiles[p] = Tile{Ground: "GRASS", Classes: []string{ClassConstructible}}
	}
	return is
}

type registry map[string]catalogs.BuildingDef

func (r registry) Building(id string) (catalogs.BuildingDef, bool) {
	d, ok := r[id]
	return d, ok
}

var testDefs = registry{
	"ROAD":       {ID: "ROAD", Size: [2]int{1, 1}, Shape: catalogs.ShapeLine},
	"WALL":       {ID: "WALL", Size: [2]int{1, 1}, Shape: catalogs.ShapeLine},
	"TREE":       {ID: "TREE", Size: [2]int{1, 1}, Shape: catalogs.ShapeRect, Classes: []string{ClassGrowing}},
	"FRUIT_TREE": {ID: "FRUIT_TREE", Size: [2]int{1, 1}, Shape: catalogs.ShapeRect, Classes: []string{ClassGrowing}},
	"HOUSE":      {ID: "HOUSE", Size: [2]int{2, 2}, Shape: catalogs.ShapeRect},
	"WAREHOUSE":  {ID: "WAREHOUSE", Size: [2]int{3, 3}, Shape: catalogs.ShapeSingle},
	"TOWER":      {ID: "TOWER", Size: [2]int{1, 1}, Shape: catalogs.ShapeSingleSurrounding, Radius: 2, Surrounding: "WALL"},
	"LUMBERJACK": {ID: "LUMBERJACK", Size: [2]int{2, 2}, Shape: catalogs.ShapeSingleSurrounding, Radius: 1, Surrounding: "TREE"},
}

func pt(x, y int) geom.Point { return geom.Point{X: x, Y: y} }

func vec(x, y float64) geom.Vec2 { return geom.Vec2{X: x, Y: y} }

func anchors(rs []Result) []geom.Point {
	out := make([]geom.Point, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Anchor)
	}
	return out
}

func actions(rs []Result) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Action)
	}
	return out
}
