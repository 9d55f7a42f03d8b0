package world

import (
	"fmt"
	"math"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/catalogs"
	"islebuild.ai/internal/sim/world/terrain/gen"
)

const (
	groundGrass   = "GRASS"
	groundSand    = "SAND"
	groundRock    = "ROCK"
	groundShallow = "SHALLOW"

	buildingTree = "TREE"
)

// Generate builds a deterministic archipelago from cfg.Gen: islands on a
// square grid, a jittered coastline of shallow water and sand, rock
// outcrops, a forest cover of TREE structures and one settlement zone
// centred on every island.
func Generate(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	w, err := New(cfg, cats)
	if err != nil {
		return nil, err
	}
	for _, g := range []string{groundGrass, groundSand, groundRock, groundShallow} {
		if _, ok := cats.Grounds.Index[g]; !ok {
			return nil, fmt.Errorf("world %s: grounds.json: missing %s", cfg.ID, g)
		}
	}
	tree, hasTree := cats.Buildings.Building(buildingTree)

	g := cfg.Gen
	cols := int(math.Ceil(math.Sqrt(float64(g.Islands))))
	for i := 0; i < g.Islands; i++ {
		center := geom.Point{X: (i % cols) * g.IslandSpacing, Y: (i / cols) * g.IslandSpacing}
		r := g.IslandRadius
		bounds := geom.Rect{Left: center.X - r, Top: center.Y - r, Right: center.X + r, Bottom: center.Y + r}
		id := fmt.Sprintf("I%d", i)
		if _, err := w.AddIsland(id, center, bounds); err != nil {
			return nil, fmt.Errorf("world %s: %w", cfg.ID, err)
		}
		for _, c := range bounds.Cells() {
			ground := pickGround(g.Seed, center, c, r, g.RockPermille)
			if ground == "" {
				continue
			}
			if err := w.SetGround(id, c, ground); err != nil {
				return nil, fmt.Errorf("world %s: %w", cfg.ID, err)
			}
		}

		sr := g.SettlementRadius
		if err := w.AddSettlement(id, Settlement{
			ID:   fmt.Sprintf("S%d", i),
			Area: geom.Rect{Left: center.X - sr, Top: center.Y - sr, Right: center.X + sr, Bottom: center.Y + sr},
		}); err != nil {
			return nil, fmt.Errorf("world %s: %w", cfg.ID, err)
		}

		if !hasTree {
			continue
		}
		for _, c := range bounds.Cells() {
			if geom.AbsInt(c.X-center.X) <= 1 && geom.AbsInt(c.Y-center.Y) <= 1 {
				continue
			}
			if w.groundID(c) != groundGrass || !forested(g.Seed, c, g.TreePermille) {
				continue
			}
			if _, err := w.Place(tree, c, cfg.DefaultRotation, ""); err != nil {
				return nil, fmt.Errorf("world %s: %w", cfg.ID, err)
			}
		}
	}
	w.publishMetrics(w.Metrics())
	return w, nil
}

func pickGround(seed int64, center, c geom.Point, r, rockPermille int) string {
	coast := gen.CoastRadius(seed, center, c.X, c.Y, r)
	switch {
	case !gen.WithinRadius(center, c.X, c.Y, coast):
		return ""
	case !gen.WithinRadius(center, c.X, c.Y, coast-1):
		return groundShallow
	case !gen.WithinRadius(center, c.X, c.Y, coast-3):
		return groundSand
	case gen.InCluster(seed^0x524f434b, c.X, c.Y, 12, 2, uint64(gen.ClampPermille(rockPermille*4))):
		return groundRock
	default:
		return groundGrass
	}
}

func forested(seed int64, c geom.Point, permille int) bool {
	if gen.InCluster(seed^0x54524545, c.X, c.Y, 8, 3, 500) {
		return gen.Roll(seed, c.X, c.Y, permille*4)
	}
	return gen.Roll(seed, c.X, c.Y, permille/4)
}

func (w *World) groundID(p geom.Point) string {
	def, ok := w.catalogs.Grounds.ByIndex(w.ground.Get(p))
	if !ok {
		return catalogs.GroundNone
	}
	return def.ID
}
