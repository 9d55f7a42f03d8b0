package ws

import (
	"github.com/samber/lo"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/protocol"
	"islebuild.ai/internal/sim/buildable"
	"islebuild.ai/internal/sim/world"
)

func welcomeFor(w *world.World, tuningDigest string) protocol.WelcomeMsg {
	cats := w.Catalogs()
	buildings := lo.Map(cats.Buildings.IDs(), func(id string, _ int) protocol.BuildingRef {
		d := cats.Buildings.ByID[id]
		return protocol.BuildingRef{ID: d.ID, Size: d.Size, Shape: d.Shape}
	})
	islands := lo.Map(w.Islands(), func(is world.IslandInfo, _ int) protocol.IslandRef {
		return protocol.IslandRef{
			ID:          is.ID,
			Bounds:      [4]int{is.Bounds.Left, is.Bounds.Top, is.Bounds.Right, is.Bounds.Bottom},
			Settlements: lo.Map(is.Settlements, func(s world.Settlement, _ int) string { return s.ID }),
		}
	})
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		WorldID:         w.ID(),
		Seed:            w.Seed(),
		Catalogs: protocol.CatalogDigests{
			Buildings:     protocol.DigestRef{Digest: cats.Buildings.Digest, Count: len(cats.Buildings.ByID)},
			GroundPalette: protocol.DigestRef{Digest: cats.Grounds.PaletteDigest, Count: len(cats.Grounds.Palette)},
			GroundDefs:    cats.Grounds.DefsDigest,
			TuningDigest:  tuningDigest,
		},
		GroundDigest: w.GroundDigest(),
		Buildings:    buildings,
		Islands:      islands,
	}
}

func placements(results []buildable.Result) []protocol.Placement {
	return lo.Map(results, func(r buildable.Result, _ int) protocol.Placement {
		return protocol.Placement{
			Anchor:     cell(r.Anchor),
			Buildable:  r.Buildable,
			Island:     r.Island,
			Settlement: r.Settlement,
			Tear:       r.Tear,
			Action:     r.Action,
			Building:   r.Building,
			Rotation:   r.Rotation,
		}
	})
}

func buildResult(reqID string, resp world.BuildResponse) protocol.BuildResultMsg {
	return protocol.BuildResultMsg{
		Type:            protocol.TypeBuildResult,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Building:        resp.Building,
		Results:         placements(resp.Results),
		Placed: lo.Map(resp.Report.Placed, func(s world.Structure, _ int) protocol.PlacedRef {
			return protocol.PlacedRef{ID: s.ID, Type: s.Type, Anchor: cell(s.Anchor), Rotation: s.Rotation, Action: s.Action}
		}),
		Torn:    lo.Ternary(resp.Report.Torn == nil, []string{}, resp.Report.Torn),
		Skipped: lo.Map(resp.Report.Skipped, func(p geom.Point, _ int) [2]int { return cell(p) }),
	}
}

func cell(p geom.Point) [2]int { return [2]int{p.X, p.Y} }
