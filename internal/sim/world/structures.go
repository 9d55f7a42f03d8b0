package world

import (
	"fmt"

	"github.com/samber/lo"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/buildable"
	"islebuild.ai/internal/sim/catalogs"
)

// Place puts a structure on free island ground. It does no requirement
// checks beyond the footprint being land on a single island and unoccupied.
func (w *World) Place(def catalogs.BuildingDef, anchor geom.Point, rotation int, action string) (Structure, error) {
	if err := w.catalogs.Buildings.Validate(def); err != nil {
		return Structure{}, err
	}
	fp := geom.RectAt(anchor, def.Size[0], def.Size[1])
	is := w.islandAt(anchor)
	if is == nil {
		return Structure{}, fmt.Errorf("place %s at %v: no island", def.ID, anchor)
	}
	for _, c := range fp.Cells() {
		if w.islandAt(c) != is {
			return Structure{}, fmt.Errorf("place %s at %v: footprint leaves island %s", def.ID, anchor, is.id)
		}
		if id, ok := w.occupied[c]; ok {
			return Structure{}, fmt.Errorf("place %s at %v: %w by %s", def.ID, anchor, ErrBlocked, id)
		}
	}
	s := &Structure{
		ID:       w.newStructureID(),
		Type:     def.ID,
		Island:   is.id,
		Anchor:   anchor,
		Size:     def.Size,
		Rotation: rotation,
		Action:   action,
	}
	w.structures[s.ID] = s
	for _, c := range fp.Cells() {
		w.occupied[c] = s.ID
	}
	return *s, nil
}

func (w *World) Remove(id string) error {
	s, ok := w.structures[id]
	if !ok {
		return fmt.Errorf("structure %s: %w", id, ErrNotFound)
	}
	for _, c := range s.Footprint().Cells() {
		if w.occupied[c] == id {
			delete(w.occupied, c)
		}
	}
	delete(w.structures, id)
	return nil
}

// Apply executes a build list: occupants listed for tear-down by buildable
// results are removed first, then the buildable results are placed in order.
// Results whose footprint collides with an earlier placement of the same list
// are skipped.
func (w *World) Apply(def catalogs.BuildingDef, results []buildable.Result) (ApplyReport, error) {
	var rep ApplyReport
	accepted := lo.Filter(results, func(r buildable.Result, _ int) bool { return r.Buildable })

	tear := lo.Uniq(lo.FlatMap(accepted, func(r buildable.Result, _ int) []string { return r.Tear }))
	for _, id := range tear {
		if _, ok := w.structures[id]; !ok {
			continue
		}
		torn := *w.structures[id]
		if err := w.Remove(id); err != nil {
			return rep, err
		}
		w.audit("TEAR", torn)
		rep.Torn = append(rep.Torn, id)
	}

	for _, r := range accepted {
		bdef := def
		if r.Building != "" {
			d, ok := w.catalogs.Buildings.Building(r.Building)
			if !ok {
				return rep, fmt.Errorf("apply: %w: %s", ErrUnknownBuilding, r.Building)
			}
			bdef = d
		}
		s, err := w.Place(bdef, r.Anchor, r.Rotation, r.Action)
		if err != nil {
			rep.Skipped = append(rep.Skipped, r.Anchor)
			continue
		}
		w.audit("PLACE", s)
		rep.Placed = append(rep.Placed, s)
	}
	return rep, nil
}
