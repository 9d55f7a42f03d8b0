package world

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/samber/lo"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/buildable"
	"islebuild.ai/internal/sim/catalogs"
)

func (w *World) handlePreview(req PreviewRequest) PreviewResponse {
	def, results, err := w.buildList(req.Building, req.P1, req.P2, req.Rotation)
	w.logRequest(RequestLogEntry{
		Kind:      "PREVIEW",
		Building:  req.Building,
		P1:        req.P1,
		P2:        req.P2,
		Rotation:  req.Rotation,
		Results:   len(results),
		Buildable: countBuildable(results),
	}, err)
	return PreviewResponse{Building: def.ID, Results: results, Err: err}
}

// handleBuild recomputes the build list against the current world and
// applies it; a stale client preview is never trusted.
func (w *World) handleBuild(req BuildRequest) BuildResponse {
	entry := RequestLogEntry{Kind: "BUILD", Building: req.Building, P1: req.P1, P2: req.P2, Rotation: req.Rotation}
	def, results, err := w.buildList(req.Building, req.P1, req.P2, req.Rotation)
	if err != nil {
		w.logRequest(entry, err)
		return BuildResponse{Building: req.Building, Err: err}
	}
	rep, err := w.Apply(def, results)
	entry.Results = len(results)
	entry.Buildable = countBuildable(results)
	entry.StateDigest = w.StateDigest()
	w.logRequest(entry, err)
	return BuildResponse{Building: def.ID, Results: results, Report: rep, Err: err}
}

// ReplayBuild re-applies a logged BUILD and returns the resulting state
// digest. It must not be called while Run is serving the world.
func (w *World) ReplayBuild(e RequestLogEntry) (BuildResponse, string) {
	resp := w.handleBuild(BuildRequest{Building: e.Building, P1: e.P1, P2: e.P2, Rotation: e.Rotation})
	return resp, w.StateDigest()
}

// StateDigest hashes every structure in id order.
func (w *World) StateDigest() string {
	h := sha256.New()
	for _, s := range w.Structures() {
		fmt.Fprintf(h, "%s|%s|%s|%d|%d|%d|%s\n", s.ID, s.Type, s.Island, s.Anchor.X, s.Anchor.Y, s.Rotation, s.Action)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) buildList(building string, p1, p2 geom.Vec2, rotation *int) (catalogs.BuildingDef, []buildable.Result, error) {
	def, ok := w.catalogs.Buildings.Building(building)
	if !ok {
		return catalogs.BuildingDef{ID: building}, nil, fmt.Errorf("%w: %q", ErrUnknownBuilding, building)
	}
	if n := gestureCells(def.Shape, p1, p2); w.cfg.MaxGestureCells > 0 && n > w.cfg.MaxGestureCells {
		return def, nil, fmt.Errorf("%w: %d cells (max %d)", ErrGestureTooLarge, n, w.cfg.MaxGestureCells)
	}
	opts := buildable.Options{Rotation: w.cfg.DefaultRotation}
	if rotation != nil {
		opts.Rotation = *rotation
	}
	results, err := w.planner.BuildList(def, p1, p2, opts)
	return def, results, err
}

func countBuildable(results []buildable.Result) int {
	return lo.CountBy(results, func(r buildable.Result) bool { return r.Buildable })
}

// gestureCells estimates how many anchors a gesture visits. Non-finite
// points are left for the planner to reject.
// gestureCells counts the cells a rect or line gesture visits. Pointers out
// of range count as zero and are rejected by the planner instead.
func gestureCells(shape string, p1, p2 geom.Vec2) int {
	if !p1.InRange() || !p2.InRange() {
		return 0
	}
	switch shape {
	case catalogs.ShapeRect, catalogs.ShapeLine:
	default:
		return 1
	}
	a, b := p1.Round(), p2.Round()
	dx := geom.AbsInt(a.X-b.X) + 1
	dy := geom.AbsInt(a.Y-b.Y) + 1
	if dx > 1<<20 || dy > 1<<20 {
		return math.MaxInt
	}
	if shape == catalogs.ShapeLine {
		return dx + dy - 1
	}
	return dx * dy
}
