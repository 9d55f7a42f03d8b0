package world

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/buildable"
	"islebuild.ai/internal/sim/catalogs"
	"islebuild.ai/internal/sim/tuning"
)

func loadCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

// newTestWorld returns a world with a single 10x10 grass island "A" covered
// by settlement "SA".
func newTestWorld(t *testing.T) *World {
	t.Helper()
	cfg := ConfigFromTuning("test", tuning.Defaults())
	w, err := New(cfg, loadCatalogs(t))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	area := geom.Rect{Left: 0, Top: 0, Right: 9, Bottom: 9}
	if _, err := w.AddIsland("A", geom.Point{X: 5, Y: 5}, area); err != nil {
		t.Fatalf("add island: %v", err)
	}
	for _, c := range area.Cells() {
		if err := w.SetGround("A", c, "GRASS"); err != nil {
			t.Fatalf("set ground %v: %v", c, err)
		}
	}
	if err := w.AddSettlement("A", Settlement{ID: "SA", Owner: "p1", Area: area}); err != nil {
		t.Fatalf("add settlement: %v", err)
	}
	return w
}

func building(t *testing.T, w *World, id string) catalogs.BuildingDef {
	t.Helper()
	def, ok := w.Catalogs().Buildings.Building(id)
	if !ok {
		t.Fatalf("missing building %s", id)
	}
	return def
}

func TestIslandAtAndTileAt(t *testing.T) {
	w := newTestWorld(t)

	if _, ok := w.IslandAt(geom.Point{X: 10, Y: 0}); ok {
		t.Fatalf("expected no island outside bounds")
	}
	is, ok := w.IslandAt(geom.Point{X: 3, Y: 3})
	if !ok || is.ID() != "A" {
		t.Fatalf("IslandAt=(%v,%v) want A", is, ok)
	}
	tile, ok := is.TileAt(geom.Point{X: 3, Y: 3})
	if !ok || tile.Ground != "GRASS" || !tile.HasClass(buildable.ClassConstructible) || tile.Occupant != nil {
		t.Fatalf("unexpected tile: %+v ok=%v", tile, ok)
	}

	if err := w.SetGround("A", geom.Point{X: 3, Y: 3}, catalogs.GroundNone); err != nil {
		t.Fatalf("clear ground: %v", err)
	}
	if _, ok := w.IslandAt(geom.Point{X: 3, Y: 3}); ok {
		t.Fatalf("expected water after clearing ground")
	}
	if _, ok := is.TileAt(geom.Point{X: 3, Y: 3}); ok {
		t.Fatalf("expected no tile after clearing ground")
	}
}

func TestAddIsland_RejectsOverlap(t *testing.T) {
	w := newTestWorld(t)
	if _, err := w.AddIsland("B", geom.Point{}, geom.Rect{Left: 9, Top: 9, Right: 12, Bottom: 12}); err == nil {
		t.Fatalf("expected overlap error")
	}
	if _, err := w.AddIsland("A", geom.Point{}, geom.Rect{Left: 20, Top: 20, Right: 22, Bottom: 22}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestSettlementsIn(t *testing.T) {
	w := newTestWorld(t)
	if err := w.AddSettlement("A", Settlement{ID: "SB", Area: geom.Rect{Left: 8, Top: 8, Right: 9, Bottom: 9}}); err != nil {
		t.Fatalf("add settlement: %v", err)
	}
	is, _ := w.IslandAt(geom.Point{X: 0, Y: 0})
	if got := is.SettlementsIn(geom.Rect{Left: 0, Top: 0, Right: 1, Bottom: 1}); !cmp.Equal(got, []string{"SA"}) {
		t.Fatalf("settlements=%v", got)
	}
	if got := is.SettlementsIn(geom.Rect{Left: 7, Top: 7, Right: 8, Bottom: 8}); !cmp.Equal(got, []string{"SA", "SB"}) {
		t.Fatalf("settlements=%v", got)
	}
	if err := w.AddSettlement("A", Settlement{ID: "SB"}); err == nil {
		t.Fatalf("expected duplicate settlement error")
	}
}

func TestPlaceAndRemove(t *testing.T) {
	w := newTestWorld(t)
	house := building(t, w, "HOUSE")

	s, err := w.Place(house, geom.Point{X: 2, Y: 2}, 0, "")
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	is, _ := w.IslandAt(geom.Point{X: 3, Y: 3})
	tile, _ := is.TileAt(geom.Point{X: 3, Y: 3})
	if tile.Occupant == nil || tile.Occupant.ID != s.ID || tile.Occupant.Type != "HOUSE" {
		t.Fatalf("unexpected occupant: %+v", tile.Occupant)
	}
	if _, err := w.Place(house, geom.Point{X: 3, Y: 3}, 0, ""); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	if _, err := w.Place(house, geom.Point{X: 9, Y: 9}, 0, ""); err == nil {
		t.Fatalf("expected footprint off island error")
	}

	if err := w.Remove(s.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	tile, _ = is.TileAt(geom.Point{X: 3, Y: 3})
	if tile.Occupant != nil {
		t.Fatalf("occupant not cleared: %+v", tile.Occupant)
	}
	if err := w.Remove(s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApply_TearsBeforePlacing(t *testing.T) {
	w := newTestWorld(t)
	tree, err := w.Place(building(t, w, "TREE"), geom.Point{X: 5, Y: 5}, 0, "")
	if err != nil {
		t.Fatalf("place tree: %v", err)
	}

	def, results, err := w.buildList("HOUSE", geom.Vec2{X: 4, Y: 4}, geom.Vec2{X: 4, Y: 4}, nil)
	if err != nil {
		t.Fatalf("build list: %v", err)
	}
	if len(results) != 1 || !results[0].Buildable || !cmp.Equal(results[0].Tear, []string{tree.ID}) {
		t.Fatalf("unexpected results: %+v", results)
	}

	rep, err := w.Apply(def, results)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !cmp.Equal(rep.Torn, []string{tree.ID}) || len(rep.Placed) != 1 || len(rep.Skipped) != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	is, _ := w.IslandAt(geom.Point{X: 5, Y: 5})
	tile, _ := is.TileAt(geom.Point{X: 5, Y: 5})
	if tile.Occupant == nil || tile.Occupant.Type != "HOUSE" {
		t.Fatalf("expected house at 5,5, got %+v", tile.Occupant)
	}
}

func TestApply_SkipsOverlappingResults(t *testing.T) {
	w := newTestWorld(t)
	def, results, err := w.buildList("HOUSE", geom.Vec2{X: 1, Y: 1}, geom.Vec2{X: 2, Y: 1}, nil)
	if err != nil {
		t.Fatalf("build list: %v", err)
	}
	if len(results) != 2 || !results[0].Buildable || !results[1].Buildable {
		t.Fatalf("unexpected results: %+v", results)
	}
	rep, err := w.Apply(def, results)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(rep.Placed) != 1 || !cmp.Equal(rep.Skipped, []geom.Point{{X: 2, Y: 1}}) {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestApply_SurroundingUsesCompanion(t *testing.T) {
	w := newTestWorld(t)
	def, results, err := w.buildList("TOWER", geom.Vec2{}, geom.Vec2{X: 5, Y: 5}, nil)
	if err != nil {
		t.Fatalf("build list: %v", err)
	}
	rep, err := w.Apply(def, results)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(rep.Placed) != len(results) {
		t.Fatalf("placed %d of %d", len(rep.Placed), len(results))
	}
	if rep.Placed[0].Type != "TOWER" || rep.Placed[1].Type != "WALL" {
		t.Fatalf("unexpected types: %s %s", rep.Placed[0].Type, rep.Placed[1].Type)
	}
}

func TestBuildList_Errors(t *testing.T) {
	w := newTestWorld(t)
	if _, _, err := w.buildList("CASTLE", geom.Vec2{}, geom.Vec2{}, nil); !errors.Is(err, ErrUnknownBuilding) {
		t.Fatalf("expected ErrUnknownBuilding, got %v", err)
	}
	w.cfg.MaxGestureCells = 10
	if _, _, err := w.buildList("TREE", geom.Vec2{}, geom.Vec2{X: 9, Y: 9}, nil); !errors.Is(err, ErrGestureTooLarge) {
		t.Fatalf("expected ErrGestureTooLarge, got %v", err)
	}
	if _, _, err := w.buildList("ROAD", geom.Vec2{}, geom.Vec2{X: 5, Y: 4}, nil); err != nil {
		t.Fatalf("10-cell line should pass: %v", err)
	}
}

func TestHandlePreview_RejectsOutOfRangePointer(t *testing.T) {
	w := newTestWorld(t)
	for _, building := range []string{"HOUSE", "ROAD", "TOWER"} {
		resp := w.handlePreview(PreviewRequest{Building: building, P1: geom.Vec2{X: 1e19}, P2: geom.Vec2{}})
		if !errors.Is(resp.Err, buildable.ErrInvalid) {
			t.Fatalf("%s: err=%v want ErrInvalid", building, resp.Err)
		}
		if len(resp.Results) != 0 {
			t.Fatalf("%s: expected no results, got %d", building, len(resp.Results))
		}
	}
}

func TestGestureCells(t *testing.T) {
	cases := []struct {
		shape  string
		p1, p2 geom.Vec2
		want   int
	}{
		{catalogs.ShapeSingle, geom.Vec2{}, geom.Vec2{X: 100, Y: 100}, 1},
		{catalogs.ShapeRect, geom.Vec2{X: 1, Y: 1}, geom.Vec2{X: 3, Y: 2}, 6},
		{catalogs.ShapeLine, geom.Vec2{X: 1, Y: 1}, geom.Vec2{X: 3, Y: 2}, 4},
		{catalogs.ShapeSingleSurrounding, geom.Vec2{}, geom.Vec2{X: 5, Y: 5}, 1},
		{catalogs.ShapeRect, geom.Vec2{X: 1e19}, geom.Vec2{}, 0},
		{catalogs.ShapeLine, geom.Vec2{X: 1e19}, geom.Vec2{}, 0},
		{catalogs.ShapeRect, geom.Vec2{X: -geom.MaxCoord}, geom.Vec2{X: geom.MaxCoord, Y: geom.MaxCoord}, math.MaxInt},
		{catalogs.ShapeLine, geom.Vec2{X: -geom.MaxCoord}, geom.Vec2{X: geom.MaxCoord}, math.MaxInt},
	}
	for _, tc := range cases {
		if got := gestureCells(tc.shape, tc.p1, tc.p2); got != tc.want {
			t.Fatalf("%s %v->%v: got %d want %d", tc.shape, tc.p1, tc.p2, got, tc.want)
		}
	}
}

func TestRun_PreviewThenBuild(t *testing.T) {
	w := newTestWorld(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	presp := make(chan PreviewResponse, 1)
	w.Preview() <- PreviewRequest{Building: "ROAD", P1: geom.Vec2{X: 1, Y: 1}, P2: geom.Vec2{X: 3, Y: 1}, Resp: presp}
	pr := <-presp
	if pr.Err != nil {
		t.Fatalf("preview: %v", pr.Err)
	}
	var actions []string
	for _, r := range pr.Results {
		actions = append(actions, r.Action)
		if r.Rotation != buildable.DefaultLineRotation {
			t.Fatalf("rotation=%d want %d", r.Rotation, buildable.DefaultLineRotation)
		}
	}
	if diff := cmp.Diff([]string{"b", "bd", "d"}, actions); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}

	bresp := make(chan BuildResponse, 1)
	w.Build() <- BuildRequest{Building: "ROAD", P1: geom.Vec2{X: 1, Y: 1}, P2: geom.Vec2{X: 3, Y: 1}, Resp: bresp}
	br := <-bresp
	if br.Err != nil {
		t.Fatalf("build: %v", br.Err)
	}
	if len(br.Report.Placed) != 3 || br.Report.Placed[1].Action != "bd" {
		t.Fatalf("unexpected report: %+v", br.Report)
	}

	if m := w.Metrics(); m.PreviewsTotal != 1 || m.BuildsTotal != 1 || m.PlacedTotal != 3 || m.Structures != 3 {
		t.Fatalf("unexpected metrics: %+v", m)
	}

	// Same road again is rejected by the occupant check.
	w.Preview() <- PreviewRequest{Building: "ROAD", P1: geom.Vec2{X: 1, Y: 1}, P2: geom.Vec2{X: 3, Y: 1}, Resp: presp}
	pr = <-presp
	for _, r := range pr.Results {
		if r.Buildable {
			t.Fatalf("expected rejection at %v", r.Anchor)
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop")
	}
}

type memLoggers struct {
	requests []RequestLogEntry
	audits   []AuditEntry
}

func (m *memLoggers) WriteRequest(e RequestLogEntry) error {
	m.requests = append(m.requests, e)
	return nil
}

func (m *memLoggers) WriteAudit(e AuditEntry) error {
	m.audits = append(m.audits, e)
	return nil
}

func TestHandleBuild_LogsRequestAndAudit(t *testing.T) {
	w := newTestWorld(t)
	logs := &memLoggers{}
	w.SetLoggers(logs, logs)

	tree, err := w.Place(building(t, w, "TREE"), geom.Point{X: 4, Y: 4}, 0, "")
	if err != nil {
		t.Fatalf("place tree: %v", err)
	}
	resp := w.handleBuild(BuildRequest{Building: "HOUSE", P1: geom.Vec2{X: 4, Y: 4}, P2: geom.Vec2{X: 4, Y: 4}})
	if resp.Err != nil {
		t.Fatalf("build: %v", resp.Err)
	}

	if len(logs.requests) != 1 || logs.requests[0].Kind != "BUILD" || logs.requests[0].Buildable != 1 {
		t.Fatalf("unexpected request log: %+v", logs.requests)
	}
	var got []string
	for _, a := range logs.audits {
		got = append(got, a.Action+":"+a.Building)
	}
	if diff := cmp.Diff([]string{"TEAR:TREE", "PLACE:HOUSE"}, got); diff != "" {
		t.Fatalf("audit mismatch (-want +got):\n%s", diff)
	}
	if logs.audits[0].StructureID != tree.ID {
		t.Fatalf("tear audit id=%s want %s", logs.audits[0].StructureID, tree.ID)
	}

	w.handlePreview(PreviewRequest{Building: "NOPE"})
	if last := logs.requests[len(logs.requests)-1]; last.Kind != "PREVIEW" || last.Error == "" {
		t.Fatalf("expected logged preview error, got %+v", last)
	}
}

func TestReplayBuild_ReproducesStateDigest(t *testing.T) {
	live := newTestWorld(t)
	logs := &memLoggers{}
	live.SetLoggers(logs, nil)

	rot := 90
	live.handleBuild(BuildRequest{Building: "ROAD", P1: geom.Vec2{X: 1, Y: 1}, P2: geom.Vec2{X: 4, Y: 3}})
	live.handleBuild(BuildRequest{Building: "HOUSE", P1: geom.Vec2{X: 6, Y: 6}, P2: geom.Vec2{X: 7, Y: 6}, Rotation: &rot})
	live.handlePreview(PreviewRequest{Building: "TREE", P1: geom.Vec2{}, P2: geom.Vec2{X: 1, Y: 1}})

	replica := newTestWorld(t)
	replayed := 0
	for _, e := range logs.requests {
		if e.Kind != "BUILD" {
			continue
		}
		_, digest := replica.ReplayBuild(e)
		if digest != e.StateDigest {
			t.Fatalf("digest mismatch after %s: got %s want %s", e.Building, digest, e.StateDigest)
		}
		replayed++
	}
	if replayed != 2 {
		t.Fatalf("replayed=%d want 2", replayed)
	}
	if live.StateDigest() != replica.StateDigest() {
		t.Fatalf("final state differs")
	}
	if s := replica.Structures(); s[len(s)-1].Rotation != rot {
		t.Fatalf("rotation not replayed: %+v", s[len(s)-1])
	}
}
