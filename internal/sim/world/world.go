package world

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/buildable"
	"islebuild.ai/internal/sim/catalogs"
	"islebuild.ai/internal/sim/world/terrain/store"
)

var (
	ErrUnknownBuilding = errors.New("unknown building")
	ErrGestureTooLarge = errors.New("gesture too large")
	ErrBlocked         = errors.New("space occupied")
	ErrNotFound        = errors.New("not found")
)

type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	ground     *store.ChunkStore
	islands    []*Island
	structures map[string]*Structure
	occupied   map[geom.Point]string

	nextStructureNum int
	planner          *buildable.Planner

	metrics atomic.Value // WorldMetrics

	requestLogger RequestLogger
	auditLogger   AuditLogger

	preview chan PreviewRequest
	build   chan BuildRequest
	stop    chan struct{}
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("world %s: nil catalogs", cfg.ID)
	}
	w := &World{
		cfg:        cfg,
		catalogs:   cats,
		ground:     store.NewChunkStore(),
		structures: map[string]*Structure{},
		occupied:   map[geom.Point]string{},
		preview:    make(chan PreviewRequest, 64),
		build:      make(chan BuildRequest, 64),
		stop:       make(chan struct{}),
	}
	w.planner = buildable.NewPlanner(w, cats.Buildings)
	w.publishMetrics(WorldMetrics{})
	return w, nil
}

func (w *World) ID() string                     { return w.cfg.ID }
func (w *World) Catalogs() *catalogs.Catalogs   { return w.catalogs }
func (w *World) Preview() chan<- PreviewRequest { return w.preview }
func (w *World) Build() chan<- BuildRequest     { return w.build }

// GroundDigest hashes the ground layer.
func (w *World) GroundDigest() string { return w.ground.Digest() }

// Run owns the world: every preview and build is served from this goroutine,
// one request at a time.
func (w *World) Run(ctx context.Context) error {
	m := w.Metrics()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.preview:
			start := time.Now()
			resp := w.handlePreview(req)
			m.PreviewsTotal++
			if resp.Err != nil {
				m.ErrorsTotal++
			}
			m.LastRequestMS = float64(time.Since(start).Microseconds()) / 1000
			w.publishMetrics(m)
			req.Resp <- resp
		case req := <-w.build:
			start := time.Now()
			resp := w.handleBuild(req)
			m.BuildsTotal++
			if resp.Err != nil {
				m.ErrorsTotal++
			}
			m.PlacedTotal += uint64(len(resp.Report.Placed))
			m.TornTotal += uint64(len(resp.Report.Torn))
			m.LastRequestMS = float64(time.Since(start).Microseconds()) / 1000
			w.publishMetrics(m)
			req.Resp <- resp
		}
	}
}

func (w *World) Stop() { close(w.stop) }

func (w *World) Islands() []IslandInfo {
	out := make([]IslandInfo, 0, len(w.islands))
	for _, is := range w.islands {
		out = append(out, IslandInfo{
			ID:          is.id,
			Bounds:      is.Bounds,
			Settlements: append([]Settlement(nil), is.settlements...),
		})
	}
	return out
}

func (w *World) Structures() []Structure {
	out := make([]Structure, 0, len(w.structures))
	for _, s := range w.structures {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) newStructureID() string {
	w.nextStructureNum++
	return fmt.Sprintf("B%06d", w.nextStructureNum)
}

func (w *World) Seed() int64 { return w.cfg.Gen.Seed }
