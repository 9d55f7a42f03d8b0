package world

import (
	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/buildable"
)

// Island is a connected landmass; only cells inside Bounds with ground
// other than NONE belong to it.
type Island struct {
	w *World

	id          string
	Center      geom.Point
	Bounds      geom.Rect
	settlements []Settlement
}

type Settlement struct {
	ID    string
	Owner string
	Area  geom.Rect
}

type Structure struct {
	ID       string
	Type     string
	Island   string
	Anchor   geom.Point
	Size     [2]int
	Rotation int
	Action   string
}

func (s *Structure) Footprint() geom.Rect {
	return geom.RectAt(s.Anchor, s.Size[0], s.Size[1])
}

// ApplyReport describes what Apply changed.
type ApplyReport struct {
	Placed  []Structure
	Torn    []string
	Skipped []geom.Point
}

type PreviewRequest struct {
	Building string
	P1, P2   geom.Vec2
	Rotation *int
	Resp     chan PreviewResponse
}

type PreviewResponse struct {
	Building string
	Results  []buildable.Result
	Err      error
}

type BuildRequest struct {
	Building string
	P1, P2   geom.Vec2
	Rotation *int
	Resp     chan BuildResponse
}

type BuildResponse struct {
	Building string
	Results  []buildable.Result
	Report   ApplyReport
	Err      error
}

type IslandInfo struct {
	ID          string
	Bounds      geom.Rect
	Settlements []Settlement
}
