// Package buildable decides whether buildings may be placed on island tiles
// and turns pointer gestures into ordered build lists.
//
// The package only reads the world through Provider; callers apply the
// returned results (tearing down occupants, placing buildings) themselves.
package buildable

import (
	"errors"

	"github.com/samber/lo"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/sim/catalogs"
)

// Capability tags the checks look for.
const (
	ClassConstructible = "constructible"
	ClassGrowing       = "growing"
)

// DefaultLineRotation is the rotation recorded on every line placement.
const DefaultLineRotation = 45

// ErrInvalid marks malformed requests: bad footprints, unknown shapes or
// companions, non-finite pointer coordinates, missing collaborators.
var ErrInvalid = errors.New("buildable: invalid request")

// Provider answers spatial queries about the world.
type Provider interface {
	IslandAt(p geom.Point) (Island, bool)
}

type Island interface {
	ID() string
	TileAt(p geom.Point) (Tile, bool)
	// SettlementsIn lists the ids of settlements overlapping r.
	SettlementsIn(r geom.Rect) []string
}

// Registry resolves building types by id.
type Registry interface {
	Building(id string) (catalogs.BuildingDef, bool)
}

// UnitCheck reports whether units on the island block the area.
type UnitCheck func(island Island, area geom.Rect) bool

type Tile struct {
	Ground   string
	Classes  []string
	Occupant *Occupant
}

func (t Tile) HasClass(c string) bool { return lo.Contains(t.Classes, c) }

type Occupant struct {
	ID      string
	Type    string
	Classes []string
}

func (o Occupant) HasClass(c string) bool { return lo.Contains(o.Classes, c) }

// Result is one candidate placement. Island and Settlement are set only when
// evaluation got past the check that binds them.
type Result struct {
	Anchor     geom.Point `json:"anchor"`
	Buildable  bool       `json:"buildable"`
	Island     string     `json:"island,omitempty"`
	Settlement string     `json:"settlement,omitempty"`
	Tear       []string   `json:"tear,omitempty"`
	Action     string     `json:"action,omitempty"`
	Building   string     `json:"building,omitempty"`
	Rotation   int        `json:"rotation"`
}

// Options carries per-gesture placement parameters.
type Options struct {
	Rotation int
}

// Session is the ordered list of results produced so far in one drag.
type Session struct {
	results []Result
}

func (s *Session) Append(r Result) { s.results = append(s.results, r) }

func (s *Session) Len() int { return len(s.results) }

// Results returns the recorded results; the slice must not be modified.
func (s *Session) Results() []Result { return s.results }
