package world

import (
	"time"

	"islebuild.ai/internal/geom"
)

// RequestLogEntry summarises one PREVIEW or BUILD served by the world.
type RequestLogEntry struct {
	Time      time.Time `json:"time"`
	WorldID   string    `json:"world_id"`
	Kind      string    `json:"kind"`
	Building  string    `json:"building"`
	P1        geom.Vec2 `json:"p1"`
	P2        geom.Vec2 `json:"p2"`
	Rotation  *int      `json:"rotation,omitempty"`
	Results   int       `json:"results"`
	Buildable int       `json:"buildable"`
	Error     string    `json:"error,omitempty"`

	// StateDigest is the structure digest after a BUILD was applied.
	StateDigest string `json:"state_digest,omitempty"`
}

// AuditEntry records one structure change made by Apply.
type AuditEntry struct {
	Time        time.Time  `json:"time"`
	WorldID     string     `json:"world_id"`
	Action      string     `json:"action"` // PLACE | TEAR
	StructureID string     `json:"structure_id"`
	Building    string     `json:"building"`
	Anchor      geom.Point `json:"anchor"`
}

type RequestLogger interface {
	WriteRequest(RequestLogEntry) error
}

type AuditLogger interface {
	WriteAudit(AuditEntry) error
}

// SetLoggers must be called before Run.
func (w *World) SetLoggers(req RequestLogger, audit AuditLogger) {
	w.requestLogger = req
	w.auditLogger = audit
}

func (w *World) logRequest(e RequestLogEntry, err error) {
	if w.requestLogger == nil {
		return
	}
	e.Time = time.Now().UTC()
	e.WorldID = w.cfg.ID
	if err != nil {
		e.Error = err.Error()
	}
	_ = w.requestLogger.WriteRequest(e)
}

func (w *World) audit(action string, s Structure) {
	if w.auditLogger == nil {
		return
	}
	_ = w.auditLogger.WriteAudit(AuditEntry{
		Time:        time.Now().UTC(),
		WorldID:     w.cfg.ID,
		Action:      action,
		StructureID: s.ID,
		Building:    s.Type,
		Anchor:      s.Anchor,
	})
}
