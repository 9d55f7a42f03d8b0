package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"islebuild.ai/internal/sim/world"
)

const (
	fileExt    = ".jsonl.zst"
	hourLayout = "2006-01-02-15"
)

// hourlyJSONL appends JSON lines to <dir>/<stem>-<UTC hour>.jsonl.zst and
// starts a new zstd frame whenever the hour changes.
type hourlyJSONL struct {
	dir  string
	stem string
	now  func() time.Time

	mu   sync.Mutex
	hour string
	file *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
}

func newHourlyJSONL(dir, stem string, now func() time.Time) *hourlyJSONL {
	return &hourlyJSONL{dir: dir, stem: stem, now: now}
}

func (h *hourlyJSONL) path(hour string) string {
	return filepath.Join(h.dir, h.stem+"-"+hour+fileExt)
}

func (h *hourlyJSONL) append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if hour := h.now().UTC().Format(hourLayout); hour != h.hour {
		if err := h.switchTo(hour); err != nil {
			return err
		}
	}
	if _, err := h.buf.Write(append(line, '\n')); err != nil {
		return err
	}
	// Flush per entry so a crashed server still leaves a readable prefix.
	return h.buf.Flush()
}

func (h *hourlyJSONL) switchTo(hour string) error {
	if err := h.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	h.file, h.zw, h.buf, h.hour = f, zw, bufio.NewWriterSize(zw, 64*1024), hour
	return nil
}

func (h *hourlyJSONL) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeLocked()
}

func (h *hourlyJSONL) closeLocked() error {
	if h.file == nil {
		return nil
	}
	flushErr := h.buf.Flush()
	zErr := h.zw.Close()
	fErr := h.file.Close()
	h.file, h.zw, h.buf, h.hour = nil, nil, nil, ""
	for _, err := range []error{flushErr, zErr, fErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// RequestLogger splits PREVIEW and BUILD entries into per-kind files under
// <worldDir>/requests, so replay only has to decompress the builds.
type RequestLogger struct {
	dir string
	now func() time.Time

	mu     sync.Mutex
	byKind map[string]*hourlyJSONL
}

func NewRequestLogger(worldDir string) *RequestLogger {
	return &RequestLogger{
		dir:    filepath.Join(worldDir, "requests"),
		now:    time.Now,
		byKind: map[string]*hourlyJSONL{},
	}
}

func (l *RequestLogger) WriteRequest(e world.RequestLogEntry) error {
	kind := strings.ToLower(strings.TrimSpace(e.Kind))
	if kind == "" {
		return fmt.Errorf("request log: entry without kind")
	}
	l.mu.Lock()
	w, ok := l.byKind[kind]
	if !ok {
		w = newHourlyJSONL(l.dir, kind, l.now)
		l.byKind[kind] = w
	}
	l.mu.Unlock()
	return w.append(e)
}

func (l *RequestLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var first error
	for _, w := range l.byKind {
		if err := w.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// AuditLogger records PLACE/TEAR structure changes under <worldDir>/audit.
type AuditLogger struct{ w *hourlyJSONL }

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{w: newHourlyJSONL(filepath.Join(worldDir, "audit"), "audit", time.Now)}
}

func (l *AuditLogger) WriteAudit(e world.AuditEntry) error { return l.w.append(e) }
func (l *AuditLogger) Close() error                        { return l.w.close() }
