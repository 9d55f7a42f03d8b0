package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Islands      int `json:"islands"`
	Structures   int `json:"structures"`
	LoadedChunks int `json:"loaded_chunks"`

	PreviewsTotal uint64 `json:"previews_total"`
	BuildsTotal   uint64 `json:"builds_total"`
	ErrorsTotal   uint64 `json:"errors_total"`
	PlacedTotal   uint64 `json:"placed_total"`
	TornTotal     uint64 `json:"torn_total"`

	QueueDepths QueueDepths `json:"queue_depths"`

	LastRequestMS float64 `json:"last_request_ms"`
}

type QueueDepths struct {
	Preview int `json:"preview"`
	Build   int `json:"build"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics(m WorldMetrics) {
	m.Islands = len(w.islands)
	m.Structures = len(w.structures)
	m.LoadedChunks = len(w.ground.LoadedChunkKeys())
	m.QueueDepths = QueueDepths{Preview: len(w.preview), Build: len(w.build)}
	w.metrics.Store(m)
}
