package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "islebuild.ai/internal/persistence/log"
	"islebuild.ai/internal/sim/catalogs"
	"islebuild.ai/internal/sim/tuning"
	"islebuild.ai/internal/sim/world"
	"islebuild.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "archipelago", "world id")
		seed       = flag.Int64("seed", 0, "world seed (0: use tuning.yaml)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableLog = flag.Bool("disable_request_log", false, "disable compressed request/audit logs")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.World.Seed = *seed
	}

	cfg := world.ConfigFromTuning(*worldID, tune)
	w, err := world.Generate(cfg, cats)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	m := w.Metrics()
	logger.Printf("world=%s seed=%d islands=%d structures=%d ground=%s", w.ID(), w.Seed(), m.Islands, m.Structures, w.GroundDigest()[:12])

	if !*disableLog {
		worldDir := filepath.Join(*dataDir, "worlds", *worldID)
		if err := os.MkdirAll(worldDir, 0o755); err != nil {
			logger.Fatalf("data dir: %v", err)
		}
		reqLog := persistlog.NewRequestLogger(worldDir)
		auditLog := persistlog.NewAuditLogger(worldDir)
		defer reqLog.Close()
		defer auditLog.Close()
		w.SetLoggers(reqLog, auditLog)
	}

	wsSrv, err := ws.NewServer(w, logger, tune.Digest())
	if err != nil {
		logger.Fatalf("ws server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, *worldID, w.Metrics())
	})
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			WorldID string             `json:"world_id"`
			Seed    int64              `json:"seed"`
			Metrics world.WorldMetrics `json:"metrics"`
		}{
			WorldID: *worldID,
			Seed:    w.Seed(),
			Metrics: w.Metrics(),
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("listen: %v", err)
	}
}

func writeMetrics(rw http.ResponseWriter, worldID string, m world.WorldMetrics) {
	fmt.Fprintf(rw, "# HELP islebuild_world_islands Island count.\n")
	fmt.Fprintf(rw, "# TYPE islebuild_world_islands gauge\n")
	fmt.Fprintf(rw, "islebuild_world_islands{world=%q} %d\n", worldID, m.Islands)

	fmt.Fprintf(rw, "# HELP islebuild_world_structures Current number of structures.\n")
	fmt.Fprintf(rw, "# TYPE islebuild_world_structures gauge\n")
	fmt.Fprintf(rw, "islebuild_world_structures{world=%q} %d\n", worldID, m.Structures)

	fmt.Fprintf(rw, "# HELP islebuild_world_loaded_chunks Loaded chunk count.\n")
	fmt.Fprintf(rw, "# TYPE islebuild_world_loaded_chunks gauge\n")
	fmt.Fprintf(rw, "islebuild_world_loaded_chunks{world=%q} %d\n", worldID, m.LoadedChunks)

	fmt.Fprintf(rw, "# HELP islebuild_requests_total Requests served by kind.\n")
	fmt.Fprintf(rw, "# TYPE islebuild_requests_total counter\n")
	fmt.Fprintf(rw, "islebuild_requests_total{world=%q,kind=%q} %d\n", worldID, "preview", m.PreviewsTotal)
	fmt.Fprintf(rw, "islebuild_requests_total{world=%q,kind=%q} %d\n", worldID, "build", m.BuildsTotal)
	fmt.Fprintf(rw, "islebuild_requests_total{world=%q,kind=%q} %d\n", worldID, "error", m.ErrorsTotal)

	fmt.Fprintf(rw, "# HELP islebuild_structures_changed_total Structures placed and torn down.\n")
	fmt.Fprintf(rw, "# TYPE islebuild_structures_changed_total counter\n")
	fmt.Fprintf(rw, "islebuild_structures_changed_total{world=%q,change=%q} %d\n", worldID, "placed", m.PlacedTotal)
	fmt.Fprintf(rw, "islebuild_structures_changed_total{world=%q,change=%q} %d\n", worldID, "torn", m.TornTotal)

	fmt.Fprintf(rw, "# HELP islebuild_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE islebuild_world_queue_depth gauge\n")
	fmt.Fprintf(rw, "islebuild_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "preview", m.QueueDepths.Preview)
	fmt.Fprintf(rw, "islebuild_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "build", m.QueueDepths.Build)

	fmt.Fprintf(rw, "# HELP islebuild_last_request_ms Last request duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE islebuild_last_request_ms gauge\n")
	fmt.Fprintf(rw, "islebuild_last_request_ms{world=%q} %.3f\n", worldID, m.LastRequestMS)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
