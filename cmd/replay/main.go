package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	persistlog "islebuild.ai/internal/persistence/log"
	"islebuild.ai/internal/sim/catalogs"
	"islebuild.ai/internal/sim/tuning"
	"islebuild.ai/internal/sim/world"
)

func main() {
	var (
		requestsDir = flag.String("requests", "", "request log dir containing build-*.jsonl.zst")
		configDir   = flag.String("configs", "./configs", "config directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed        = flag.Int64("seed", 0, "world seed override (must match the server run)")
		worldID     = flag.String("world", "archipelago", "world id")
	)
	flag.Parse()

	if *requestsDir == "" {
		fmt.Fprintln(os.Stderr, "missing -requests")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	if *seed != 0 {
		tune.World.Seed = *seed
	}
	w, err := world.Generate(world.ConfigFromTuning(*worldID, tune), cats)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}

	files, err := persistlog.BuildFiles(*requestsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list requests:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no build log files found in", *requestsDir)
		os.Exit(1)
	}

	st, err := replay(w, files)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: builds=%d failed=%d structures=%d digest=%s\n", st.builds, st.failed, len(w.Structures()), w.StateDigest())
}

type replayStats struct {
	builds int
	failed int
}

// replay re-applies every logged BUILD and checks the state digest recorded
// after it. Builds that failed on the server changed nothing and are only
// counted.
func replay(w *world.World, files []string) (replayStats, error) {
	var st replayStats
	err := persistlog.ReadRequests(files, func(pos persistlog.EntryPos, e world.RequestLogEntry) error {
		if e.Error != "" || e.StateDigest == "" {
			st.failed++
			return nil
		}
		_, got := w.ReplayBuild(e)
		st.builds++
		if got != e.StateDigest {
			return fmt.Errorf("%s: digest mismatch after BUILD %s: got=%s want=%s", pos, e.Building, got, e.StateDigest)
		}
		return nil
	})
	return st, err
}
