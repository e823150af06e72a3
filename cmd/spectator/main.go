// Command spectator follows a running conquest match, logs how it stands and,
// given the admin key, runs one-sided stretches of the match faster.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/conquest/internal/spectator"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	apiURL := envOrDefault("CONQUEST_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("CONQUEST_ADMIN_KEY")
	intervalSec := envIntOrDefault("SPECTATOR_INTERVAL", 5)

	interval := time.Duration(intervalSec) * time.Second
	slog.Info("spectator starting", "api_url", apiURL, "interval", interval, "speed_control", adminKey != "")

	observer := spectator.NewObserver(apiURL)
	var actor *spectator.Actor
	if adminKey != "" {
		actor = spectator.NewActor(apiURL, adminKey)
	} else {
		slog.Warn("CONQUEST_ADMIN_KEY not set, watching only")
	}

	slog.Info("waiting for conquest API...")
	waitForAPI(observer)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		if done := runCycle(observer, actor); done {
			fmt.Println("Match decided. Spectator stopped.")
			return
		}
		select {
		case <-ticker.C:
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			fmt.Println("Spectator stopped.")
			return
		}
	}
}

// runCycle executes one observe → triage → act cycle. It reports whether the
// match is over.
func runCycle(observer *spectator.Observer, actor *spectator.Actor) bool {
	snap, err := observer.Observe()
	if err != nil {
		slog.Error("observation failed", "error", err)
		return false
	}
	b := spectator.Triage(snap)
	slog.Info("match standing",
		"elapsed", humanize.FormatFloat("#,###.#", snap.Status.Match.Elapsed),
		"phase", b.Phase,
		"leader", b.LeaderName,
		"cell_share", fmt.Sprintf("%.2f", b.CellShare),
		"troop_share", fmt.Sprintf("%.2f", b.TroopShare),
		"claimed", fmt.Sprintf("%.2f", b.Claimed),
		"standing", b.Standing,
	)
	for _, e := range snap.Events {
		slog.Debug("journal", "at", e.At, "category", e.Category, "detail", e.Description)
	}

	if b.Phase == spectator.PhaseDecided {
		slog.Info("match over", "winner", snap.Status.Match.Winner)
		return true
	}
	if actor == nil || snap.Status.Paused {
		return false
	}
	want := spectator.SpeedFor(b.Phase)
	if want == snap.Status.Speed {
		return false
	}
	got, err := actor.SetSpeed(want)
	if err != nil {
		slog.Error("speed change failed", "error", err)
		return false
	}
	slog.Info("speed changed", "phase", b.Phase, "from", snap.Status.Speed, "to", got)
	return false
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Exits after 5 minutes if the API never becomes ready.
func waitForAPI(observer *spectator.Observer) {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for !observer.Ready() {
		if time.Now().After(deadline) {
			slog.Error("conquest API did not become ready within 5 minutes")
			os.Exit(1)
		}
		slog.Info("conquest API not ready, retrying...", "backoff", backoff)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	slog.Info("conquest API is ready")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
