// Command conquest runs a single territory-conquest match behind the HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/conquest/internal/api"
	"github.com/talgya/conquest/internal/engine"
	"github.com/talgya/conquest/internal/events"
	"github.com/talgya/conquest/internal/level"
	"github.com/talgya/conquest/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(envOrDefault("CONQUEST_LOG_LEVEL", "info")),
	}))
	slog.SetDefault(logger)

	levelPath := os.Getenv("CONQUEST_LEVEL")
	levelID := os.Getenv("CONQUEST_LEVEL_ID")
	dbPath := envOrDefault("CONQUEST_DB", "data/conquest.db")
	apiPort := envIntOrDefault("CONQUEST_PORT", 8080)
	seed := int64(envIntOrDefault("CONQUEST_SEED", 0))

	// ── Level ─────────────────────────────────────────────────────────
	desc, err := loadLevel(levelPath, levelID, seed)
	if err != nil {
		slog.Error("failed to load level", "error", err)
		os.Exit(1)
	}

	// ── Ledger ────────────────────────────────────────────────────────
	var db *persistence.DB
	if dbPath != "" && dbPath != "off" {
		os.MkdirAll(filepath.Dir(dbPath), 0755)
		db, err = persistence.Open(dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", dbPath)
		if last, err := db.LastMatch(); err == nil {
			slog.Info("previous match on record", "match", last)
		}
	} else {
		slog.Warn("CONQUEST_DB=off, finished matches will not be recorded")
	}

	// ── Match ─────────────────────────────────────────────────────────
	game, err := engine.New(desc, engine.Options{Seed: seed})
	if err != nil {
		slog.Error("failed to create match", "error", err)
		os.Exit(1)
	}

	runner := engine.NewRunner(game)
	runner.OnEvents = logEvents
	runner.OnGameOver = func(g *engine.Game) {
		if db == nil {
			return
		}
		if err := db.RecordGame(g); err != nil {
			slog.Error("failed to record match", "match", g.MatchID, "error", err)
		}
	}
	if v := os.Getenv("CONQUEST_SPEED"); v != "" {
		if s, err := strconv.ParseFloat(v, 64); err == nil {
			runner.SetSpeed(s)
		} else {
			slog.Warn("ignoring CONQUEST_SPEED", "value", v, "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("CONQUEST_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("CONQUEST_ADMIN_KEY not set, speed control will be disabled")
	}
	apiServer := &api.Server{
		Runner:     runner,
		DB:         db,
		Port:       apiPort,
		AdminKey:   adminKey,
		SelectRate: envIntOrDefault("CONQUEST_SELECT_RATE", 20),
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	fmt.Printf("\n%s: %dx%d map, %d players.\n",
		game.Name, game.Map.Width, game.Map.Height, len(game.Players.All()))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", apiPort)
	fmt.Println("Starting match... (Ctrl+C to stop)")

	runner.Run(ctx)

	var summary engine.Status
	var standings engine.Standings
	runner.Do(func(g *engine.Game) {
		summary = g.Status()
		standings = g.Standings()
	})
	if !summary.Over {
		fmt.Printf("Match abandoned after %ss.\n", humanize.FormatFloat("#,###.#", summary.Elapsed))
		return
	}

	fmt.Printf("Match over after %ss. Winner: player %d.\n",
		humanize.FormatFloat("#,###.#", summary.Elapsed), summary.Winner)
	for _, s := range standings {
		state := "standing"
		if s.Defeated {
			state = "defeated"
		}
		fmt.Printf("  %-12s %4s cells %8s troops  %s\n",
			s.Name, humanize.Comma(int64(s.Cells)), humanize.Comma(int64(s.Troops)), state)
	}

	// Keep the API up so the final board can be inspected.
	fmt.Println("Results served until Ctrl+C.")
	<-ctx.Done()
}

// loadLevel reads a descriptor from path, or a pack entry when id is set.
// An empty path generates a level.
func loadLevel(path, id string, seed int64) (*level.Descriptor, error) {
	if path == "" {
		cfg := level.DefaultGenConfig()
		cfg.Seed = seed
		desc, err := level.Generate(cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("generated level", "id", desc.ID, "size", fmt.Sprintf("%dx%d", desc.MapSize.Width, desc.MapSize.Height))
		return desc, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open level: %w", err)
	}
	defer f.Close()
	if id != "" {
		return level.DecodePack(f, id)
	}
	return level.Decode(f)
}

func logEvents(g *engine.Game, evs []events.Event) {
	for _, ev := range evs {
		switch ev.Kind() {
		case events.KindOrderQueueChanged:
			slog.Debug("event", "kind", ev.Kind(), "detail", ev.String())
		case events.KindOwnershipChanged:
			slog.Debug("event", "kind", ev.Kind(), "detail", ev.String(), "elapsed", g.Elapsed)
		default:
			slog.Info("event", "kind", ev.Kind(), "detail", ev.String(), "elapsed", g.Elapsed)
		}
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
