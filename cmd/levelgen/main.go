// Command levelgen writes a procedurally generated level descriptor as JSON.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/conquest/internal/level"
	"github.com/talgya/conquest/internal/players"
	"github.com/talgya/conquest/internal/world"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	def := level.DefaultGenConfig()
	width := flag.Int("width", envIntOrDefault("LEVELGEN_WIDTH", def.Width), "map width in cells")
	height := flag.Int("height", envIntOrDefault("LEVELGEN_HEIGHT", def.Height), "map height in cells")
	seed := flag.Int64("seed", int64(envIntOrDefault("LEVELGEN_SEED", 0)), "noise seed (0 = random)")
	ais := flag.String("ai", envOrDefault("LEVELGEN_AI", "medium"), "comma-separated AI tiers: easy, medium, hard")
	political := flag.Int("political", def.PoliticalCenters, "political centers to place")
	population := flag.Int("population", def.PopulationCenters, "population centers to place")
	out := flag.String("o", "", "output file (default stdout)")
	flag.Parse()

	cfg := def
	cfg.Width, cfg.Height, cfg.Seed = *width, *height, *seed
	cfg.PoliticalCenters, cfg.PopulationCenters = *political, *population

	roster, err := rosterFor(*ais)
	if err != nil {
		slog.Error("bad AI list", "error", err)
		os.Exit(2)
	}
	cfg.Players = roster

	desc, err := level.Generate(cfg)
	if err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			slog.Error("failed to create output", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	if err := desc.Encode(w); err != nil {
		slog.Error("failed to write level", "error", err)
		os.Exit(1)
	}

	counts := map[world.Terrain]int{}
	for _, row := range desc.MapData.Terrain {
		for _, t := range row {
			counts[world.Terrain(t)]++
		}
	}
	cells := desc.MapSize.Width * desc.MapSize.Height
	fmt.Fprintf(os.Stderr, "%s: %s cells, %d players, %d political / %d population centers, %s impassable\n",
		desc.ID, humanize.Comma(int64(cells)), len(desc.Players),
		counts[world.TerrainPoliticalCenter], counts[world.TerrainPopulationCenter],
		humanize.Comma(int64(counts[world.TerrainLake]+counts[world.TerrainMountain])))
}

// rosterFor builds one human followed by an AI per listed tier.
func rosterFor(list string) ([]level.PlayerData, error) {
	roster := []level.PlayerData{{ID: 0, Name: "Player"}}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tier, ok := players.TierFromName(name)
		if !ok {
			return nil, fmt.Errorf("unknown AI tier %q", name)
		}
		id := len(roster)
		roster = append(roster, level.PlayerData{
			ID:      id,
			Name:    "AI " + strconv.Itoa(id),
			IsAI:    true,
			AILevel: int(tier),
		})
	}
	if len(roster) < 2 {
		return nil, fmt.Errorf("at least one AI opponent is required")
	}
	return roster, nil
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
