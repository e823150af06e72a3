package level

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/conquest/internal/entropy"
	"github.com/talgya/conquest/internal/players"
	"github.com/talgya/conquest/internal/world"
)

// GenConfig holds procedural level parameters.
type GenConfig struct {
	Width  int
	Height int
	Seed   int64 // 0 = random

	LakeLvl     float64 // elevation below this becomes lake (0.0–1.0)
	MountainLvl float64 // elevation above this becomes mountain (0.0–1.0)

	PoliticalCenters  int
	PopulationCenters int
	StartTroops       int // on each headquarters
	Garrison          int // neutral troops on strategic cells

	Players []PlayerData // at most four; headquarters go to opposite corners
}

// DefaultGenConfig returns a 12x10 map for one human against a medium AI.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:             12,
		Height:            10,
		LakeLvl:           0.22,
		MountainLvl:       0.78,
		PoliticalCenters:  2,
		PopulationCenters: 4,
		StartTroops:       10,
		Garrison:          5,
		Players: []PlayerData{
			{ID: 0, Name: "Player"},
			{ID: 1, Name: "AI", IsAI: true, AILevel: int(players.TierMedium)},
		},
	}
}

// Generate builds a playable level from simplex noise. Every headquarters is
// reachable from every other and strategic cells are placed only where the
// first headquarters can reach them.
func Generate(cfg GenConfig) (*Descriptor, error) {
	if cfg.Width < 5 || cfg.Height < 5 {
		return nil, fmt.Errorf("generate: map %dx%d too small", cfg.Width, cfg.Height)
	}
	if cfg.Width > MaxMapSide || cfg.Height > MaxMapSide {
		return nil, fmt.Errorf("generate: map %dx%d exceeds %dx%d", cfg.Width, cfg.Height, MaxMapSide, MaxMapSide)
	}
	if len(cfg.Players) == 0 || len(cfg.Players) > 4 {
		return nil, fmt.Errorf("generate: %d players, want 1..4", len(cfg.Players))
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.Seed()
	}
	rng := rand.New(rand.NewSource(seed))
	elevNoise := opensimplex.NewNormalized(seed)

	m := world.NewMap(cfg.Width, cfg.Height)
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			elev := octaveNoise(elevNoise, float64(x), float64(y), 4, 0.15, 0.5)
			m.SetTerrain(world.Pos{X: x, Y: y}, deriveTerrain(elev, cfg))
		}
	}

	corners := []world.Pos{
		{X: 1, Y: 1},
		{X: cfg.Width - 2, Y: cfg.Height - 2},
		{X: cfg.Width - 2, Y: 1},
		{X: 1, Y: cfg.Height - 2},
	}
	hqs := corners[:len(cfg.Players)]
	for _, hq := range hqs {
		m.SetTerrain(hq, world.TerrainPlain)
		for _, p := range m.Ring(hq, 1) {
			m.SetTerrain(p, world.TerrainPlain)
		}
	}
	for _, hq := range hqs[1:] {
		if world.ShortestPath(m, hqs[0], hq) == nil {
			carve(m, hqs[0], hq)
		}
	}

	placeStrategic(m, rng, hqs, cfg)

	for i, hq := range hqs {
		m.SetTerrain(hq, world.TerrainHeadquarters)
		m.SetOwner(hq, world.PlayerID(cfg.Players[i].ID))
		m.SetTroops(hq, cfg.StartTroops)
	}

	d := &Descriptor{
		ID:          fmt.Sprintf("generated-%d", seed),
		Name:        fmt.Sprintf("Generated %dx%d", cfg.Width, cfg.Height),
		Description: "Procedurally generated level",
		Difficulty:  maxAILevel(cfg.Players),
		MapSize:     Size{Width: cfg.Width, Height: cfg.Height},
		Players:     append([]PlayerData(nil), cfg.Players...),
		GameRules:   DefaultRules(),
	}
	d.MapData = exportGrids(m)
	for i, hq := range hqs {
		d.MapData.Headquarters = append(d.MapData.Headquarters, []int{cfg.Players[i].ID, hq.X, hq.Y})
	}
	d.normalize()
	return d, nil
}

func deriveTerrain(elev float64, cfg GenConfig) world.Terrain {
	switch {
	case elev < cfg.LakeLvl:
		return world.TerrainLake
	case elev > cfg.MountainLvl:
		return world.TerrainMountain
	default:
		return world.TerrainPlain
	}
}

// carve opens an L-shaped corridor of plain cells from a to b.
func carve(m *world.Map, a, b world.Pos) {
	step := func(v, target int) int {
		switch {
		case v < target:
			return v + 1
		case v > target:
			return v - 1
		}
		return v
	}
	p := a
	for p != b {
		if p.X != b.X {
			p.X = step(p.X, b.X)
		} else {
			p.Y = step(p.Y, b.Y)
		}
		if !m.IsPassable(p) {
			m.SetTerrain(p, world.TerrainPlain)
		}
	}
}

// placeStrategic scatters political and population centers on reachable
// plain cells at least three steps from every headquarters.
func placeStrategic(m *world.Map, rng *rand.Rand, hqs []world.Pos, cfg GenConfig) {
	dist := world.Distances(m, hqs[0])
	var spots []world.Pos
	m.Cells(func(c world.Cell) {
		if c.Terrain != world.TerrainPlain || dist[c.Pos.Y*m.Width+c.Pos.X] < 0 {
			return
		}
		for _, hq := range hqs {
			if world.Manhattan(hq, c.Pos) < 3 {
				return
			}
		}
		spots = append(spots, c.Pos)
	})
	rng.Shuffle(len(spots), func(i, j int) { spots[i], spots[j] = spots[j], spots[i] })

	next := 0
	put := func(n int, t world.Terrain) {
		for i := 0; i < n && next < len(spots); i++ {
			m.SetTerrain(spots[next], t)
			m.SetTroops(spots[next], cfg.Garrison)
			next++
		}
	}
	put(cfg.PoliticalCenters, world.TerrainPoliticalCenter)
	put(cfg.PopulationCenters, world.TerrainPopulationCenter)
}

func exportGrids(m *world.Map) MapData {
	md := MapData{
		Terrain:   make([][]int, m.Height),
		Ownership: make([][]int, m.Height),
		Troops:    make([][]int, m.Height),
	}
	for y := 0; y < m.Height; y++ {
		md.Terrain[y] = make([]int, m.Width)
		md.Ownership[y] = make([]int, m.Width)
		md.Troops[y] = make([]int, m.Width)
	}
	m.Cells(func(c world.Cell) {
		md.Terrain[c.Pos.Y][c.Pos.X] = int(c.Terrain)
		md.Ownership[c.Pos.Y][c.Pos.X] = int(c.Owner)
		md.Troops[c.Pos.Y][c.Pos.X] = c.Troops
	})
	return md
}

func maxAILevel(ps []PlayerData) int {
	level := 0
	for _, p := range ps {
		if p.IsAI && p.AILevel > level {
			level = p.AILevel
		}
	}
	return level
}

// octaveNoise sums several octaves of simplex noise, normalized to [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
