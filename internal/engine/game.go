// Package engine ties the simulation systems together into a match and
// drives them from a real-time loop.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/conquest/internal/ai"
	"github.com/talgya/conquest/internal/combat"
	"github.com/talgya/conquest/internal/economy"
	"github.com/talgya/conquest/internal/entropy"
	"github.com/talgya/conquest/internal/events"
	"github.com/talgya/conquest/internal/level"
	"github.com/talgya/conquest/internal/march"
	"github.com/talgya/conquest/internal/players"
	"github.com/talgya/conquest/internal/victory"
	"github.com/talgya/conquest/internal/world"
)

// ErrNotPlaying is returned for human input when there is no human player,
// the human has been defeated, or the match is over.
var ErrNotPlaying = errors.New("no human player in play")

// Options tunes a match beyond what the level descriptor carries.
type Options struct {
	Seed     int64                        // AI randomness; 0 = random
	Profiles map[players.Tier]*ai.Profile // overrides for AI tiers
}

// Game holds the complete match state and wires systems together.
type Game struct {
	MatchID string
	LevelID string
	Name    string
	Rules   level.Rules
	Seed    int64

	Map      *world.Map
	Players  *players.Registry
	Orders   *march.Scheduler
	Combat   *combat.Resolver
	Economy  *economy.Clock
	AI       *ai.Strategist
	Victory  *victory.Evaluator
	Human    world.PlayerID // first human player, or world.Unowned
	Elapsed  float64        // simulated seconds since start
	Journal  *Journal
	Snapshot Standings // frozen at game over

	pending    events.Log
	sweepTimer float64
	selection  Selection
	route      []world.Pos
	routing    bool
}

// Standing is one player's position when the match ended.
type Standing struct {
	Player   world.PlayerID `json:"player"`
	Name     string         `json:"name"`
	IsAI     bool           `json:"is_ai"`
	Tier     string         `json:"tier"`
	Cells    int            `json:"cells"`
	Troops   int            `json:"troops"`
	Defeated bool           `json:"defeated"`
}

// Standings lists every player in registry order.
type Standings []Standing

// New builds a match from a level descriptor. The descriptor is validated
// first; its rules are filled from level.DefaultRules.
func New(desc *level.Descriptor, opts Options) (*Game, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("level %q: %w", desc.ID, err)
	}
	rules := desc.GameRules.WithDefaults()

	reg, err := players.NewRegistry(desc.PlayerSpecs())
	if err != nil {
		return nil, fmt.Errorf("level %q players: %w", desc.ID, err)
	}
	m := desc.BuildMap()
	for _, hq := range desc.HeadquartersList() {
		reg.SetHeadquarters(hq.Player, hq.Pos)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = entropy.Seed()
	}

	g := &Game{
		MatchID: uuid.NewString(),
		LevelID: desc.ID,
		Name:    desc.Name,
		Rules:   rules,
		Seed:    seed,
		Map:     m,
		Players: reg,
		Human:   world.Unowned,
		Journal: NewJournal(200),
	}
	if hs := reg.Humans(); len(hs) > 0 {
		g.Human = hs[0].ID
	}

	g.Combat = combat.NewResolver(m, reg)
	g.Combat.OnHeadquartersLost = g.onHeadquartersLost
	g.Orders = march.NewScheduler(m, g.Combat, &g.pending, march.Rules{
		Interval:     rules.MarchInterval,
		MaxPathSteps: rules.MaxPathSteps,
	})
	g.Economy = economy.NewClock(m, reg, economy.Rules{
		BaseInterval:         rules.BaseInterval,
		MinBaseInterval:      rules.MinBaseInterval,
		PoliticalCenterStep:  rules.PoliticalCenterStep,
		BaseGrowth:           rules.BaseGrowth,
		PopulationInterval:   rules.PopulationInterval,
		PopulationGrowth:     rules.PopulationGrowth,
		HeadquartersInterval: rules.HeadquartersInterval,
		HeadquartersGrowth:   rules.HeadquartersGrowth,
	})
	g.AI, err = ai.NewStrategist(m, reg, g.Orders, opts.Profiles, rules.MaxActiveOrders, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fmt.Errorf("ai: %w", err)
	}
	g.Victory = victory.NewEvaluator(m, reg, &g.pending)

	reg.Recompute(m, g.Orders)

	slog.Info("match created",
		"match", g.MatchID,
		"level", g.LevelID,
		"size", fmt.Sprintf("%dx%d", m.Width, m.Height),
		"players", len(reg.All()),
		"seed", seed,
	)
	return g, nil
}

// Over reports whether the match has been decided.
func (g *Game) Over() bool { return g.Victory.Over() }

// Winner returns the winning player, or world.Unowned while in play.
func (g *Game) Winner() world.PlayerID { return g.Victory.Winner() }

// Tick advances the match by dt simulated seconds and returns every event
// raised since the previous Tick or DrainEvents. Once the match is over it
// only returns events still pending.
//
// Order within a tick: economy, AI, marching, win evaluation. Owned-cell sets
// are recomputed before the AI reads them and after marching mutates the grid.
func (g *Game) Tick(dt float64) []events.Event {
	if g.Over() || dt <= 0 {
		return g.drain()
	}
	g.Elapsed += dt

	g.Players.Recompute(g.Map, g.Orders)
	g.Economy.Update(dt)
	g.AI.Update(dt)
	g.Orders.Update(dt)
	hqChanged := g.flushChanges()
	g.Players.Recompute(g.Map, g.Orders)

	g.sweepTimer += dt
	if g.sweepTimer >= g.Rules.VictorySweepInterval {
		g.sweepTimer = 0
		hqChanged = true
	}
	if hqChanged && !g.Over() {
		g.evaluate()
	}
	return g.drain()
}

// DrainEvents returns and clears pending events without advancing time.
func (g *Game) DrainEvents() []events.Event {
	return g.drain()
}

func (g *Game) drain() []events.Event {
	evs := g.pending.Drain()
	for _, ev := range evs {
		g.Journal.Record(g.Elapsed, ev)
	}
	return evs
}

// flushChanges turns recorded grid ownership changes into events. It reports
// whether any headquarters changed hands.
func (g *Game) flushChanges() bool {
	hq := false
	for _, c := range g.Map.DrainChanges() {
		g.pending.Push(events.OwnershipChanged{
			Pos:      c.Pos,
			Terrain:  c.Terrain,
			OldOwner: c.OldOwner,
			NewOwner: c.NewOwner,
		})
		if c.Terrain == world.TerrainHeadquarters {
			hq = true
		}
	}
	return hq
}

func (g *Game) onHeadquartersLost(prev, captor world.PlayerID) {
	g.flushChanges()
	if n := g.Orders.CancelPlayer(prev); n > 0 {
		slog.Debug("orders of defeated player cancelled", "player", prev, "orders", n)
	}
	g.evaluate()
}

func (g *Game) evaluate() {
	winner, over := g.Victory.Evaluate()
	if !over {
		return
	}
	g.Orders.Halt()
	g.clearInput()
	g.Snapshot = g.standings()
	slog.Info("match finished", "match", g.MatchID, "winner", winner, "elapsed", g.Elapsed)
}

func (g *Game) standings() Standings {
	var out Standings
	for _, p := range g.Players.All() {
		cells, troops := g.Players.TotalTroops(g.Map, p.ID)
		out = append(out, Standing{
			Player:   p.ID,
			Name:     p.Name,
			IsAI:     p.IsAI,
			Tier:     p.Tier.String(),
			Cells:    cells,
			Troops:   troops,
			Defeated: p.Defeated,
		})
	}
	return out
}

// Standings returns current standings, or the final ones once the match is over.
func (g *Game) Standings() Standings {
	if g.Over() {
		return g.Snapshot
	}
	return g.standings()
}
