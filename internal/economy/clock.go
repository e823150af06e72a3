// Package economy grows troops on owned cells over simulated time.
package economy

import (
	"log/slog"
	"math"

	"github.com/talgya/conquest/internal/players"
	"github.com/talgya/conquest/internal/world"
)

// Rules holds growth intervals (seconds) and amounts per terrain kind.
type Rules struct {
	BaseInterval        float64
	MinBaseInterval     float64
	PoliticalCenterStep float64
	BaseGrowth          int

	PopulationInterval float64
	PopulationGrowth   int

	HeadquartersInterval float64
	HeadquartersGrowth   int
}

// BaseIntervalFor returns the growth interval for plain cells of a player
// holding the given number of political centers.
func (r Rules) BaseIntervalFor(politicalCenters int) float64 {
	return math.Max(r.MinBaseInterval, r.BaseInterval-float64(politicalCenters)*r.PoliticalCenterStep)
}

// Timers tracks elapsed time per growing terrain kind for one player.
type Timers struct {
	Base         float64 `json:"base"`
	Population   float64 `json:"population"`
	Headquarters float64 `json:"headquarters"`
}

// Clock grants troops to owned cells when per-player timers expire.
type Clock struct {
	Map     *world.Map
	Players *players.Registry
	Rules   Rules

	timers map[world.PlayerID]*Timers
}

// NewClock creates a clock with all timers at zero.
func NewClock(m *world.Map, reg *players.Registry, rules Rules) *Clock {
	return &Clock{
		Map:     m,
		Players: reg,
		Rules:   rules,
		timers:  make(map[world.PlayerID]*Timers),
	}
}

// Update advances every undefeated player's timers by dt seconds and grants
// growth for each timer that reached its interval. Growth uses the derived
// owned-cell sets, so the registry must be recomputed first. Returns the
// number of troops granted.
func (c *Clock) Update(dt float64) int {
	if dt <= 0 {
		return 0
	}
	granted := 0
	for _, p := range c.Players.All() {
		if p.Defeated {
			continue
		}
		t := c.timersFor(p.ID)

		t.Base += dt
		if t.Base >= c.Rules.BaseIntervalFor(p.PoliticalCenters) {
			t.Base = 0
			granted += c.grow(p, world.TerrainPlain, c.Rules.BaseGrowth)
		}
		t.Population += dt
		if t.Population >= c.Rules.PopulationInterval {
			t.Population = 0
			granted += c.grow(p, world.TerrainPopulationCenter, c.Rules.PopulationGrowth)
		}
		t.Headquarters += dt
		if t.Headquarters >= c.Rules.HeadquartersInterval {
			t.Headquarters = 0
			granted += c.grow(p, world.TerrainHeadquarters, c.Rules.HeadquartersGrowth)
		}
	}
	return granted
}

// TimersFor returns a copy of a player's timers.
func (c *Clock) TimersFor(id world.PlayerID) Timers {
	if t, ok := c.timers[id]; ok {
		return *t
	}
	return Timers{}
}

func (c *Clock) timersFor(id world.PlayerID) *Timers {
	t, ok := c.timers[id]
	if !ok {
		t = &Timers{}
		c.timers[id] = t
	}
	return t
}

// grow adds amount to every cell of the given terrain the player holds.
// The grid is checked as well because it is the authoritative owner record.
func (c *Clock) grow(p *players.Player, terrain world.Terrain, amount int) int {
	if amount <= 0 {
		return 0
	}
	total := 0
	for _, pos := range p.Owned {
		cell, ok := c.Map.Get(pos)
		if !ok || cell.Owner != p.ID || cell.Terrain != terrain {
			continue
		}
		c.Map.AddTroops(pos, amount)
		total += amount
	}
	if total > 0 {
		slog.Debug("troops grown", "player", p.ID, "terrain", terrain, "troops", total)
	}
	return total
}
