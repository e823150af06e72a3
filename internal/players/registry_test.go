package players

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/conquest/internal/world"
)

type fixedCounter map[world.PlayerID]int

func (f fixedCounter) CountFor(id world.PlayerID) int { return f[id] }

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry([]Spec{
		{ID: 0, Name: "Player"},
		{ID: 1, Name: "Red AI", IsAI: true, Tier: TierMedium},
		{ID: 2, Name: "Blue AI", IsAI: true},
	})
	require.NoError(t, err)
	return r
}

func TestNewRegistry(t *testing.T) {
	r := newTestRegistry(t)

	require.Len(t, r.All(), 3)
	assert.Equal(t, world.PlayerID(0), r.All()[0].ID)
	assert.Equal(t, TierNone, r.ByID(0).Tier)
	assert.Equal(t, TierMedium, r.ByID(1).Tier)
	assert.Equal(t, TierEasy, r.ByID(2).Tier, "AI without a tier defaults to easy")
	assert.Equal(t, Palette[1], r.ByID(1).Color)
	assert.Nil(t, r.ByID(7))
	assert.Len(t, r.Humans(), 1)
	assert.Len(t, r.AIs(), 2)
}

func TestNewRegistryRejectsBadIDs(t *testing.T) {
	_, err := NewRegistry([]Spec{{ID: 1}, {ID: 1}})
	assert.Error(t, err)

	_, err = NewRegistry([]Spec{{ID: world.Unowned}})
	assert.Error(t, err)
}

func TestMarkDefeatedIdempotent(t *testing.T) {
	r := newTestRegistry(t)

	assert.True(t, r.MarkDefeated(1))
	assert.False(t, r.MarkDefeated(1))
	assert.True(t, r.ByID(1).Defeated)
	assert.False(t, r.MarkDefeated(42))
}

func TestRecompute(t *testing.T) {
	r := newTestRegistry(t)
	m := world.NewMap(3, 3)
	m.SetTerrain(world.Pos{X: 2, Y: 2}, world.TerrainPoliticalCenter)

	m.SetOwner(world.Pos{X: 0, Y: 0}, 0)
	m.SetOwner(world.Pos{X: 1, Y: 0}, 0)
	m.SetOwner(world.Pos{X: 2, Y: 2}, 1)
	m.SetOwner(world.Pos{X: 1, Y: 1}, 9) // unknown player is ignored

	r.Recompute(m, fixedCounter{0: 2, 1: 1})

	assert.Equal(t, []world.Pos{{X: 0, Y: 0}, {X: 1, Y: 0}}, r.ByID(0).Owned)
	assert.Equal(t, []world.Pos{{X: 2, Y: 2}}, r.ByID(1).Owned)
	assert.Empty(t, r.ByID(2).Owned)
	assert.Equal(t, 1, r.ByID(1).PoliticalCenters)
	assert.Equal(t, 2, r.ByID(0).ActiveOrders)
	assert.Equal(t, 1, r.ByID(1).ActiveOrders)

	// Ownership moves; a rescan must forget the stale entry.
	m.SetOwner(world.Pos{X: 1, Y: 0}, 2)
	r.Recompute(m, nil)

	assert.Equal(t, []world.Pos{{X: 0, Y: 0}}, r.ByID(0).Owned)
	assert.Equal(t, []world.Pos{{X: 1, Y: 0}}, r.ByID(2).Owned)
	assert.True(t, r.ByID(2).OwnsCell(world.Pos{X: 1, Y: 0}))
	assert.False(t, r.ByID(0).OwnsCell(world.Pos{X: 1, Y: 0}))
	assert.Zero(t, r.ByID(0).ActiveOrders)
}

func TestHeadquartersLost(t *testing.T) {
	r := newTestRegistry(t)
	m := world.NewMap(2, 1)
	hq := world.Pos{X: 0, Y: 0}
	m.SetTerrain(hq, world.TerrainHeadquarters)
	m.SetOwner(hq, 1)
	require.True(t, r.SetHeadquarters(1, hq))

	assert.False(t, r.HeadquartersLost(m, 1))
	assert.False(t, r.HeadquartersLost(m, 2), "no headquarters registered")

	m.SetOwner(hq, 0)
	assert.True(t, r.HeadquartersLost(m, 1))
}

func TestTotalTroops(t *testing.T) {
	r := newTestRegistry(t)
	m := world.NewMap(2, 2)
	m.SetOwner(world.Pos{X: 0, Y: 0}, 1)
	m.SetTroops(world.Pos{X: 0, Y: 0}, 4)
	m.SetOwner(world.Pos{X: 1, Y: 1}, 1)
	m.SetTroops(world.Pos{X: 1, Y: 1}, 6)

	cells, troops := r.TotalTroops(m, 1)
	assert.Equal(t, 2, cells)
	assert.Equal(t, 10, troops)
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierEasy, ParseTier(0))
	assert.Equal(t, TierEasy, ParseTier(1))
	assert.Equal(t, TierMedium, ParseTier(2))
	assert.Equal(t, TierHard, ParseTier(5))

	tier, ok := TierFromName(" Hard ")
	assert.True(t, ok)
	assert.Equal(t, TierHard, tier)
	_, ok = TierFromName("insane")
	assert.False(t, ok)
}
