package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/conquest/internal/players"
	"github.com/talgya/conquest/internal/world"
)

var testRules = Rules{
	BaseInterval:         25,
	MinBaseInterval:      5,
	PoliticalCenterStep:  10,
	BaseGrowth:           1,
	PopulationInterval:   10,
	PopulationGrowth:     2,
	HeadquartersInterval: 10,
	HeadquartersGrowth:   3,
}

func setup(t *testing.T) (*Clock, *world.Map, *players.Registry) {
	t.Helper()
	reg, err := players.NewRegistry([]players.Spec{
		{ID: 0, Name: "Player"},
		{ID: 1, Name: "AI", IsAI: true},
	})
	require.NoError(t, err)

	m := world.NewMap(4, 1)
	m.SetTerrain(world.Pos{X: 1, Y: 0}, world.TerrainPopulationCenter)
	m.SetTerrain(world.Pos{X: 2, Y: 0}, world.TerrainHeadquarters)
	m.SetTerrain(world.Pos{X: 3, Y: 0}, world.TerrainPoliticalCenter)
	for x := 0; x < 4; x++ {
		m.SetOwner(world.Pos{X: x, Y: 0}, 0)
	}
	reg.Recompute(m, nil)
	return NewClock(m, reg, testRules), m, reg
}

func TestBaseIntervalFor(t *testing.T) {
	assert.Equal(t, 25.0, testRules.BaseIntervalFor(0))
	assert.Equal(t, 15.0, testRules.BaseIntervalFor(1))
	assert.Equal(t, 5.0, testRules.BaseIntervalFor(2))
	assert.Equal(t, 5.0, testRules.BaseIntervalFor(7), "floored at the minimum")
}

func TestGrowthPerTerrain(t *testing.T) {
	c, m, _ := setup(t)

	// One political center: plain interval 15s, others 10s.
	c.Update(10)
	assert.Equal(t, 0, m.Troops(world.Pos{X: 0, Y: 0}))
	assert.Equal(t, 2, m.Troops(world.Pos{X: 1, Y: 0}))
	assert.Equal(t, 3, m.Troops(world.Pos{X: 2, Y: 0}))
	assert.Equal(t, 0, m.Troops(world.Pos{X: 3, Y: 0}), "political centers never grow")

	c.Update(5)
	assert.Equal(t, 1, m.Troops(world.Pos{X: 0, Y: 0}))
	assert.Equal(t, 2, m.Troops(world.Pos{X: 1, Y: 0}))
	assert.Zero(t, c.TimersFor(0).Base, "timer resets on expiry")
	assert.Equal(t, 5.0, c.TimersFor(0).Population)
}

func TestZeroElapsedNeverDoublesGrowth(t *testing.T) {
	c, m, _ := setup(t)

	granted := c.Update(10)
	require.Equal(t, 5, granted)
	before := m.Troops(world.Pos{X: 1, Y: 0})

	assert.Zero(t, c.Update(0))
	assert.Zero(t, c.Update(0))
	assert.Equal(t, before, m.Troops(world.Pos{X: 1, Y: 0}))
}

func TestDefeatedPlayersSkipped(t *testing.T) {
	c, m, reg := setup(t)
	reg.MarkDefeated(0)

	assert.Zero(t, c.Update(30))
	m.Cells(func(cell world.Cell) {
		assert.Zero(t, cell.Troops)
	})
	assert.Equal(t, Timers{}, c.TimersFor(0))
}

func TestGrowthFollowsGridOwner(t *testing.T) {
	c, m, _ := setup(t)

	// Lost since the last recompute: the grid wins over the derived set.
	m.SetOwner(world.Pos{X: 1, Y: 0}, 1)
	c.Update(10)
	assert.Zero(t, m.Troops(world.Pos{X: 1, Y: 0}))
}
