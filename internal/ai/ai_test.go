package ai

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/conquest/internal/march"
	"github.com/talgya/conquest/internal/players"
	"github.com/talgya/conquest/internal/world"
)

type recorder struct {
	orders []*march.Order
	active map[world.PlayerID]int
}

func (r *recorder) Create(player world.PlayerID, path []world.Pos, troops int, source march.Source) (*march.Order, error) {
	o := &march.Order{Player: player, Path: append([]world.Pos(nil), path...), Requested: troops, Source: source}
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *recorder) CountFor(id world.PlayerID) int { return r.active[id] }

func setup(t *testing.T, w, h int, tier players.Tier) (*Strategist, *world.Map, *players.Registry, *recorder) {
	t.Helper()
	reg, err := players.NewRegistry([]players.Spec{
		{ID: 0, Name: "Player"},
		{ID: 1, Name: "AI", IsAI: true, Tier: tier},
	})
	require.NoError(t, err)
	m := world.NewMap(w, h)
	rec := &recorder{active: map[world.PlayerID]int{}}
	s, err := NewStrategist(m, reg, rec, nil, 3, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	return s, m, reg, rec
}

func place(m *world.Map, p world.Pos, owner world.PlayerID, troops int) {
	m.SetOwner(p, owner)
	m.SetTroops(p, troops)
}

func TestDefaultDoctrineScores(t *testing.T) {
	base, err := CompileDoctrine(BaseDoctrine)
	require.NoError(t, err)
	hard, err := CompileDoctrine(HardDoctrine)
	require.NoError(t, err)

	tests := []struct {
		name string
		env  CandidateEnv
		base float64
		hard float64
	}{
		{"weak own cell", CandidateEnv{Own: true, Troops: 2, Plain: true}, 20, 20},
		{"strong own cell", CandidateEnv{Own: true, Troops: 5, Plain: true}, -50, -50},
		{"weak enemy", CandidateEnv{Enemy: true, Troops: 2, Plain: true}, 30, 30},
		{"strong enemy", CandidateEnv{Enemy: true, Troops: 9, Plain: true}, -40, -40},
		{"enemy headquarters", CandidateEnv{Enemy: true, Troops: 1, Headquarters: true}, 340, 340},
		{"enemy political center", CandidateEnv{Enemy: true, Political: true}, 250, 375},
		{"enemy population center", CandidateEnv{Enemy: true, Troops: 3, Population: true}, 120, 120},
		{"neutral plain", CandidateEnv{Neutral: true, Plain: true}, 30, 30},
		{"neutral population center", CandidateEnv{Neutral: true, Population: true}, 80, 80},
		{"neutral political center", CandidateEnv{Neutral: true, Political: true}, 130, 195},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.Score(tt.env)
			require.NoError(t, err)
			assert.InDelta(t, tt.base, got, 1e-9)

			got, err = hard.Score(tt.env)
			require.NoError(t, err)
			assert.InDelta(t, tt.hard, got, 1e-9)
		})
	}
}

func TestCompileDoctrineRejectsUnknownFields(t *testing.T) {
	_, err := CompileDoctrine("Gold * 2")
	assert.Error(t, err)

	_, err = NewStrategist(world.NewMap(1, 1), &players.Registry{}, &recorder{}, map[players.Tier]*Profile{
		players.TierEasy: {Tier: players.TierEasy, Interval: 1, DoctrineSource: "Troops +"},
	}, 3, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestEasySendsToAdjacentCell(t *testing.T) {
	s, m, reg, rec := setup(t, 3, 3, players.TierEasy)
	center := world.Pos{X: 1, Y: 1}
	place(m, center, 1, 6)
	m.SetTerrain(world.Pos{X: 1, Y: 0}, world.TerrainMountain)
	reg.Recompute(m, nil)

	n := s.Decide(reg.ByID(1))
	require.Equal(t, 1, n)
	o := rec.orders[0]
	require.Len(t, o.Path, 2)
	assert.Equal(t, center, o.Path[0])
	assert.True(t, world.IsAdjacent(center, o.Path[1]))
	assert.NotEqual(t, world.Pos{X: 1, Y: 0}, o.Path[1], "never targets impassable cells")
	assert.Equal(t, 3, o.Requested)
	assert.Equal(t, march.SourceAI, o.Source)
}

func TestEasyIgnoresWeakCells(t *testing.T) {
	s, m, reg, rec := setup(t, 3, 3, players.TierEasy)
	place(m, world.Pos{X: 0, Y: 0}, 1, 1)
	place(m, world.Pos{X: 2, Y: 2}, 1, 1)
	reg.Recompute(m, nil)

	assert.Zero(t, s.Decide(reg.ByID(1)))
	assert.Empty(t, rec.orders)
}

func TestMediumActsAboveAverageOnly(t *testing.T) {
	s, m, reg, rec := setup(t, 3, 3, players.TierMedium)
	place(m, world.Pos{X: 0, Y: 0}, 1, 10)
	place(m, world.Pos{X: 0, Y: 1}, 1, 1)
	pc := world.Pos{X: 2, Y: 0}
	m.SetTerrain(pc, world.TerrainPoliticalCenter)
	place(m, pc, 0, 1)
	reg.Recompute(m, nil)

	require.Equal(t, 1, s.Decide(reg.ByID(1)))
	o := rec.orders[0]
	assert.Equal(t, []world.Pos{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}, o.Path[:3],
		"heads for the weak enemy political center first")
	assert.True(t, world.ValidPath(m, o.Path))
	assert.Equal(t, 6, o.Requested)
}

func TestRankOrdersByScoreThenScan(t *testing.T) {
	s, m, reg, _ := setup(t, 3, 3, players.TierMedium)
	origin := world.Pos{X: 0, Y: 0}
	place(m, origin, 1, 10)
	m.SetTerrain(world.Pos{X: 1, Y: 1}, world.TerrainPopulationCenter)
	m.SetTerrain(world.Pos{X: 2, Y: 2}, world.TerrainLake)
	reg.Recompute(m, nil)

	cell, _ := m.Get(origin)
	ranked := s.Rank(reg.ByID(1), s.Profile(players.TierMedium), cell)
	require.Len(t, ranked, 7, "origin and lake excluded")
	assert.Equal(t, world.Pos{X: 1, Y: 1}, ranked[0].Pos)
	assert.Equal(t, 80.0, ranked[0].Score)
	assert.Equal(t, world.Pos{X: 1, Y: 0}, ranked[1].Pos, "ties keep scan order")
	assert.Equal(t, world.Pos{X: 2, Y: 0}, ranked[2].Pos)
}

func TestHardHeadsForNearestStrategicCell(t *testing.T) {
	s, m, reg, rec := setup(t, 5, 1, players.TierHard)
	place(m, world.Pos{X: 0, Y: 0}, 1, 8)
	m.SetTerrain(world.Pos{X: 4, Y: 0}, world.TerrainPopulationCenter)
	reg.Recompute(m, nil)

	require.Equal(t, 1, s.Decide(reg.ByID(1)))
	o := rec.orders[0]
	assert.Len(t, o.Path, 5)
	assert.Equal(t, world.Pos{X: 4, Y: 0}, o.Path[4])
	assert.Equal(t, 6, o.Requested)
}

func TestHardTruncatesLongRoutes(t *testing.T) {
	s, m, reg, rec := setup(t, 9, 1, players.TierHard)
	place(m, world.Pos{X: 0, Y: 0}, 1, 8)
	m.SetTerrain(world.Pos{X: 8, Y: 0}, world.TerrainHeadquarters)
	place(m, world.Pos{X: 8, Y: 0}, 0, 3)
	reg.Recompute(m, nil)

	require.Equal(t, 1, s.Decide(reg.ByID(1)))
	assert.Len(t, rec.orders[0].Path, 7)
	assert.Equal(t, world.Pos{X: 6, Y: 0}, rec.orders[0].Destination())
}

func TestHardFallsBackToScoring(t *testing.T) {
	s, m, reg, rec := setup(t, 2, 1, players.TierHard)
	place(m, world.Pos{X: 0, Y: 0}, 1, 5)
	reg.Recompute(m, nil)

	require.Equal(t, 1, s.Decide(reg.ByID(1)))
	assert.Equal(t, []world.Pos{{X: 0, Y: 0}, {X: 1, Y: 0}}, rec.orders[0].Path)
}

func TestHardStrongestCellsFirst(t *testing.T) {
	s, m, reg, rec := setup(t, 5, 1, players.TierHard)
	for x, troops := range []int{3, 9, 2, 7} {
		place(m, world.Pos{X: x, Y: 0}, 1, troops)
	}
	m.SetTerrain(world.Pos{X: 4, Y: 0}, world.TerrainPoliticalCenter)
	reg.Recompute(m, nil)

	require.Equal(t, 3, s.Decide(reg.ByID(1)))
	assert.Equal(t, world.Pos{X: 1, Y: 0}, rec.orders[0].Origin())
	assert.Equal(t, world.Pos{X: 3, Y: 0}, rec.orders[1].Origin())
	assert.Equal(t, world.Pos{X: 0, Y: 0}, rec.orders[2].Origin())
}

func TestUpdateTimersAndCap(t *testing.T) {
	s, m, reg, rec := setup(t, 3, 3, players.TierEasy)
	place(m, world.Pos{X: 1, Y: 1}, 1, 9)
	reg.Recompute(m, nil)

	ai := reg.ByID(1)
	require.GreaterOrEqual(t, ai.DecisionTimer, 5.0)
	require.Less(t, ai.DecisionTimer, 8.0)
	assert.Zero(t, reg.ByID(0).DecisionTimer, "humans have no timer")

	assert.Zero(t, s.Update(0))
	assert.Zero(t, s.Update(4.9))
	assert.Equal(t, 1, s.Update(3.2))
	assert.GreaterOrEqual(t, ai.DecisionTimer, 5.0, "reseeded after deciding")

	rec.active[1] = 3
	assert.Zero(t, s.Update(8))
	assert.Len(t, rec.orders, 1)
	assert.Greater(t, ai.DecisionTimer, 0.0, "timer still reseeds at the cap")

	rec.active[1] = 0
	reg.MarkDefeated(1)
	assert.Zero(t, s.Update(100))
}

func TestDispatchThroughScheduler(t *testing.T) {
	reg, err := players.NewRegistry([]players.Spec{{ID: 0, Name: "P"}, {ID: 1, Name: "AI", IsAI: true, Tier: players.TierHard}})
	require.NoError(t, err)
	m := world.NewMap(12, 1)
	place(m, world.Pos{X: 0, Y: 0}, 1, 4)
	m.SetTerrain(world.Pos{X: 11, Y: 0}, world.TerrainPoliticalCenter)
	reg.Recompute(m, nil)

	sched := march.NewScheduler(m, nil, nil, march.Rules{Interval: 2, MaxPathSteps: 10})
	s, err := NewStrategist(m, reg, sched, nil, 3, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	require.Equal(t, 1, s.Decide(reg.ByID(1)))
	require.Equal(t, 1, sched.CountFor(1))
	assert.Equal(t, 6, sched.Orders()[0].Steps())
}
