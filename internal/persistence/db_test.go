package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/conquest/internal/engine"
	"github.com/talgya/conquest/internal/level"
	"github.com/talgya/conquest/internal/world"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleMatch(id string, finished int64) MatchRecord {
	return MatchRecord{
		ID:         id,
		Level:      "level1",
		Name:       "First Blood",
		Seed:       42,
		Winner:     0,
		Elapsed:    187.5,
		FinishedAt: finished,
		Players: []PlayerRecord{
			{PlayerID: 0, Name: "Player", Tier: "none", Cells: 14, Troops: 63},
			{PlayerID: 1, Name: "Red AI", IsAI: true, Tier: "medium", Cells: 3, Troops: 4, Defeated: true},
		},
		Events: []EventRecord{
			{At: 40, Category: "ownership_changed", Player: 0, Description: "political_center (3,4): -1 -> 0"},
			{At: 187.5, Category: "player_defeated", Player: 1, Description: "player 1 defeated"},
			{At: 187.5, Category: "game_over", Player: 0, Description: "game over, winner 0"},
		},
	}
}

func TestRecordAndReadMatch(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.RecordMatch(sampleMatch("m1", 1000)))

	m, err := db.Match("m1")
	require.NoError(t, err)
	assert.Equal(t, "First Blood", m.Name)
	assert.Equal(t, int64(42), m.Seed)
	assert.Equal(t, 187.5, m.Elapsed)
	assert.Equal(t, sampleMatch("m1", 1000).Players, m.Players)
	require.Len(t, m.Events, 3)
	assert.Equal(t, "game_over", m.Events[2].Category)

	last, err := db.LastMatch()
	require.NoError(t, err)
	assert.Equal(t, "m1", last)
}

func TestRecordMatchIsAtomic(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.RecordMatch(sampleMatch("m1", 1000)))

	dup := sampleMatch("m1", 2000)
	assert.Error(t, db.RecordMatch(dup), "duplicate id")

	bad := sampleMatch("m2", 2000)
	bad.Players = append(bad.Players, bad.Players[0])
	assert.Error(t, db.RecordMatch(bad), "duplicate player")

	_, err := db.Match("m2")
	assert.ErrorIs(t, err, ErrNotFound, "nothing of a failed match is kept")
	events, err := db.MatchEvents("m2")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecentMatchesNewestFirst(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.RecordMatch(sampleMatch("old", 1000)))
	require.NoError(t, db.RecordMatch(sampleMatch("new", 3000)))
	require.NoError(t, db.RecordMatch(sampleMatch("mid", 2000)))

	matches, err := db.RecentMatches(2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "new", matches[0].ID)
	assert.Equal(t, "mid", matches[1].ID)
	assert.Len(t, matches[0].Players, 2)
	assert.Empty(t, matches[0].Events, "events are loaded per match")
}

func TestEmptyLedger(t *testing.T) {
	db := openTemp(t)

	matches, err := db.RecentMatches(10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = db.LastMatch()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordGame(t *testing.T) {
	db := openTemp(t)
	g, err := engine.New(&level.Descriptor{
		ID:      "duel",
		Name:    "Duel",
		MapSize: level.Size{Width: 3, Height: 1},
		MapData: level.MapData{
			Terrain:      [][]int{{3, 0, 3}},
			Ownership:    [][]int{{0, -1, 1}},
			Troops:       [][]int{{5, 0, 5}},
			Headquarters: [][]int{{0, 0, 0}, {1, 2, 0}},
		},
		Players: []level.PlayerData{
			{ID: 0, Name: "Player"},
			{ID: 1, Name: "AI", IsAI: true, AILevel: 1},
		},
	}, engine.Options{Seed: 9})
	require.NoError(t, err)

	assert.Error(t, db.RecordGame(g), "match still in play")

	g.Map.SetOwner(world.Pos{X: 2, Y: 0}, 0)
	g.Tick(0.5)
	require.True(t, g.Over())
	require.NoError(t, db.RecordGame(g))

	m, err := db.Match(g.MatchID)
	require.NoError(t, err)
	assert.Equal(t, "duel", m.Level)
	assert.Equal(t, 0, m.Winner)
	require.Len(t, m.Players, 2)
	assert.True(t, m.Players[1].Defeated)
	assert.Equal(t, 2, m.Players[0].Cells)
	require.Len(t, m.Events, 3)
	assert.Equal(t, "player_defeated", m.Events[1].Category)
}
