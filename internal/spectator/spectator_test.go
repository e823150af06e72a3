package spectator

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/conquest/internal/api"
	"github.com/talgya/conquest/internal/engine"
	"github.com/talgya/conquest/internal/level"
	"github.com/talgya/conquest/internal/world"
)

func newServer(t *testing.T) (*httptest.Server, *engine.Runner) {
	t.Helper()
	g, err := engine.New(&level.Descriptor{
		ID:      "duel",
		Name:    "Duel",
		MapSize: level.Size{Width: 4, Height: 1},
		MapData: level.MapData{
			Terrain:      [][]int{{3, 0, 0, 3}},
			Ownership:    [][]int{{0, 0, -1, 1}},
			Troops:       [][]int{{5, 2, 0, 5}},
			Headquarters: [][]int{{0, 0, 0}, {1, 3, 0}},
		},
		Players: []level.PlayerData{
			{ID: 0, Name: "Player"},
			{ID: 1, Name: "AI", IsAI: true, AILevel: 1},
		},
	}, engine.Options{Seed: 3})
	require.NoError(t, err)

	runner := engine.NewRunner(g)
	srv := httptest.NewServer((&api.Server{Runner: runner, AdminKey: "secret"}).Handler())
	t.Cleanup(srv.Close)
	return srv, runner
}

func TestObserve(t *testing.T) {
	srv, _ := newServer(t)
	o := NewObserver(srv.URL)
	require.True(t, o.Ready())

	snap, err := o.Observe()
	require.NoError(t, err)
	assert.Equal(t, "duel", snap.Status.Match.Level)
	assert.Equal(t, 4, snap.Status.Match.Width)
	assert.Equal(t, 1.0, snap.Status.Speed)
	require.Len(t, snap.Players, 2)
	assert.Equal(t, 2, snap.Players[0].OwnedCells)
	assert.Equal(t, 7, snap.Players[0].TotalTroops)
	assert.Empty(t, snap.Events)
}

func TestObserveUnreachable(t *testing.T) {
	srv, _ := newServer(t)
	url := srv.URL
	srv.Close()

	o := NewObserver(url)
	assert.False(t, o.Ready())
	_, err := o.Observe()
	assert.ErrorContains(t, err, "fetch status")
}

func TestActorSetSpeed(t *testing.T) {
	srv, runner := newServer(t)

	got, err := NewActor(srv.URL, "secret").SetSpeed(10)
	require.NoError(t, err)
	assert.Equal(t, engine.MaxSpeed, got)
	assert.Equal(t, engine.MaxSpeed, runner.Speed())

	_, err = NewActor(srv.URL, "wrong").SetSpeed(1)
	assert.ErrorContains(t, err, "401")
	assert.Equal(t, engine.MaxSpeed, runner.Speed())
}

func summary(id world.PlayerID, cells, troops int, defeated bool) engine.Summary {
	return engine.Summary{ID: id, Name: "p", OwnedCells: cells, TotalTroops: troops, Defeated: defeated}
}

func TestTriagePhases(t *testing.T) {
	status := func(over bool) MatchStatus {
		return MatchStatus{Match: engine.Status{Width: 10, Height: 10, Over: over}}
	}

	opening := Triage(&Snapshot{
		Status:  status(false),
		Players: []engine.Summary{summary(0, 10, 20, false), summary(1, 8, 30, false)},
	})
	assert.Equal(t, PhaseOpening, opening.Phase)
	assert.Equal(t, world.PlayerID(0), opening.Leader)
	assert.InDelta(t, 0.18, opening.Claimed, 1e-9)
	assert.Equal(t, 2, opening.Standing)

	contested := Triage(&Snapshot{
		Status:  status(false),
		Players: []engine.Summary{summary(0, 20, 50, false), summary(1, 30, 50, false)},
	})
	assert.Equal(t, PhaseContested, contested.Phase)
	assert.Equal(t, world.PlayerID(1), contested.Leader)
	assert.InDelta(t, 0.6, contested.CellShare, 1e-9)

	dominant := Triage(&Snapshot{
		Status:  status(false),
		Players: []engine.Summary{summary(0, 45, 90, false), summary(1, 5, 10, false)},
	})
	assert.Equal(t, PhaseDominant, dominant.Phase)
	assert.InDelta(t, 0.9, dominant.TroopShare, 1e-9)

	decided := Triage(&Snapshot{
		Status:  status(true),
		Players: []engine.Summary{summary(0, 50, 90, false), summary(1, 0, 0, true)},
	})
	assert.Equal(t, PhaseDecided, decided.Phase)
	assert.Equal(t, 1, decided.Standing)
}

func TestSpeedFor(t *testing.T) {
	assert.Equal(t, 2.0, SpeedFor(PhaseOpening))
	assert.Equal(t, 1.0, SpeedFor(PhaseContested))
	assert.Equal(t, engine.MaxSpeed, SpeedFor(PhaseDominant))
	assert.Equal(t, 1.0, SpeedFor(PhaseDecided))
}
