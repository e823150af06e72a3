package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/conquest/internal/events"
)

func TestSetSpeedClamps(t *testing.T) {
	r := NewRunner(newGame(t, defaultStrip()))

	tests := []struct {
		in, want float64
	}{
		{1, 1},
		{10, MaxSpeed},
		{0.1, MinSpeed},
		{0, 0},
		{-3, 0},
		{2.5, 2.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.SetSpeed(tt.in))
		assert.Equal(t, tt.want, r.Speed())
	}
}

func TestStepScalesTime(t *testing.T) {
	g := newGame(t, defaultStrip())
	r := NewRunner(g)
	r.Interval = 500 * time.Millisecond

	r.SetSpeed(0)
	assert.False(t, r.Step())
	assert.Zero(t, r.Ticks(), "paused")

	r.SetSpeed(2)
	assert.False(t, r.Step())
	assert.Equal(t, uint64(1), r.Ticks())
	r.Do(func(g *Game) {
		assert.Equal(t, 1.0, g.Elapsed)
	})
}

func TestStepReportsEventsAndGameOver(t *testing.T) {
	g := newGame(t, defaultStrip())
	r := NewRunner(g)

	var got []events.Event
	overCalls := 0
	r.OnEvents = func(_ *Game, evs []events.Event) { got = append(got, evs...) }
	r.OnGameOver = func(*Game) { overCalls++ }

	r.Do(func(g *Game) { g.Map.SetOwner(at(4), 0) })
	assert.True(t, r.Step())
	assert.True(t, r.Step())
	assert.Equal(t, 1, overCalls)
	require.NotEmpty(t, got)
	assert.Equal(t, events.GameOver{Winner: 0}, got[len(got)-1])
}

func TestRunStopsOnContext(t *testing.T) {
	r := NewRunner(newGame(t, defaultStrip()))
	r.Interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the context expired")
	}
	assert.Positive(t, r.Ticks())
}

func TestRunStopsOnStopAndGameOver(t *testing.T) {
	r := NewRunner(newGame(t, defaultStrip()))
	r.Interval = time.Millisecond
	r.Stop()
	r.Stop()

	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	g := newGame(t, defaultStrip())
	g.Map.SetOwner(at(4), 0)
	r = NewRunner(g)
	r.Interval = time.Millisecond
	done = make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the match ended")
	}
	r.Do(func(g *Game) { assert.True(t, g.Over()) })
}
