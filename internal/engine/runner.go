package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/conquest/internal/events"
)

// Speed limits for the real-time loop. A speed of 0 pauses.
const (
	MinSpeed = 0.5
	MaxSpeed = 4.0
)

// Runner drives a Game in real time. All access to the game, from the loop
// and from any other goroutine, goes through Do.
type Runner struct {
	Interval    time.Duration // real time between ticks (default 100ms)
	StatusEvery uint64        // ticks between status log lines; 0 disables

	// Called with the runner lock held after every tick that raised events.
	OnEvents func(g *Game, evs []events.Event)
	// Called once, lock held, when the match is decided.
	OnGameOver func(g *Game)

	mu      sync.Mutex
	game    *Game
	speed   float64
	ticks   uint64
	running bool
	stop    chan struct{}
}

// NewRunner creates a runner at normal speed.
func NewRunner(g *Game) *Runner {
	return &Runner{
		Interval:    100 * time.Millisecond,
		StatusEvery: 300,
		game:        g,
		speed:       1,
		stop:        make(chan struct{}),
	}
}

// Do runs fn with exclusive access to the game.
func (r *Runner) Do(fn func(g *Game)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.game)
}

// SetSpeed sets the time multiplier, clamped to [MinSpeed, MaxSpeed].
// Zero or less pauses. It returns the speed in effect.
func (r *Runner) SetSpeed(s float64) float64 {
	switch {
	case s <= 0:
		s = 0
	case s < MinSpeed:
		s = MinSpeed
	case s > MaxSpeed:
		s = MaxSpeed
	}
	r.mu.Lock()
	r.speed = s
	r.mu.Unlock()
	slog.Info("speed changed", "speed", s)
	return s
}

// Speed returns the current time multiplier.
func (r *Runner) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speed
}

// Ticks returns the number of ticks run so far.
func (r *Runner) Ticks() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks
}

// Run starts the loop. It blocks until ctx is done, Stop is called or the
// match ends.
func (r *Runner) Run(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	if r.Interval <= 0 {
		r.Interval = 100 * time.Millisecond
	}
	interval := r.Interval
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	slog.Info("match loop started", "match", r.game.MatchID, "interval", interval, "speed", r.Speed())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("match loop stopped", "reason", ctx.Err(), "ticks", r.Ticks())
			return
		case <-r.stop:
			slog.Info("match loop stopped", "reason", "stop", "ticks", r.Ticks())
			return
		case <-ticker.C:
			if over := r.Step(); over {
				slog.Info("match loop finished", "ticks", r.Ticks())
				return
			}
		}
	}
}

// Stop halts a running loop. Calling it more than once is harmless.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}

// Step advances the game by one interval scaled by the current speed. It
// reports whether the match is over.
func (r *Runner) Step() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := r.game
	if g.Over() {
		return true
	}
	if r.speed <= 0 {
		return false
	}

	r.ticks++
	evs := g.Tick(r.Interval.Seconds() * r.speed)
	if len(evs) > 0 && r.OnEvents != nil {
		r.OnEvents(g, evs)
	}
	if r.StatusEvery > 0 && r.ticks%r.StatusEvery == 0 {
		r.logStatus()
	}
	if g.Over() {
		if r.OnGameOver != nil {
			r.OnGameOver(g)
		}
		return true
	}
	return false
}

func (r *Runner) logStatus() {
	g := r.game
	for _, s := range g.Summaries() {
		slog.Info("player status",
			"elapsed", humanize.FormatFloat("#,###.#", g.Elapsed),
			"player", s.ID,
			"name", s.Name,
			"cells", s.OwnedCells,
			"troops", humanize.Comma(int64(s.TotalTroops)),
			"orders", s.ActiveOrders,
			"defeated", s.Defeated,
		)
	}
}
