// Package march runs the marching order queue: multi-step troop movements
// that advance one hop per pass, strictly in FIFO order across all players.
package march

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/conquest/internal/combat"
	"github.com/talgya/conquest/internal/events"
	"github.com/talgya/conquest/internal/world"
)

// Request errors. Rejected requests never mutate state.
var (
	ErrNotOwner     = errors.New("origin not owned by player")
	ErrTooFewTroops = errors.New("origin has fewer than 2 troops")
	ErrPathTooShort = errors.New("path needs an origin and at least one destination")
	ErrPathTooLong  = errors.New("path exceeds maximum length")
	ErrInvalidPath  = errors.New("path leaves the map, crosses impassable terrain or skips a cell")
	ErrHalted       = errors.New("scheduler halted")
)

// Source tells who issued an order.
type Source uint8

const (
	SourceManual Source = iota
	SourceAI
)

func (s Source) String() string {
	if s == SourceAI {
		return "ai"
	}
	return "manual"
}

// Order is one queued troop movement. Path[0] is the origin and Step is the
// index of the cell the troops currently stand on.
type Order struct {
	ID        uint64
	Player    world.PlayerID
	Path      []world.Pos
	Step      int
	Requested int // troops asked for at creation; display only
	Source    Source
}

// Origin returns the first cell of the path.
func (o *Order) Origin() world.Pos { return o.Path[0] }

// Destination returns the last cell of the path.
func (o *Order) Destination() world.Pos { return o.Path[len(o.Path)-1] }

// Steps returns the number of hops the order makes in total.
func (o *Order) Steps() int { return len(o.Path) - 1 }

// Complete reports whether the order has reached its destination.
func (o *Order) Complete() bool { return o.Step >= len(o.Path)-1 }

func (o *Order) String() string {
	return fmt.Sprintf("order %d (player %d, %s) %v->%v step %d/%d",
		o.ID, o.Player, o.Source, o.Origin(), o.Destination(), o.Step, o.Steps())
}

// Rules configures the scheduler.
type Rules struct {
	Interval     float64 // seconds between passes; 0 means every Update runs a pass
	MaxPathSteps int     // destination hops per order, origin excluded
}

// Scheduler owns the marching queue.
type Scheduler struct {
	Map      *world.Map
	Resolver *combat.Resolver
	Events   *events.Log // optional
	Rules    Rules

	queue  []*Order
	nextID uint64
	timer  float64
	halted bool
}

// NewScheduler creates an empty queue bound to a grid and combat resolver.
func NewScheduler(m *world.Map, r *combat.Resolver, log *events.Log, rules Rules) *Scheduler {
	return &Scheduler{Map: m, Resolver: r, Events: log, Rules: rules}
}

// Create validates a dispatch and appends it to the queue. Manual paths that
// are too long are rejected; AI paths are truncated to the maximum instead.
func (s *Scheduler) Create(player world.PlayerID, path []world.Pos, troops int, source Source) (*Order, error) {
	if s.halted {
		return nil, ErrHalted
	}
	if len(path) < 2 {
		return nil, ErrPathTooShort
	}
	if limit := s.Rules.MaxPathSteps; limit > 0 && len(path)-1 > limit {
		if source != SourceAI {
			return nil, fmt.Errorf("%w: %d steps, limit %d", ErrPathTooLong, len(path)-1, limit)
		}
		path = path[:limit+1]
	}

	origin, ok := s.Map.Get(path[0])
	if !ok || origin.Owner != player {
		return nil, fmt.Errorf("%w: %v", ErrNotOwner, path[0])
	}
	if origin.Troops < 2 {
		return nil, fmt.Errorf("%w: %v holds %d", ErrTooFewTroops, path[0], origin.Troops)
	}
	if !world.ValidPath(s.Map, path) {
		return nil, ErrInvalidPath
	}

	s.nextID++
	o := &Order{
		ID:        s.nextID,
		Player:    player,
		Path:      append([]world.Pos(nil), path...),
		Requested: troops,
		Source:    source,
	}
	s.queue = append(s.queue, o)
	slog.Debug("order queued", "order", o.ID, "player", player, "source", source,
		"from", o.Origin(), "to", o.Destination(), "steps", o.Steps(), "requested", troops)
	s.queueChanged()
	return o, nil
}

// Update advances the pass timer by dt seconds and runs one pass each time
// the interval elapses. It returns the number of passes that ran.
func (s *Scheduler) Update(dt float64) int {
	if s.Rules.Interval <= 0 {
		if s.Pass() {
			return 1
		}
		return 0
	}
	if dt <= 0 {
		return 0
	}
	s.timer += dt
	passes := 0
	for s.timer >= s.Rules.Interval && !s.halted {
		s.timer -= s.Rules.Interval
		s.Pass()
		passes++
	}
	return passes
}

// Pass advances the head of the queue by one hop. Stale heads (origin cell
// lost, or nothing left to move) are dropped and the next head is tried, so
// at most one order touches the grid per pass. It reports whether an order moved.
func (s *Scheduler) Pass() bool {
	for len(s.queue) > 0 && !s.halted {
		o := s.queue[0]
		// Combat side effects may reshape the queue, so removal goes by identity.
		if s.advance(o) {
			if o.Complete() {
				s.remove(o)
				slog.Debug("order complete", "order", o.ID, "player", o.Player, "to", o.Destination())
			}
			s.queueChanged()
			return true
		}
		s.remove(o)
		s.queueChanged()
	}
	return false
}

// Halt drops the queue, stops all further passes and rejects new orders.
// Used once the match is decided; no queue events follow it.
func (s *Scheduler) Halt() {
	s.halted = true
	s.queue = nil
}

// Halted reports whether Halt was called.
func (s *Scheduler) Halted() bool { return s.halted }

func (s *Scheduler) remove(o *Order) {
	for i, q := range s.queue {
		if q == o {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// advance moves the troops of o one hop. It returns false, without touching
// the grid, when the order must be cancelled.
func (s *Scheduler) advance(o *Order) bool {
	from, to := o.Path[o.Step], o.Path[o.Step+1]

	fromCell, ok := s.Map.Get(from)
	if !ok || fromCell.Owner != o.Player {
		slog.Debug("order cancelled, origin lost", "order", o.ID, "player", o.Player, "at", from)
		return false
	}
	movable := fromCell.Troops - 1
	if movable <= 0 {
		slog.Debug("order cancelled, nothing to move", "order", o.ID, "player", o.Player, "at", from)
		return false
	}

	s.Map.SetTroops(from, 1)
	if s.Map.Owner(to) == o.Player {
		s.Map.AddTroops(to, movable)
	} else {
		s.Resolver.Attack(o.Player, to, movable)
	}
	o.Step++
	return true
}

// CancelPlayer drops every queued order of a player. It returns how many
// orders were removed.
func (s *Scheduler) CancelPlayer(id world.PlayerID) int {
	kept := s.queue[:0]
	removed := 0
	for _, o := range s.queue {
		if o.Player == id {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = nil
	}
	s.queue = kept
	if removed > 0 {
		slog.Debug("orders cancelled", "player", id, "count", removed)
		s.queueChanged()
	}
	return removed
}

// Clear empties the queue.
func (s *Scheduler) Clear() {
	if len(s.queue) == 0 {
		return
	}
	s.queue = nil
	s.queueChanged()
}

// Len returns the number of queued orders.
func (s *Scheduler) Len() int { return len(s.queue) }

// Orders returns the queue in processing order. The slice is a copy; the
// orders themselves are shared and must not be modified.
func (s *Scheduler) Orders() []*Order {
	return append([]*Order(nil), s.queue...)
}

// OrdersFor returns the queued orders of one player in processing order.
func (s *Scheduler) OrdersFor(id world.PlayerID) []*Order {
	var out []*Order
	for _, o := range s.queue {
		if o.Player == id {
			out = append(out, o)
		}
	}
	return out
}

// CountFor returns the number of queued orders of one player.
func (s *Scheduler) CountFor(id world.PlayerID) int {
	n := 0
	for _, o := range s.queue {
		if o.Player == id {
			n++
		}
	}
	return n
}

func (s *Scheduler) queueChanged() {
	if s.Events != nil && !s.halted {
		s.Events.Push(events.OrderQueueChanged{Length: len(s.queue)})
	}
}
