// Package events defines the typed notifications the simulation core raises
// for the presentation layer. Events are queued in a Log and drained
// explicitly by the consumer; there is no broadcast bus.
package events

import (
	"fmt"

	"github.com/talgya/conquest/internal/world"
)

// Kind enumerates event types.
type Kind uint8

const (
	KindOwnershipChanged Kind = iota
	KindOrderQueueChanged
	KindPlayerDefeated
	KindGameOver
)

var kindNames = [...]string{"ownership_changed", "order_queue_changed", "player_defeated", "game_over"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Event is implemented by every outbound event struct.
type Event interface {
	Kind() Kind
	String() string
}

// OwnershipChanged is raised whenever a cell changes hands.
type OwnershipChanged struct {
	Pos      world.Pos
	Terrain  world.Terrain
	OldOwner world.PlayerID
	NewOwner world.PlayerID
}

func (OwnershipChanged) Kind() Kind { return KindOwnershipChanged }

func (e OwnershipChanged) String() string {
	return fmt.Sprintf("%s %v: %d -> %d", e.Terrain, e.Pos, e.OldOwner, e.NewOwner)
}

// OrderQueueChanged is raised when marching orders are added, advanced,
// completed or cancelled.
type OrderQueueChanged struct {
	Length int
}

func (OrderQueueChanged) Kind() Kind { return KindOrderQueueChanged }

func (e OrderQueueChanged) String() string {
	return fmt.Sprintf("order queue length %d", e.Length)
}

// PlayerDefeated is raised once per player when their headquarters falls.
type PlayerDefeated struct {
	Player world.PlayerID
}

func (PlayerDefeated) Kind() Kind { return KindPlayerDefeated }

func (e PlayerDefeated) String() string {
	return fmt.Sprintf("player %d defeated", e.Player)
}

// GameOver is the single terminal event of a match.
type GameOver struct {
	Winner world.PlayerID
}

func (GameOver) Kind() Kind { return KindGameOver }

func (e GameOver) String() string {
	return fmt.Sprintf("game over, winner %d", e.Winner)
}

// Log buffers events until the consumer drains them.
type Log struct {
	pending []Event
}

// Push appends events to the log.
func (l *Log) Push(evs ...Event) {
	l.pending = append(l.pending, evs...)
}

// Drain returns all pending events and clears the log.
func (l *Log) Drain() []Event {
	out := l.pending
	l.pending = nil
	return out
}

// Len returns the number of pending events.
func (l *Log) Len() int {
	return len(l.pending)
}
