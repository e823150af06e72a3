package engine

import (
	"github.com/talgya/conquest/internal/events"
	"github.com/talgya/conquest/internal/world"
)

// Entry is a notable occurrence in the match.
type Entry struct {
	At          float64        `json:"at"` // simulated seconds
	Category    string         `json:"category"`
	Player      world.PlayerID `json:"player"`
	Description string         `json:"description"`
}

// Journal keeps the most recent notable events: strategic cells changing
// hands, defeats and the end of the match. Order queue churn is not kept.
type Journal struct {
	entries []Entry
	limit   int
}

// NewJournal creates a journal holding at most limit entries.
func NewJournal(limit int) *Journal {
	return &Journal{limit: limit}
}

// Record adds ev at time at if it is notable.
func (j *Journal) Record(at float64, ev events.Event) {
	var player world.PlayerID
	switch e := ev.(type) {
	case events.OwnershipChanged:
		if !e.Terrain.Strategic() {
			return
		}
		player = e.NewOwner
	case events.PlayerDefeated:
		player = e.Player
	case events.GameOver:
		player = e.Winner
	default:
		return
	}

	j.entries = append(j.entries, Entry{At: at, Category: ev.Kind().String(), Player: player, Description: ev.String()})
	if j.limit > 0 && len(j.entries) > j.limit {
		j.entries = append(j.entries[:0], j.entries[len(j.entries)-j.limit:]...)
	}
}

// Entries returns the journal oldest first.
func (j *Journal) Entries() []Entry {
	return append([]Entry(nil), j.entries...)
}

// Recent returns up to n of the newest entries, oldest first.
func (j *Journal) Recent(n int) []Entry {
	if n <= 0 || n > len(j.entries) {
		n = len(j.entries)
	}
	return append([]Entry(nil), j.entries[len(j.entries)-n:]...)
}
