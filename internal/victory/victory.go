// Package victory decides when a match is over. A player is defeated exactly
// when the cell at their headquarters is owned by someone else; cells held
// elsewhere on the map do not matter.
package victory

import (
	"log/slog"

	"github.com/talgya/conquest/internal/events"
	"github.com/talgya/conquest/internal/players"
	"github.com/talgya/conquest/internal/world"
)

// Evaluator checks headquarters ownership and latches the first result.
type Evaluator struct {
	Map     *world.Map
	Players *players.Registry
	Events  *events.Log // optional

	over     bool
	winner   world.PlayerID
	reported map[world.PlayerID]bool
}

// NewEvaluator creates an evaluator for a match in progress.
func NewEvaluator(m *world.Map, reg *players.Registry, log *events.Log) *Evaluator {
	return &Evaluator{
		Map:      m,
		Players:  reg,
		Events:   log,
		winner:   world.Unowned,
		reported: make(map[world.PlayerID]bool),
	}
}

// Evaluate marks defeated every player whose headquarters has fallen and
// reports the winner once the match is decided:
//   - every human defeated: the first undefeated AI wins
//   - every AI defeated while a human stands: the first undefeated human wins
//
// It is safe to call repeatedly. Defeat flags never revert and GameOver is
// raised once.
func (e *Evaluator) Evaluate() (world.PlayerID, bool) {
	if e.over {
		return e.winner, true
	}

	for _, p := range e.Players.All() {
		if e.Players.HeadquartersLost(e.Map, p.ID) {
			e.Players.MarkDefeated(p.ID)
		}
	}
	e.emitDefeats()

	humans, ais := e.Players.Humans(), e.Players.AIs()
	if len(humans) == 0 || len(ais) == 0 {
		e.lastStanding()
		return e.winner, e.over
	}

	humanStanding, humanAlive := firstStanding(humans)
	aiStanding, aiAlive := firstStanding(ais)

	switch {
	case !humanAlive && aiAlive:
		e.finish(aiStanding)
	case !aiAlive && humanAlive:
		e.finish(humanStanding)
	case !aiAlive && !humanAlive:
		// Both sides fell in the same instant; nobody is left to take the win.
		e.finish(world.Unowned)
	}
	return e.winner, e.over
}

// lastStanding decides one-sided matches (AI only, or humans only): the
// match ends when a single player remains.
func (e *Evaluator) lastStanding() {
	all := e.Players.All()
	if len(all) < 2 {
		return
	}
	var standing []world.PlayerID
	for _, p := range all {
		if !p.Defeated {
			standing = append(standing, p.ID)
		}
	}
	switch len(standing) {
	case 0:
		e.finish(world.Unowned)
	case 1:
		e.finish(standing[0])
	}
}

// Over reports whether the match has been decided.
func (e *Evaluator) Over() bool { return e.over }

// Winner returns the latched winner, or world.Unowned.
func (e *Evaluator) Winner() world.PlayerID { return e.winner }

func (e *Evaluator) finish(winner world.PlayerID) {
	e.over = true
	e.winner = winner
	slog.Info("game over", "winner", winner)
	if e.Events != nil {
		e.Events.Push(events.GameOver{Winner: winner})
	}
}

// emitDefeats raises PlayerDefeated once for every newly defeated player,
// including those marked by combat since the last evaluation.
func (e *Evaluator) emitDefeats() {
	for _, p := range e.Players.All() {
		if !p.Defeated || e.reported[p.ID] {
			continue
		}
		e.reported[p.ID] = true
		if e.Events != nil {
			e.Events.Push(events.PlayerDefeated{Player: p.ID})
		}
	}
}

func firstStanding(ps []*players.Player) (world.PlayerID, bool) {
	for _, p := range ps {
		if !p.Defeated {
			return p.ID, true
		}
	}
	return world.Unowned, false
}
