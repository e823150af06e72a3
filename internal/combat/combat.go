// Package combat resolves marching troops arriving on a cell they do not own.
package combat

import (
	"log/slog"

	"github.com/talgya/conquest/internal/players"
	"github.com/talgya/conquest/internal/world"
)

// Outcome is the result of one attack.
type Outcome struct {
	Owner    world.PlayerID // Owner after the fight
	Troops   int            // Troops left on the cell
	Captured bool           // Ownership passed to the attacker
}

// Resolve computes the result of attackers troops arriving on a cell held by
// owner with defenders troops. It has no side effects.
//
// Unowned cells are always taken and keep at least one troop. Against an
// enemy the difference decides: positive captures, zero annihilates both
// sides without changing hands, negative leaves a weakened defender.
func Resolve(attacker, owner world.PlayerID, attackers, defenders int) Outcome {
	if owner == attacker {
		return Outcome{Owner: owner, Troops: defenders + attackers}
	}
	if owner == world.Unowned {
		troops := attackers - defenders
		if troops < 1 {
			troops = 1
		}
		return Outcome{Owner: attacker, Troops: troops, Captured: true}
	}

	result := attackers - defenders
	switch {
	case result > 0:
		return Outcome{Owner: attacker, Troops: result, Captured: true}
	case result == 0:
		return Outcome{Owner: owner, Troops: 0}
	default:
		return Outcome{Owner: owner, Troops: -result}
	}
}

// Resolver applies combat outcomes to the grid and runs capture side effects.
type Resolver struct {
	Map     *world.Map
	Players *players.Registry

	// OnHeadquartersLost runs right after a headquarters changes hands and
	// its previous owner has been marked defeated. The engine evaluates the
	// win condition here so the elimination is visible before the next AI pass.
	OnHeadquartersLost func(prev, captor world.PlayerID)
}

// NewResolver creates a resolver bound to a grid and registry.
func NewResolver(m *world.Map, reg *players.Registry) *Resolver {
	return &Resolver{Map: m, Players: reg}
}

// Attack sends troops of attacker into pos. Impassable and out-of-bounds
// targets are ignored and report ok=false.
func (r *Resolver) Attack(attacker world.PlayerID, pos world.Pos, troops int) (Outcome, bool) {
	cell, ok := r.Map.Get(pos)
	if !ok || !cell.Terrain.Passable() {
		return Outcome{}, false
	}

	out := Resolve(attacker, cell.Owner, troops, cell.Troops)
	if out.Captured {
		r.Map.SetOwner(pos, out.Owner)
	}
	r.Map.SetTroops(pos, out.Troops)

	slog.Debug("combat resolved",
		"attacker", attacker,
		"pos", pos,
		"defender", cell.Owner,
		"attackers", troops,
		"defenders", cell.Troops,
		"owner", out.Owner,
		"troops", out.Troops,
	)

	if out.Captured {
		r.onCapture(cell, attacker)
	}
	return out, true
}

func (r *Resolver) onCapture(cell world.Cell, attacker world.PlayerID) {
	prev := cell.Owner

	switch cell.Terrain {
	case world.TerrainPoliticalCenter:
		if p := r.Players.ByID(attacker); p != nil {
			p.PoliticalCenters++
		}
		if p := r.Players.ByID(prev); p != nil && p.PoliticalCenters > 0 {
			p.PoliticalCenters--
		}
	case world.TerrainHeadquarters:
		if prev == world.Unowned {
			return
		}
		slog.Info("headquarters captured", "pos", cell.Pos, "captor", attacker, "previous_owner", prev)
		r.Players.MarkDefeated(prev)
		if r.OnHeadquartersLost != nil {
			r.OnHeadquartersLost(prev, attacker)
		}
	}
}
