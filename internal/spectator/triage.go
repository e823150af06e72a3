package spectator

import (
	"github.com/talgya/conquest/internal/engine"
	"github.com/talgya/conquest/internal/world"
)

// Phases of a match as judged from the board.
const (
	PhaseOpening   = "OPENING"   // most of the map still unclaimed
	PhaseContested = "CONTESTED" // no one clearly ahead
	PhaseDominant  = "DOMINANT"  // one player far ahead
	PhaseDecided   = "DECIDED"   // match over
)

// Thresholds on the leader's share of owned cells and troops.
const (
	openingClaimed = 0.35
	dominantShare  = 0.75
)

// Balance holds the derived standing of a match.
type Balance struct {
	Leader     world.PlayerID
	LeaderName string
	CellShare  float64 // leader's share of all owned cells
	TroopShare float64 // leader's share of all troops
	Claimed    float64 // owned cells over map cells
	Standing   int     // players not defeated
	Phase      string
}

// Triage computes a Balance from a snapshot.
func Triage(snap *Snapshot) *Balance {
	b := &Balance{Leader: world.Unowned}

	var cells, troops, best int
	for _, p := range snap.Players {
		cells += p.OwnedCells
		troops += p.TotalTroops
		if p.Defeated {
			continue
		}
		b.Standing++
		if b.Leader == world.Unowned || p.OwnedCells > best {
			b.Leader, b.LeaderName, best = p.ID, p.Name, p.OwnedCells
		}
	}

	if area := snap.Status.Match.Width * snap.Status.Match.Height; area > 0 {
		b.Claimed = float64(cells) / float64(area)
	}
	if cells > 0 {
		b.CellShare = float64(best) / float64(cells)
	}
	if troops > 0 {
		if p := leader(snap.Players, b.Leader); p != nil {
			b.TroopShare = float64(p.TotalTroops) / float64(troops)
		}
	}

	switch {
	case snap.Status.Match.Over:
		b.Phase = PhaseDecided
	case b.Claimed < openingClaimed:
		b.Phase = PhaseOpening
	case b.CellShare >= dominantShare && b.TroopShare >= dominantShare:
		b.Phase = PhaseDominant
	default:
		b.Phase = PhaseContested
	}
	return b
}

func leader(ps []engine.Summary, id world.PlayerID) *engine.Summary {
	for i := range ps {
		if ps[i].ID == id {
			return &ps[i]
		}
	}
	return nil
}

// SpeedFor returns the speed a spectator should run the match at in the
// given phase: faster through the opening and a one-sided endgame.
func SpeedFor(phase string) float64 {
	switch phase {
	case PhaseOpening:
		return 2
	case PhaseDominant:
		return engine.MaxSpeed
	default:
		return 1
	}
}
