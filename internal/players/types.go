// Package players provides player records, AI tiers, and the registry that
// keeps derived owned-cell data in sync with the grid.
package players

import (
	"strings"

	"github.com/talgya/conquest/internal/world"
)

// Tier is an AI difficulty level.
type Tier uint8

const (
	TierNone   Tier = 0 // Human player
	TierEasy   Tier = 1 // Slow, random, defensive
	TierMedium Tier = 2 // Balanced, attacks weak spots
	TierHard   Tier = 3 // Aggressive, goes for strategic cells
)

func (t Tier) String() string {
	switch t {
	case TierEasy:
		return "easy"
	case TierMedium:
		return "medium"
	case TierHard:
		return "hard"
	default:
		return "none"
	}
}

// ParseTier maps a level-file AI level (1..3) onto a tier. Unknown values
// fall back to easy, matching how the level files have always been read.
func ParseTier(level int) Tier {
	switch {
	case level >= 3:
		return TierHard
	case level == 2:
		return TierMedium
	default:
		return TierEasy
	}
}

// TierFromName parses "easy", "medium" or "hard".
func TierFromName(name string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "easy":
		return TierEasy, true
	case "medium":
		return TierMedium, true
	case "hard":
		return TierHard, true
	}
	return TierNone, false
}

// Palette holds the display colors handed out in player order.
var Palette = []string{
	"#ff0000", // red
	"#0000ff", // blue
	"#00ff00", // green
	"#ffff00", // yellow
	"#800080", // purple
	"#ffa500", // orange
	"#008080", // teal
	"#ffc0cb", // pink
}

// Player is one participant in a match.
type Player struct {
	ID    world.PlayerID `json:"id"`
	Name  string         `json:"name"`
	Color string         `json:"color"`
	IsAI  bool           `json:"is_ai"`
	Tier  Tier           `json:"tier"`

	// Derived by Registry.Recompute; the grid is authoritative.
	Owned            []world.Pos `json:"-"`
	PoliticalCenters int         `json:"political_centers"`
	ActiveOrders     int         `json:"active_orders"`

	Headquarters    world.Pos `json:"headquarters"`
	HasHeadquarters bool      `json:"has_headquarters"`
	Defeated        bool      `json:"defeated"`

	// Seconds until the next AI evaluation.
	DecisionTimer float64 `json:"-"`
}

// OwnsCell reports whether p is in the player's derived owned set.
func (p *Player) OwnsCell(pos world.Pos) bool {
	for _, o := range p.Owned {
		if o == pos {
			return true
		}
	}
	return false
}
