package players

import (
	"fmt"
	"log/slog"

	"github.com/talgya/conquest/internal/world"
)

// OrderCounter reports how many marching orders a player has in flight.
type OrderCounter interface {
	CountFor(id world.PlayerID) int
}

// Spec describes a player at match start.
type Spec struct {
	ID   world.PlayerID
	Name string
	IsAI bool
	Tier Tier
}

// Registry owns all player records in insertion order.
type Registry struct {
	players []*Player
	index   map[world.PlayerID]*Player
}

// NewRegistry creates players from specs. IDs must be unique and must not
// collide with world.Unowned.
func NewRegistry(specs []Spec) (*Registry, error) {
	r := &Registry{index: make(map[world.PlayerID]*Player, len(specs))}
	for i, s := range specs {
		if s.ID == world.Unowned {
			return nil, fmt.Errorf("player %d: id %d is reserved for unowned cells", i, s.ID)
		}
		if _, dup := r.index[s.ID]; dup {
			return nil, fmt.Errorf("player %d: duplicate id %d", i, s.ID)
		}
		tier := s.Tier
		if !s.IsAI {
			tier = TierNone
		} else if tier == TierNone {
			tier = TierEasy
		}
		p := &Player{
			ID:    s.ID,
			Name:  s.Name,
			Color: Palette[i%len(Palette)],
			IsAI:  s.IsAI,
			Tier:  tier,
		}
		r.players = append(r.players, p)
		r.index[p.ID] = p
	}
	return r, nil
}

// ByID returns the player with the given id, or nil.
func (r *Registry) ByID(id world.PlayerID) *Player {
	return r.index[id]
}

// All returns players in insertion order.
func (r *Registry) All() []*Player {
	return r.players
}

// Humans returns all non-AI players in insertion order.
func (r *Registry) Humans() []*Player {
	var out []*Player
	for _, p := range r.players {
		if !p.IsAI {
			out = append(out, p)
		}
	}
	return out
}

// AIs returns all AI players in insertion order.
func (r *Registry) AIs() []*Player {
	var out []*Player
	for _, p := range r.players {
		if p.IsAI {
			out = append(out, p)
		}
	}
	return out
}

// SetHeadquarters registers the headquarters position of a player.
func (r *Registry) SetHeadquarters(id world.PlayerID, pos world.Pos) bool {
	p := r.index[id]
	if p == nil {
		return false
	}
	p.Headquarters = pos
	p.HasHeadquarters = true
	return true
}

// MarkDefeated flags a player as defeated. It returns true only on the
// first call for that player.
func (r *Registry) MarkDefeated(id world.PlayerID) bool {
	p := r.index[id]
	if p == nil || p.Defeated {
		return false
	}
	p.Defeated = true
	slog.Info("player defeated", "player", p.ID, "name", p.Name, "ai", p.IsAI)
	return true
}

// HeadquartersLost reports whether the cell at the player's registered
// headquarters is owned by someone else. Players without headquarters
// can never lose them.
func (r *Registry) HeadquartersLost(m *world.Map, id world.PlayerID) bool {
	p := r.index[id]
	if p == nil || !p.HasHeadquarters {
		return false
	}
	return m.Owner(p.Headquarters) != p.ID
}

// Recompute rebuilds every player's owned cells, political center count and
// active order count from a full scan of the grid. It must run after a batch
// of ownership changes and before anything reads derived data.
func (r *Registry) Recompute(m *world.Map, orders OrderCounter) {
	for _, p := range r.players {
		p.Owned = p.Owned[:0]
		p.PoliticalCenters = 0
		p.ActiveOrders = 0
	}

	m.Cells(func(c world.Cell) {
		if !c.Owned() {
			return
		}
		p := r.index[c.Owner]
		if p == nil {
			return
		}
		p.Owned = append(p.Owned, c.Pos)
		if c.Terrain == world.TerrainPoliticalCenter {
			p.PoliticalCenters++
		}
	})

	if orders != nil {
		for _, p := range r.players {
			p.ActiveOrders = orders.CountFor(p.ID)
		}
	}
}

// TotalTroops sums the troops on every cell the player owns according to the grid.
func (r *Registry) TotalTroops(m *world.Map, id world.PlayerID) (cells, troops int) {
	m.Cells(func(c world.Cell) {
		if c.Owner == id {
			cells++
			troops += c.Troops
		}
	})
	return cells, troops
}
