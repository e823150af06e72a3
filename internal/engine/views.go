package engine

import (
	"github.com/talgya/conquest/internal/march"
	"github.com/talgya/conquest/internal/world"
)

// Highlight is the display hint for a cell.
type Highlight uint8

const (
	HighlightNone Highlight = iota
	HighlightSelected
	HighlightTarget
	HighlightWaypoint
)

var highlightNames = [...]string{"none", "selected", "target", "waypoint"}

func (h Highlight) String() string {
	if int(h) < len(highlightNames) {
		return highlightNames[h]
	}
	return "unknown"
}

// MarshalText encodes the highlight by name.
func (h Highlight) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// CellView is what a renderer needs to draw one cell.
type CellView struct {
	Pos       world.Pos      `json:"pos"`
	Terrain   string         `json:"terrain"`
	Owner     world.PlayerID `json:"owner"`
	Troops    int            `json:"troops"`
	Highlight Highlight      `json:"highlight"`
}

// SnapshotCell returns the display view of one cell, or false off the map.
func (g *Game) SnapshotCell(pos world.Pos) (CellView, bool) {
	c, ok := g.Map.Get(pos)
	if !ok {
		return CellView{}, false
	}
	return CellView{
		Pos:       c.Pos,
		Terrain:   c.Terrain.String(),
		Owner:     c.Owner,
		Troops:    c.Troops,
		Highlight: g.highlight(pos),
	}, true
}

// SnapshotMap returns every cell in row-major order.
func (g *Game) SnapshotMap() []CellView {
	out := make([]CellView, 0, g.Map.CellCount())
	g.Map.Cells(func(c world.Cell) {
		v, _ := g.SnapshotCell(c.Pos)
		out = append(out, v)
	})
	return out
}

func (g *Game) highlight(pos world.Pos) Highlight {
	for _, w := range g.route {
		if w == pos {
			return HighlightWaypoint
		}
	}
	if g.selection.Active {
		if g.selection.Origin == pos {
			return HighlightSelected
		}
		if g.selection.IsTarget(pos) {
			return HighlightTarget
		}
	}
	return HighlightNone
}

// OrderView is the status line of one marching order.
type OrderView struct {
	ID          uint64    `json:"id"`
	Origin      world.Pos `json:"origin"`
	Destination world.Pos `json:"destination"`
	Step        int       `json:"step"`
	Steps       int       `json:"steps"`
	Source      string    `json:"source"`
}

func orderView(o *march.Order) OrderView {
	return OrderView{
		ID:          o.ID,
		Origin:      o.Origin(),
		Destination: o.Destination(),
		Step:        o.Step,
		Steps:       o.Steps(),
		Source:      o.Source.String(),
	}
}

// ActiveOrdersFor lists a player's queued orders in processing order.
func (g *Game) ActiveOrdersFor(id world.PlayerID) []OrderView {
	var out []OrderView
	for _, o := range g.Orders.OrdersFor(id) {
		out = append(out, orderView(o))
	}
	return out
}

// Summary is a player's status panel.
type Summary struct {
	ID               world.PlayerID `json:"id"`
	Name             string         `json:"name"`
	Color            string         `json:"color"`
	IsAI             bool           `json:"is_ai"`
	Tier             string         `json:"tier"`
	OwnedCells       int            `json:"owned_cells"`
	TotalTroops      int            `json:"total_troops"`
	PoliticalCenters int            `json:"political_centers"`
	ActiveOrders     int            `json:"active_orders"`
	Defeated         bool           `json:"defeated"`
}

// PlayerSummary returns the status of one player, counted from the grid.
func (g *Game) PlayerSummary(id world.PlayerID) (Summary, bool) {
	p := g.Players.ByID(id)
	if p == nil {
		return Summary{}, false
	}
	cells, troops := g.Players.TotalTroops(g.Map, id)
	return Summary{
		ID:               p.ID,
		Name:             p.Name,
		Color:            p.Color,
		IsAI:             p.IsAI,
		Tier:             p.Tier.String(),
		OwnedCells:       cells,
		TotalTroops:      troops,
		PoliticalCenters: p.PoliticalCenters,
		ActiveOrders:     g.Orders.CountFor(id),
		Defeated:         p.Defeated,
	}, true
}

// Summaries returns every player's status in registry order.
func (g *Game) Summaries() []Summary {
	var out []Summary
	for _, p := range g.Players.All() {
		s, _ := g.PlayerSummary(p.ID)
		out = append(out, s)
	}
	return out
}

// Status is the match overview.
type Status struct {
	MatchID string         `json:"match_id"`
	Level   string         `json:"level"`
	Name    string         `json:"name"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Elapsed float64        `json:"elapsed"`
	Orders  int            `json:"orders"`
	Human   world.PlayerID `json:"human"`
	Over    bool           `json:"over"`
	Winner  world.PlayerID `json:"winner"`
}

// Status returns the match overview.
func (g *Game) Status() Status {
	return Status{
		MatchID: g.MatchID,
		Level:   g.LevelID,
		Name:    g.Name,
		Width:   g.Map.Width,
		Height:  g.Map.Height,
		Elapsed: g.Elapsed,
		Orders:  g.Orders.Len(),
		Human:   g.Human,
		Over:    g.Over(),
		Winner:  g.Winner(),
	}
}
