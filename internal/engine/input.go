package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/conquest/internal/march"
	"github.com/talgya/conquest/internal/world"
)

var (
	ErrNoRoute   = errors.New("no route in progress")
	ErrRouteFull = errors.New("route has the maximum number of waypoints")
)

// SelectAction tells what a cell selection did.
type SelectAction uint8

const (
	SelectCleared SelectAction = iota
	SelectOrigin
	SelectDispatched
	SelectWaypoint
)

var selectActionNames = [...]string{"cleared", "origin", "dispatched", "waypoint"}

func (a SelectAction) String() string {
	if int(a) < len(selectActionNames) {
		return selectActionNames[a]
	}
	return "unknown"
}

// MarshalText encodes the action by name.
func (a SelectAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// Selection is the human player's current origin and its legal targets.
type Selection struct {
	Action  SelectAction `json:"action"`
	Active  bool         `json:"active"`
	Origin  world.Pos    `json:"origin"`
	Targets []world.Pos  `json:"targets,omitempty"`
	OrderID uint64       `json:"order_id,omitempty"` // set when a dispatch was queued
}

// IsTarget reports whether pos is one of the selection's targets.
func (s Selection) IsTarget(pos world.Pos) bool {
	if !s.Active {
		return false
	}
	for _, t := range s.Targets {
		if t == pos {
			return true
		}
	}
	return false
}

// Selected returns the current selection.
func (g *Game) Selected() Selection { return g.selection }

// SelectCell handles a cell selection by the human player:
//   - a target of the current selection dispatches the origin's available
//     troops (all but one) and clears the selection
//   - an owned cell with troops to spare (two or more) becomes the origin,
//     its passable neighbours the targets
//   - anything else clears the selection
//
// While a route is being built the cell is added as a waypoint instead.
func (g *Game) SelectCell(pos world.Pos) (Selection, error) {
	if !g.humanInPlay() {
		g.clearInput()
		return Selection{Action: SelectCleared}, ErrNotPlaying
	}
	if g.routing {
		if err := g.AddWaypoint(pos); err != nil {
			return Selection{Action: SelectWaypoint}, err
		}
		return Selection{Action: SelectWaypoint}, nil
	}

	if g.selection.IsTarget(pos) {
		origin := g.selection.Origin
		g.selection = Selection{}
		o, err := g.dispatch([]world.Pos{origin, pos})
		if err != nil {
			return Selection{Action: SelectCleared}, err
		}
		return Selection{Action: SelectDispatched, OrderID: o.ID}, nil
	}

	cell, ok := g.Map.Get(pos)
	if !ok || cell.Owner != g.Human || cell.Troops < 2 {
		g.selection = Selection{}
		return Selection{Action: SelectCleared}, nil
	}

	sel := Selection{Action: SelectOrigin, Active: true, Origin: pos}
	for _, n := range g.Map.Adjacent(pos) {
		if g.Map.IsPassable(n) {
			sel.Targets = append(sel.Targets, n)
		}
	}
	g.selection = sel
	return sel, nil
}

// BeginRoute starts building a multi-waypoint route for the human player and
// drops any single-cell selection.
func (g *Game) BeginRoute() error {
	if !g.humanInPlay() {
		return ErrNotPlaying
	}
	g.selection = Selection{}
	g.route = g.route[:0]
	g.routing = true
	return nil
}

// Routing reports whether a route is being built.
func (g *Game) Routing() bool { return g.routing }

// Route returns the waypoints picked so far.
func (g *Game) Route() []world.Pos {
	return append([]world.Pos(nil), g.route...)
}

// AddWaypoint appends pos to the route. The first waypoint must be an owned
// cell with at least two troops; later ones must be passable. Picking the
// last waypoint again is ignored.
func (g *Game) AddWaypoint(pos world.Pos) error {
	if !g.routing {
		return ErrNoRoute
	}
	if len(g.route) == 0 {
		cell, ok := g.Map.Get(pos)
		switch {
		case !ok || cell.Owner != g.Human:
			return fmt.Errorf("route origin %v: %w", pos, march.ErrNotOwner)
		case cell.Troops < 2:
			return fmt.Errorf("route origin %v: %w", pos, march.ErrTooFewTroops)
		}
		g.route = append(g.route, pos)
		return nil
	}
	if g.route[len(g.route)-1] == pos {
		return nil
	}
	if len(g.route) >= g.Rules.MaxWaypoints {
		return ErrRouteFull
	}
	if !g.Map.IsPassable(pos) {
		return fmt.Errorf("waypoint %v: %w", pos, march.ErrInvalidPath)
	}
	g.route = append(g.route, pos)
	return nil
}

// FinishRoute joins the waypoints with shortest-path segments, trims the
// result to the longest path an order may take and queues it with all the
// origin's available troops. The route is cleared whatever the outcome.
func (g *Game) FinishRoute() (*march.Order, error) {
	if !g.routing {
		return nil, ErrNoRoute
	}
	route := g.route
	g.routing = false
	g.route = nil
	if len(route) < 2 {
		return nil, march.ErrPathTooShort
	}

	path := world.JoinPath(g.Map, route[0], route[1:])
	if len(path) < 2 {
		return nil, fmt.Errorf("no waypoint reachable from %v: %w", route[0], march.ErrPathTooShort)
	}
	if limit := g.Rules.MaxPathSteps; len(path)-1 > limit {
		path = path[:limit+1]
	}
	return g.dispatch(path)
}

// CancelRoute abandons the route in progress.
func (g *Game) CancelRoute() {
	g.routing = false
	g.route = nil
}

func (g *Game) dispatch(path []world.Pos) (*march.Order, error) {
	troops := g.Map.Troops(path[0]) - 1
	o, err := g.Orders.Create(g.Human, path, troops, march.SourceManual)
	if err != nil {
		slog.Debug("dispatch rejected", "player", g.Human, "from", path[0], "error", err)
		return nil, err
	}
	g.Players.Recompute(g.Map, g.Orders)
	return o, nil
}

func (g *Game) humanInPlay() bool {
	if g.Over() || g.Human == world.Unowned {
		return false
	}
	p := g.Players.ByID(g.Human)
	return p != nil && !p.Defeated
}

func (g *Game) clearInput() {
	g.selection = Selection{}
	g.route = nil
	g.routing = false
}
