package world

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Cell is a single grid square.
type Cell struct {
	Pos     Pos      `json:"pos"`
	Terrain Terrain  `json:"terrain"`
	Owner   PlayerID `json:"owner"`
	Troops  int      `json:"troops"`
}

// Owned reports whether the cell belongs to a player.
func (c Cell) Owned() bool { return c.Owner != Unowned }

// OwnershipChange records a single owner transition on the grid.
type OwnershipChange struct {
	Pos      Pos
	Terrain  Terrain
	OldOwner PlayerID
	NewOwner PlayerID
}

// Map holds the complete battle grid. The per-cell owner field is the
// authoritative record of who holds what.
type Map struct {
	Width  int
	Height int

	cells   []Cell // row-major, len = Width*Height
	changes []OwnershipChange
}

// NewMap creates a map of unowned plain cells.
func NewMap(width, height int) *Map {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	m := &Map{
		Width:  width,
		Height: height,
		cells:  make([]Cell, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.cells[y*width+x] = Cell{Pos: Pos{X: x, Y: y}, Terrain: TerrainPlain, Owner: Unowned}
		}
	}
	return m
}

// InBounds returns true if the position lies on the grid.
func (m *Map) InBounds(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.Width && p.Y < m.Height
}

func (m *Map) idx(p Pos) int {
	return p.Y*m.Width + p.X
}

// Get returns a copy of the cell at p, or false if p is out of bounds.
func (m *Map) Get(p Pos) (Cell, bool) {
	if !m.InBounds(p) {
		return Cell{}, false
	}
	return m.cells[m.idx(p)], true
}

// SetTerrain changes the terrain of a cell. Impassable terrain drops any
// owner and troops without recording an ownership change; it is meant for
// map construction only.
func (m *Map) SetTerrain(p Pos, t Terrain) {
	if !m.InBounds(p) || !t.Valid() {
		return
	}
	c := &m.cells[m.idx(p)]
	c.Terrain = t
	if !t.Passable() {
		c.Owner = Unowned
		c.Troops = 0
	}
}

// SetOwner assigns a new owner and records the change. Impassable cells can
// never be owned, so the call is ignored for them. Returns true if the owner
// actually changed.
func (m *Map) SetOwner(p Pos, owner PlayerID) bool {
	if !m.InBounds(p) {
		return false
	}
	c := &m.cells[m.idx(p)]
	if !c.Terrain.Passable() || c.Owner == owner {
		return false
	}
	m.changes = append(m.changes, OwnershipChange{
		Pos:      p,
		Terrain:  c.Terrain,
		OldOwner: c.Owner,
		NewOwner: owner,
	})
	c.Owner = owner
	return true
}

// SetTroops sets the troop count, clamped to zero. Impassable cells always
// hold zero troops.
func (m *Map) SetTroops(p Pos, amount int) {
	if !m.InBounds(p) {
		return
	}
	c := &m.cells[m.idx(p)]
	if !c.Terrain.Passable() {
		c.Troops = 0
		return
	}
	c.Troops = atLeast(amount, 0)
}

// AddTroops adds delta to the troop count of p, clamped at zero.
func (m *Map) AddTroops(p Pos, delta int) {
	if c, ok := m.Get(p); ok {
		m.SetTroops(p, c.Troops+delta)
	}
}

// Troops returns the troop count at p (0 out of bounds).
func (m *Map) Troops(p Pos) int {
	c, _ := m.Get(p)
	return c.Troops
}

// Owner returns the owner of p (Unowned out of bounds).
func (m *Map) Owner(p Pos) PlayerID {
	c, ok := m.Get(p)
	if !ok {
		return Unowned
	}
	return c.Owner
}

// IsPassable reports whether p is on the grid and not a mountain or lake.
func (m *Map) IsPassable(p Pos) bool {
	c, ok := m.Get(p)
	return ok && c.Terrain.Passable()
}

// Adjacent returns the in-bounds neighbors of p in the order up, right, down, left.
func (m *Map) Adjacent(p Pos) []Pos {
	out := make([]Pos, 0, 4)
	for _, d := range Directions {
		n := p.Add(d)
		if m.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Ring returns every in-bounds position within a square of the given radius
// around center, excluding center, scanned row by row.
func (m *Map) Ring(center Pos, radius int) []Pos {
	var out []Pos
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			p := Pos{X: center.X + dx, Y: center.Y + dy}
			if m.InBounds(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Cells calls fn for every cell in row-major order.
func (m *Map) Cells(fn func(Cell)) {
	for _, c := range m.cells {
		fn(c)
	}
}

// DrainChanges returns the ownership changes recorded since the last drain
// and clears the log.
func (m *Map) DrainChanges() []OwnershipChange {
	if len(m.changes) == 0 {
		return nil
	}
	out := m.changes
	m.changes = nil
	return out
}

// PendingChanges returns the number of undrained ownership changes.
func (m *Map) PendingChanges() int {
	return len(m.changes)
}

// CellCount returns the total number of cells in the map.
func (m *Map) CellCount() int {
	return len(m.cells)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d)", m.Width, m.Height)
}

func atLeast[T constraints.Integer](v, floor T) T {
	if v < floor {
		return floor
	}
	return v
}
