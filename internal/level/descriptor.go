// Package level describes the inbound level descriptor: map dimensions,
// terrain, initial ownership and troops, headquarters, players and rules.
// The JSON layout matches the level files shipped with the game.
package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/talgya/conquest/internal/players"
	"github.com/talgya/conquest/internal/world"
)

// ErrInvalid wraps every descriptor validation failure.
var ErrInvalid = errors.New("invalid level")

// Size is a map size in cells.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MapData holds the per-cell grids, indexed [y][x].
type MapData struct {
	Size         *Size   `json:"size,omitempty"`
	Terrain      [][]int `json:"terrain"`
	Ownership    [][]int `json:"ownership"`
	Troops       [][]int `json:"troops"`
	Headquarters [][]int `json:"headquarters"` // [playerID, x, y]
}

// PlayerData describes one player in the level file.
type PlayerData struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	IsAI    bool   `json:"isAI"`
	AILevel int    `json:"aiLevel,omitempty"`
}

// Descriptor is a fully parsed level.
type Descriptor struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Difficulty  int          `json:"difficulty"`
	MapSize     Size         `json:"mapSize"`
	MapData     MapData      `json:"mapData"`
	Players     []PlayerData `json:"players"`
	GameRules   Rules        `json:"gameRules"`
}

// Headquarters is a decoded headquarters assignment.
type Headquarters struct {
	Player world.PlayerID
	Pos    world.Pos
}

// Decode reads a single level descriptor from JSON.
func Decode(r io.Reader) (*Descriptor, error) {
	var d Descriptor
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode level: %w", err)
	}
	d.normalize()
	return &d, nil
}

// DecodePack reads a level pack ({"levels": [...]}) and returns the level
// with the given id.
func DecodePack(r io.Reader, id string) (*Descriptor, error) {
	var pack struct {
		Levels []Descriptor `json:"levels"`
	}
	if err := json.NewDecoder(r).Decode(&pack); err != nil {
		return nil, fmt.Errorf("decode level pack: %w", err)
	}
	for i := range pack.Levels {
		if pack.Levels[i].ID == id {
			d := pack.Levels[i]
			d.normalize()
			return &d, nil
		}
	}
	return nil, fmt.Errorf("level %q not found in pack", id)
}

// normalize reconciles the two places a level may carry its size.
func (d *Descriptor) normalize() {
	if d.MapSize.Width == 0 && d.MapSize.Height == 0 && d.MapData.Size != nil {
		d.MapSize = *d.MapData.Size
	}
	if d.MapData.Size == nil {
		size := d.MapSize
		d.MapData.Size = &size
	}
}

// Encode writes the descriptor as indented JSON.
func (d *Descriptor) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// PlayerSpecs converts the player list for the registry.
func (d *Descriptor) PlayerSpecs() []players.Spec {
	specs := make([]players.Spec, 0, len(d.Players))
	for _, p := range d.Players {
		s := players.Spec{ID: world.PlayerID(p.ID), Name: p.Name, IsAI: p.IsAI}
		if p.IsAI {
			s.Tier = players.ParseTier(p.AILevel)
		}
		specs = append(specs, s)
	}
	return specs
}

// HeadquartersList decodes the [playerID, x, y] triples.
func (d *Descriptor) HeadquartersList() []Headquarters {
	out := make([]Headquarters, 0, len(d.MapData.Headquarters))
	for _, h := range d.MapData.Headquarters {
		if len(h) != 3 {
			continue
		}
		out = append(out, Headquarters{Player: world.PlayerID(h[0]), Pos: world.Pos{X: h[1], Y: h[2]}})
	}
	return out
}

// BuildMap creates the grid described by the level. The descriptor should
// have passed Validate; malformed entries are skipped.
func (d *Descriptor) BuildMap() *world.Map {
	w, h := d.MapSize.Width, d.MapSize.Height
	m := world.NewMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := world.Pos{X: x, Y: y}
			if v, ok := at(d.MapData.Terrain, x, y); ok {
				m.SetTerrain(p, world.Terrain(v))
			}
			if v, ok := at(d.MapData.Ownership, x, y); ok && v >= 0 {
				m.SetOwner(p, world.PlayerID(v))
			}
			if v, ok := at(d.MapData.Troops, x, y); ok {
				m.SetTroops(p, v)
			}
		}
	}
	// Without an ownership grid each headquarters belongs to its player.
	if d.MapData.Ownership == nil {
		for _, hq := range d.HeadquartersList() {
			m.SetOwner(hq.Pos, hq.Player)
		}
	}
	// Initial placement is not a change anyone should react to.
	m.DrainChanges()
	return m
}

func at(grid [][]int, x, y int) (int, bool) {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return 0, false
	}
	return grid[y][x], true
}
