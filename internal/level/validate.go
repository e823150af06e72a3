package level

import (
	"errors"
	"fmt"

	"github.com/talgya/conquest/internal/world"
)

// MaxMapSide bounds both map dimensions.
const MaxMapSide = 64

// Validate checks that the descriptor describes a playable match. Every
// problem found is reported, joined into one error wrapping ErrInvalid.
func (d *Descriptor) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	w, h := d.MapSize.Width, d.MapSize.Height
	if w <= 0 || h <= 0 {
		fail("mapSize %dx%d must be positive", w, h)
		return errors.Join(errs...)
	}
	if w > MaxMapSide || h > MaxMapSide {
		fail("mapSize %dx%d exceeds %dx%d", w, h, MaxMapSide, MaxMapSide)
		return errors.Join(errs...)
	}

	ids := make(map[int]bool, len(d.Players))
	if len(d.Players) == 0 {
		fail("players: at least one player required")
	}
	for i, p := range d.Players {
		switch {
		case p.ID == int(world.Unowned):
			fail("players[%d].id %d is reserved", i, p.ID)
		case ids[p.ID]:
			fail("players[%d].id %d is duplicated", i, p.ID)
		}
		ids[p.ID] = true
		if p.IsAI && (p.AILevel < 0 || p.AILevel > 3) {
			fail("players[%d].aiLevel %d out of range 1..3", i, p.AILevel)
		}
	}

	checkGrid := func(name string, grid [][]int, required bool, cell func(x, y, v int)) {
		if grid == nil {
			if required {
				fail("mapData.%s missing", name)
			}
			return
		}
		if len(grid) != h {
			fail("mapData.%s has %d rows, want %d", name, len(grid), h)
			return
		}
		for y, row := range grid {
			if len(row) != w {
				fail("mapData.%s[%d] has %d columns, want %d", name, y, len(row), w)
				continue
			}
			for x, v := range row {
				cell(x, y, v)
			}
		}
	}

	terrainAt := func(x, y int) world.Terrain {
		if v, ok := at(d.MapData.Terrain, x, y); ok {
			return world.Terrain(v)
		}
		return world.TerrainPlain
	}

	checkGrid("terrain", d.MapData.Terrain, true, func(x, y, v int) {
		if v < 0 || !world.Terrain(v).Valid() {
			fail("mapData.terrain[%d][%d] unknown code %d", y, x, v)
		}
	})
	checkGrid("ownership", d.MapData.Ownership, false, func(x, y, v int) {
		if v == int(world.Unowned) {
			return
		}
		if !ids[v] {
			fail("mapData.ownership[%d][%d] unknown player %d", y, x, v)
		}
		if !terrainAt(x, y).Passable() {
			fail("mapData.ownership[%d][%d] owns impassable %s", y, x, terrainAt(x, y))
		}
	})
	checkGrid("troops", d.MapData.Troops, false, func(x, y, v int) {
		if v < 0 {
			fail("mapData.troops[%d][%d] negative %d", y, x, v)
		}
		if v > 0 && !terrainAt(x, y).Passable() {
			fail("mapData.troops[%d][%d] troops on impassable %s", y, x, terrainAt(x, y))
		}
	})

	seen := make(map[int]bool)
	for i, hq := range d.MapData.Headquarters {
		if len(hq) != 3 {
			fail("mapData.headquarters[%d] want [playerID, x, y]", i)
			continue
		}
		id, x, y := hq[0], hq[1], hq[2]
		if !ids[id] {
			fail("mapData.headquarters[%d] unknown player %d", i, id)
		}
		if seen[id] {
			fail("mapData.headquarters[%d] player %d already has headquarters", i, id)
		}
		seen[id] = true
		if x < 0 || y < 0 || x >= w || y >= h {
			fail("mapData.headquarters[%d] position [%d,%d] off the map", i, x, y)
			continue
		}
		if t := terrainAt(x, y); t != world.TerrainHeadquarters {
			fail("mapData.headquarters[%d] on %s, want headquarters terrain", i, t)
		}
		if owner, ok := at(d.MapData.Ownership, x, y); ok && owner != id {
			fail("mapData.headquarters[%d] cell owned by %d, want %d", i, owner, id)
		}
	}

	r := d.GameRules
	if r.BaseInterval < 0 || r.MinBaseInterval < 0 || r.PopulationInterval < 0 || r.HeadquartersInterval < 0 {
		fail("gameRules: intervals must not be negative")
	}
	if r.WinCondition != "" && r.WinCondition != WinHeadquarters {
		fail("gameRules.winCondition %q not supported", r.WinCondition)
	}

	return errors.Join(errs...)
}
