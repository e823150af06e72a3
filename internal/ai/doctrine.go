package ai

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/talgya/conquest/internal/world"
)

// CandidateEnv is the environment a doctrine expression sees for one
// candidate target cell.
type CandidateEnv struct {
	Own     bool // held by the deciding player
	Enemy   bool // held by another player
	Neutral bool // held by nobody

	Troops   int // troops on the candidate
	Origin   int // troops on the acting cell
	Distance int // Manhattan distance from the acting cell

	Plain        bool
	Population   bool
	Political    bool
	Headquarters bool

	Tier string
}

// Default doctrine sources. Enemy cells score higher the weaker they are,
// strategic terrain adds a bonus and weak own cells attract reinforcements.
const (
	BaseDoctrine = `Own ? (Troops < 3 ? 20 : -50) : ` +
		`Enemy ? (50 - Troops * 10 + (Headquarters ? 300 : Political ? 200 : Population ? 100 : 0)) : ` +
		`(30 + (Political ? 100 : Population ? 50 : 0))`

	// Hard players weigh political centers half again as much.
	HardDoctrine = `(` + BaseDoctrine + `) * (Political ? 1.5 : 1.0)`
)

// Doctrine is a compiled scoring expression.
type Doctrine struct {
	Source  string
	program *vm.Program
}

// CompileDoctrine compiles src against CandidateEnv.
func CompileDoctrine(src string) (*Doctrine, error) {
	prog, err := expr.Compile(src, expr.Env(CandidateEnv{}))
	if err != nil {
		return nil, fmt.Errorf("compile doctrine: %w", err)
	}
	return &Doctrine{Source: src, program: prog}, nil
}

// Score evaluates the doctrine for one candidate.
func (d *Doctrine) Score(env CandidateEnv) (float64, error) {
	out, err := vm.Run(d.program, env)
	if err != nil {
		return 0, fmt.Errorf("run doctrine: %w", err)
	}
	switch v := out.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("doctrine returned %T, want a number", out)
	}
}

// candidateEnv describes cell c from the point of view of player acting
// from origin.
func candidateEnv(player world.PlayerID, origin, c world.Cell, tier string) CandidateEnv {
	return CandidateEnv{
		Own:          c.Owner == player,
		Enemy:        c.Owned() && c.Owner != player,
		Neutral:      !c.Owned(),
		Troops:       c.Troops,
		Origin:       origin.Troops,
		Distance:     world.Manhattan(origin.Pos, c.Pos),
		Plain:        c.Terrain == world.TerrainPlain,
		Population:   c.Terrain == world.TerrainPopulationCenter,
		Political:    c.Terrain == world.TerrainPoliticalCenter,
		Headquarters: c.Terrain == world.TerrainHeadquarters,
		Tier:         tier,
	}
}
