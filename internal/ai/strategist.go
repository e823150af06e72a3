package ai

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/talgya/conquest/internal/march"
	"github.com/talgya/conquest/internal/players"
	"github.com/talgya/conquest/internal/world"
)

// Dispatcher accepts marching orders on behalf of AI players.
type Dispatcher interface {
	Create(player world.PlayerID, path []world.Pos, troops int, source march.Source) (*march.Order, error)
	CountFor(id world.PlayerID) int
}

// Strategist runs every AI player's decision timer and issues orders.
type Strategist struct {
	Map     *world.Map
	Players *players.Registry
	Orders  Dispatcher

	// MaxActiveOrders caps in-flight orders per AI player; at the cap a
	// decision is skipped.
	MaxActiveOrders int

	profiles map[players.Tier]*Profile
	rng      *rand.Rand
}

// NewStrategist compiles the profiles and seeds every AI player's first
// decision timer. Tiers missing from profiles use the defaults.
func NewStrategist(m *world.Map, reg *players.Registry, orders Dispatcher, profiles map[players.Tier]*Profile, maxActive int, rng *rand.Rand) (*Strategist, error) {
	all := DefaultProfiles()
	for tier, p := range profiles {
		all[tier] = p
	}
	for tier, p := range all {
		if err := p.Compile(); err != nil {
			return nil, fmt.Errorf("tier %s: %w", tier, err)
		}
	}

	s := &Strategist{
		Map:             m,
		Players:         reg,
		Orders:          orders,
		MaxActiveOrders: maxActive,
		profiles:        all,
		rng:             rng,
	}
	for _, p := range reg.AIs() {
		s.reseed(p)
	}
	return s, nil
}

// Profile returns the profile used for a tier.
func (s *Strategist) Profile(tier players.Tier) *Profile {
	if p, ok := s.profiles[tier]; ok {
		return p
	}
	return s.profiles[players.TierEasy]
}

// Update counts every AI player's timer down by dt seconds and lets each
// player whose timer expired decide. Owned-cell sets must be fresh. It
// returns the number of orders issued.
func (s *Strategist) Update(dt float64) int {
	if dt <= 0 {
		return 0
	}
	issued := 0
	for _, p := range s.Players.AIs() {
		if p.Defeated {
			continue
		}
		p.DecisionTimer -= dt
		if p.DecisionTimer > 0 {
			continue
		}
		s.reseed(p)

		if s.MaxActiveOrders > 0 && s.Orders.CountFor(p.ID) >= s.MaxActiveOrders {
			slog.Debug("ai decision skipped, order cap reached", "player", p.ID, "cap", s.MaxActiveOrders)
			continue
		}
		issued += s.Decide(p)
	}
	return issued
}

// Decide runs one decision for p immediately and returns the number of
// orders issued.
func (s *Strategist) Decide(p *players.Player) int {
	prof := s.Profile(p.Tier)
	var n int
	switch p.Tier {
	case players.TierMedium:
		n = s.decideMedium(p, prof)
	case players.TierHard:
		n = s.decideHard(p, prof)
	default:
		n = s.decideEasy(p, prof)
	}
	if n > 0 {
		slog.Debug("ai decided", "player", p.ID, "tier", p.Tier, "orders", n)
	}
	return n
}

func (s *Strategist) reseed(p *players.Player) {
	prof := s.Profile(p.Tier)
	p.DecisionTimer = prof.Interval
	if prof.Jitter > 0 {
		p.DecisionTimer += s.rng.Float64() * prof.Jitter
	}
}

// decideEasy sends troops from random strong cells to a random neighbour.
func (s *Strategist) decideEasy(p *players.Player, prof *Profile) int {
	issued := 0
	for _, pos := range s.shuffled(p.Owned) {
		if issued >= prof.MaxActions {
			break
		}
		cell, ok := s.Map.Get(pos)
		if !ok || cell.Owner != p.ID || cell.Troops < 2 {
			continue
		}
		var targets []world.Pos
		for _, n := range s.Map.Adjacent(pos) {
			if s.Map.IsPassable(n) {
				targets = append(targets, n)
			}
		}
		if len(targets) == 0 {
			continue
		}
		target := targets[s.rng.Intn(len(targets))]
		if s.dispatch(p, prof, []world.Pos{pos, target}, cell.Troops) {
			issued++
		}
	}
	return issued
}

// decideMedium lets only cells above the player's average troop count act,
// each routing through its best scored neighbourhood targets.
func (s *Strategist) decideMedium(p *players.Player, prof *Profile) int {
	total, count := 0, 0
	for _, pos := range p.Owned {
		if c, ok := s.Map.Get(pos); ok && c.Owner == p.ID {
			total += c.Troops
			count++
		}
	}
	if count == 0 {
		return 0
	}
	avg := float64(total) / float64(count)

	issued := 0
	for _, pos := range s.shuffled(p.Owned) {
		if issued >= prof.MaxActions {
			break
		}
		cell, ok := s.Map.Get(pos)
		if !ok || cell.Owner != p.ID || cell.Troops < 2 || float64(cell.Troops) <= avg {
			continue
		}
		if s.dispatchScored(p, prof, cell) {
			issued++
		}
	}
	return issued
}

// decideHard commits the strongest cells first, heading for the nearest
// strategic cell it does not own and falling back to scored targets.
func (s *Strategist) decideHard(p *players.Player, prof *Profile) int {
	cells := make([]world.Cell, 0, len(p.Owned))
	for _, pos := range p.Owned {
		if c, ok := s.Map.Get(pos); ok && c.Owner == p.ID && c.Troops >= 2 {
			cells = append(cells, c)
		}
	}
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].Troops > cells[j].Troops })

	issued := 0
	for _, cell := range cells {
		if issued >= prof.MaxActions {
			break
		}
		path, ok := world.Nearest(s.Map, cell.Pos, func(c world.Cell) bool {
			return c.Terrain.Strategic() && c.Owner != p.ID
		})
		if ok && len(path) >= 2 && s.dispatch(p, prof, path, cell.Troops) {
			issued++
			continue
		}
		if s.dispatchScored(p, prof, cell) {
			issued++
		}
	}
	return issued
}

// Candidate is a scored target cell.
type Candidate struct {
	Pos   world.Pos
	Score float64
}

// Rank scores every passable cell within the profile radius of origin and
// returns them best first. Ties keep scan order.
func (s *Strategist) Rank(p *players.Player, prof *Profile, origin world.Cell) []Candidate {
	var out []Candidate
	for _, pos := range s.Map.Ring(origin.Pos, prof.Radius) {
		c, ok := s.Map.Get(pos)
		if !ok || !c.Terrain.Passable() {
			continue
		}
		score, err := prof.doctrine.Score(candidateEnv(p.ID, origin, c, p.Tier.String()))
		if err != nil {
			slog.Warn("doctrine failed", "player", p.ID, "tier", p.Tier, "error", err)
			continue
		}
		out = append(out, Candidate{Pos: pos, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// dispatchScored chains the top positive candidates around origin into one
// route. Unreachable candidates are skipped.
func (s *Strategist) dispatchScored(p *players.Player, prof *Profile, origin world.Cell) bool {
	var waypoints []world.Pos
	for _, c := range s.Rank(p, prof, origin) {
		if len(waypoints) >= prof.TopTargets || c.Score <= 0 {
			break
		}
		waypoints = append(waypoints, c.Pos)
	}
	if len(waypoints) == 0 {
		return false
	}
	return s.dispatch(p, prof, world.JoinPath(s.Map, origin.Pos, waypoints), origin.Troops)
}

func (s *Strategist) dispatch(p *players.Player, prof *Profile, path []world.Pos, troops int) bool {
	if len(path) < 2 {
		return false
	}
	if prof.MaxPathSteps > 0 && len(path)-1 > prof.MaxPathSteps {
		path = path[:prof.MaxPathSteps+1]
	}
	if _, err := s.Orders.Create(p.ID, path, prof.Requested(troops), march.SourceAI); err != nil {
		slog.Debug("ai order rejected", "player", p.ID, "from", path[0], "error", err)
		return false
	}
	return true
}

func (s *Strategist) shuffled(in []world.Pos) []world.Pos {
	out := append([]world.Pos(nil), in...)
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
