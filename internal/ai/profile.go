// Package ai drives computer players. Each AI player decides on its own
// timer; the tier picks how often it decides, which of its cells act and how
// targets are chosen.
package ai

import (
	"fmt"

	"github.com/talgya/conquest/internal/players"
)

// Profile holds the tunables of one AI tier.
type Profile struct {
	Tier players.Tier

	// Seconds between decisions: Interval plus a uniform draw in [0, Jitter).
	Interval float64
	Jitter   float64

	MaxActions   int     // orders issued per decision
	Radius       int     // candidate neighbourhood around an acting cell
	TopTargets   int     // scored candidates chained into one route
	MaxPathSteps int     // hops per order; 0 leaves it to the scheduler
	Commit       float64 // share of origin troops requested (informational)

	DoctrineSource string
	doctrine       *Doctrine
}

// DefaultProfiles returns the stock tuning for every tier. Easy decides
// slowest and hard fastest.
func DefaultProfiles() map[players.Tier]*Profile {
	return map[players.Tier]*Profile{
		players.TierEasy: {
			Tier:           players.TierEasy,
			Interval:       5,
			Jitter:         3,
			MaxActions:     1,
			Radius:         1,
			TopTargets:     1,
			Commit:         0.5,
			DoctrineSource: BaseDoctrine,
		},
		players.TierMedium: {
			Tier:           players.TierMedium,
			Interval:       3.5,
			Jitter:         2,
			MaxActions:     2,
			Radius:         2,
			TopTargets:     3,
			Commit:         2.0 / 3.0,
			DoctrineSource: BaseDoctrine,
		},
		players.TierHard: {
			Tier:           players.TierHard,
			Interval:       2,
			Jitter:         1.5,
			MaxActions:     3,
			Radius:         3,
			TopTargets:     5,
			MaxPathSteps:   6,
			Commit:         0.8,
			DoctrineSource: HardDoctrine,
		},
	}
}

// Compile prepares the doctrine expression.
func (p *Profile) Compile() error {
	d, err := CompileDoctrine(p.DoctrineSource)
	if err != nil {
		return fmt.Errorf("%s profile: %w", p.Tier, err)
	}
	p.doctrine = d
	return nil
}

// Requested returns the troop count reported for an order from a cell
// holding troops.
func (p *Profile) Requested(troops int) int {
	n := int(float64(troops) * p.Commit)
	if n < 1 {
		n = 1
	}
	return n
}
