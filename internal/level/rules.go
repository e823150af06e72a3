package level

// Rules holds the economy constants and engine knobs of a level. Durations
// are in simulated seconds. Zero values are replaced by DefaultRules.
type Rules struct {
	// Base land: grows BaseGrowth every BaseInterval seconds, shortened by
	// PoliticalCenterStep per political center held, never below MinBaseInterval.
	BaseInterval        float64 `json:"baseIncreaseRate"`
	MinBaseInterval     float64 `json:"minBaseInterval,omitempty"`
	PoliticalCenterStep float64 `json:"politicalCenterEffect"`
	BaseGrowth          int     `json:"baseGrowth,omitempty"`

	PopulationInterval   float64 `json:"populationInterval,omitempty"`
	PopulationGrowth     int     `json:"populationIncreaseRate"`
	HeadquartersInterval float64 `json:"headquartersInterval,omitempty"`
	HeadquartersGrowth   int     `json:"headquartersIncreaseRate"`

	// Seconds between marching scheduler passes.
	MarchInterval float64 `json:"marchInterval,omitempty"`
	// Seconds between safety-net win checks.
	VictorySweepInterval float64 `json:"victorySweepInterval,omitempty"`

	// Destination hops allowed per order (the origin is not counted).
	MaxPathSteps int `json:"maxPathSteps,omitempty"`
	// Waypoints a player may pick while building a route.
	MaxWaypoints int `json:"maxWaypoints,omitempty"`
	// In-flight orders an AI player may have before it stops issuing more.
	MaxActiveOrders int `json:"maxActiveOrders,omitempty"`

	WinCondition string `json:"winCondition,omitempty"`
}

// WinHeadquarters is the only supported win condition.
const WinHeadquarters = "headquarters"

// DefaultRules returns the rule set used by the stock levels.
func DefaultRules() Rules {
	return Rules{
		BaseInterval:         25,
		MinBaseInterval:      5,
		PoliticalCenterStep:  10,
		BaseGrowth:           1,
		PopulationInterval:   10,
		PopulationGrowth:     2,
		HeadquartersInterval: 10,
		HeadquartersGrowth:   2,
		MarchInterval:        2,
		VictorySweepInterval: 3,
		MaxPathSteps:         10,
		MaxWaypoints:         10,
		MaxActiveOrders:      3,
		WinCondition:         WinHeadquarters,
	}
}

// WithDefaults returns a copy of r with every unset field taken from DefaultRules.
func (r Rules) WithDefaults() Rules {
	def := DefaultRules()
	if r.BaseInterval <= 0 {
		r.BaseInterval = def.BaseInterval
	}
	if r.MinBaseInterval <= 0 {
		r.MinBaseInterval = def.MinBaseInterval
	}
	if r.PoliticalCenterStep <= 0 {
		r.PoliticalCenterStep = def.PoliticalCenterStep
	}
	if r.BaseGrowth <= 0 {
		r.BaseGrowth = def.BaseGrowth
	}
	if r.PopulationInterval <= 0 {
		r.PopulationInterval = def.PopulationInterval
	}
	if r.PopulationGrowth <= 0 {
		r.PopulationGrowth = def.PopulationGrowth
	}
	if r.HeadquartersInterval <= 0 {
		r.HeadquartersInterval = def.HeadquartersInterval
	}
	if r.HeadquartersGrowth <= 0 {
		r.HeadquartersGrowth = def.HeadquartersGrowth
	}
	if r.MarchInterval <= 0 {
		r.MarchInterval = def.MarchInterval
	}
	if r.VictorySweepInterval <= 0 {
		r.VictorySweepInterval = def.VictorySweepInterval
	}
	if r.MaxPathSteps <= 0 {
		r.MaxPathSteps = def.MaxPathSteps
	}
	if r.MaxWaypoints <= 0 {
		r.MaxWaypoints = def.MaxWaypoints
	}
	if r.MaxActiveOrders <= 0 {
		r.MaxActiveOrders = def.MaxActiveOrders
	}
	if r.WinCondition == "" {
		r.WinCondition = def.WinCondition
	}
	return r
}
