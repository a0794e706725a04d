package arrival

// Level is the coarse tier derived from a probability.
type Level string

// Levels, highest first.
const (
	LevelHigh   Level = "HIGH"
	LevelMedium Level = "MEDIUM"
	LevelLow    Level = "LOW"
)

// Tier thresholds; both are inclusive lower bounds.
const (
	highThreshold   = 0.7
	mediumThreshold = 0.4
)

// LevelFor tiers a probability.
func LevelFor(p float64) Level {
	switch {
	case p >= highThreshold:
		return LevelHigh
	case p >= mediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Badge is the traffic-light emoji shown next to the level.
func (l Level) Badge() string {
	switch l {
	case LevelHigh:
		return "🟢"
	case LevelMedium:
		return "🟡"
	default:
		return "🔴"
	}
}

// Action is the recommendation for a rider at this level.
func (l Level) Action() string {
	switch l {
	case LevelHigh:
		return "wait at the stop now"
	case LevelMedium:
		return "may arrive within 5 minutes (wait or check again)"
	default:
		return "check again in a little while"
	}
}
