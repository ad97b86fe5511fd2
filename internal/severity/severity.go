// Package severity classifies PM2.5 concentrations for map and report colouring.
package severity

import "math"

// Level is a PM2.5 severity class.
type Level int

const (
	Unknown Level = iota
	Good
	Moderate
	High
)

// Thresholds in µg/m³. Moderate starts at ModerateFrom, High at HighFrom.
const (
	ModerateFrom = 70.0
	HighFrom     = 100.0
)

// Classify maps a PM2.5 concentration to its level: < 70 good, [70, 100)
// moderate, >= 100 high. NaN has no level.
func Classify(pm25 float64) Level {
	switch {
	case math.IsNaN(pm25):
		return Unknown
	case pm25 < ModerateFrom:
		return Good
	case pm25 < HighFrom:
		return Moderate
	default:
		return High
	}
}

func (l Level) String() string {
	switch l {
	case Good:
		return "good"
	case Moderate:
		return "moderate"
	case High:
		return "high"
	default:
		return "no-data"
	}
}

// Color is the marker colour used for the level.
func (l Level) Color() string {
	switch l {
	case Good:
		return "green"
	case Moderate:
		return "orange"
	case High:
		return "red"
	default:
		return "gray"
	}
}

// Legend returns the human-readable band for each level, lowest first.
func Legend() []struct {
	Level Level
	Band  string
} {
	return []struct {
		Level Level
		Band  string
	}{
		{Good, "< 70"},
		{Moderate, "70-100"},
		{High, ">= 100"},
	}
}
