package emotion

import (
	"fmt"
	"strings"
)

// CrisisLevel is an ordered severity classification.
type CrisisLevel int

const (
	LevelLow CrisisLevel = iota
	LevelModerate
	LevelHigh
	LevelSevere
)

var levelNames = [...]string{"LOW", "MODERATE", "HIGH", "SEVERE"}

func (l CrisisLevel) String() string {
	if l < LevelLow || l > LevelSevere {
		return fmt.Sprintf("CrisisLevel(%d)", int(l))
	}
	return levelNames[l]
}

// Elevated reports whether the level arms the safety countdown.
func (l CrisisLevel) Elevated() bool {
	return l >= LevelHigh
}

func (l CrisisLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *CrisisLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseCrisisLevel(string(b))
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

// ParseCrisisLevel accepts the upper or lower case level name.
func ParseCrisisLevel(s string) (CrisisLevel, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == upper {
			return CrisisLevel(i), nil
		}
	}
	return LevelLow, fmt.Errorf("emotion: unknown crisis level %q", s)
}

// Rule is one count-and-intensity threshold.
type Rule struct {
	MinNegative  int
	MinIntensity float64 // average confidence must be strictly greater
}

func (r Rule) matches(negative int, avg float64) bool {
	return negative >= r.MinNegative && avg > r.MinIntensity
}

// Thresholds configures crisis classification. Rules are tried from most to
// least severe.
type Thresholds struct {
	Window   int
	Severe   Rule
	High     Rule
	Moderate Rule
}

// DefaultThresholds are the tuned production constants.
var DefaultThresholds = Thresholds{
	Window:   5,
	Severe:   Rule{MinNegative: 4, MinIntensity: 0.7},
	High:     Rule{MinNegative: 3, MinIntensity: 0.5},
	Moderate: Rule{MinNegative: 2, MinIntensity: 0.3},
}

// ClassifyCrisis reduces the most recent readings to a crisis level using
// DefaultThresholds.
func ClassifyCrisis(readings []Reading) CrisisLevel {
	return DefaultThresholds.Classify(readings)
}

// Classify looks at the last t.Window readings. Both the negative count and the
// mean confidence must clear a rule for it to apply.
func (t Thresholds) Classify(readings []Reading) CrisisLevel {
	window := readings
	if t.Window > 0 && len(window) > t.Window {
		window = window[len(window)-t.Window:]
	}
	if len(window) == 0 {
		return LevelLow
	}

	negative := 0
	total := 0.0
	for _, r := range window {
		if r.Dominant.Negative() {
			negative++
		}
		total += r.Confidence
	}
	avg := total / float64(len(window))

	switch {
	case t.Severe.matches(negative, avg):
		return LevelSevere
	case t.High.matches(negative, avg):
		return LevelHigh
	case t.Moderate.matches(negative, avg):
		return LevelModerate
	default:
		return LevelLow
	}
}
