// Package tier maps evaluation scores to program tiers (niveles) and
// reconciles them with the tier of an approved quota assignment.
package tier

import (
	"encoding/json"
	"strings"

	"github.com/ecodeclub/ekit/slice"
	"github.com/pkg/errors"
)

// Tier is a program level.
type Tier string

const (
	Starter Tier = "Starter"
	Growth  Tier = "Growth"
	Scale   Tier = "Scale"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{Starter, Growth, Scale}

// UnclassifiedLabel is shown for subjects without any evaluation score.
const UnclassifiedLabel = "Sin evaluar"

const (
	scaleThreshold  = 80.0
	growthThreshold = 50.0
)

var ErrUnknownTier = errors.New("unknown tier")

func (t Tier) Valid() bool {
	switch t {
	case Starter, Growth, Scale:
		return true
	}
	return false
}

// ParseTier accepts a tier name in any case.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownTier, "%q", s)
}

// FromScore derives a tier from a score. Both thresholds are exclusive.
func FromScore(score float64) Tier {
	switch {
	case score > scaleThreshold:
		return Scale
	case score > growthThreshold:
		return Growth
	default:
		return Starter
	}
}

// Level is either a Tier or Unclassified. The zero value is Unclassified.
type Level struct {
	tier Tier
}

var Unclassified = Level{}

func LevelOf(t Tier) Level { return Level{tier: t} }

// Tier returns the tier and whether the level is classified.
func (l Level) Tier() (Tier, bool) { return l.tier, l.tier != "" }

func (l Level) Classified() bool { return l.tier != "" }

func (l Level) Is(t Tier) bool { return l.tier != "" && l.tier == t }

func (l Level) String() string {
	if l.tier == "" {
		return UnclassifiedLabel
	}
	return string(l.tier)
}

func (l Level) MarshalJSON() ([]byte, error) {
	if l.tier == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(l.tier))
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" || *s == UnclassifiedLabel {
		*l = Unclassified
		return nil
	}
	t, err := ParseTier(*s)
	if err != nil {
		return err
	}
	*l = LevelOf(t)
	return nil
}

// Best returns the highest score, false when there is none.
func Best(scores []float64) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	return slice.Max(scores), true
}

// Derive classifies from the best recorded score. Several evaluations of the
// same subject resolve to their maximum, never their average.
func Derive(scores []float64) Level {
	best, ok := Best(scores)
	if !ok {
		return Unclassified
	}
	return LevelOf(FromScore(best))
}

// Classify returns the approved quota tier verbatim when there is one and
// falls back to Derive otherwise.
func Classify(quota *Tier, scores []float64) Level {
	if quota != nil && *quota != "" {
		return LevelOf(*quota)
	}
	return Derive(scores)
}
