package grouping

import (
	"math"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/squadforge/grouping-platform/internal/player"
)

// ScorerConfig holds the term weights for pairwise scoring. The
// defaults sum to 100, so two identical profiles score a perfect 100.
type ScorerConfig struct {
	InterestWeight  float64 // default: 25
	LanguageWeight  float64 // default: 15
	PlatformWeight  float64 // default: 10
	ThemeWeight     float64 // default: 10
	SkillWeight     float64 // default: 15
	ToleranceWeight float64 // default: 15
	PlayTimeWeight  float64 // default: 10
	ProximityDecay  float64 // default: 3 points lost per level of distance
}

// DefaultScorerConfig returns production weights.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		InterestWeight:  25,
		LanguageWeight:  15,
		PlatformWeight:  10,
		ThemeWeight:     10,
		SkillWeight:     15,
		ToleranceWeight: 15,
		PlayTimeWeight:  10,
		ProximityDecay:  3,
	}
}

// Scorer computes pairwise compatibility between two normalized
// profiles. It is pure and deterministic; every term is symmetric, so
// Score(a, b) == Score(b, a).
type Scorer struct {
	config ScorerConfig
}

// NewScorer creates a scorer with the provided weights.
func NewScorer(config ScorerConfig) *Scorer {
	return &Scorer{config: config}
}

// Score returns a compatibility value in [0, 100].
//
// Terms:
//   - interest overlap: |A∩B| / max(|A|, |B|), zero when both sets are empty
//   - language, platform, theme: full weight on exact match
//   - skill and tolerance proximity: linear decay, floor at zero
//   - play times: full weight if any slot is shared
func (s *Scorer) Score(a, b player.Profile) float64 {
	score := 0.0

	score += s.interestOverlap(a.Interests, b.Interests)

	if a.Language == b.Language {
		score += s.config.LanguageWeight
	}
	if a.PlatformPreference == b.PlatformPreference {
		score += s.config.PlatformWeight
	}
	if a.ThemePreference == b.ThemePreference {
		score += s.config.ThemeWeight
	}

	score += proximity(s.config.SkillWeight, s.config.ProximityDecay, a.SkillLevel, b.SkillLevel)
	score += proximity(s.config.ToleranceWeight, s.config.ProximityDecay, a.ContentTolerance, b.ContentTolerance)

	if sharesAny(a.PlayTimes, b.PlayTimes) {
		score += s.config.PlayTimeWeight
	}

	return clampScore(score)
}

func (s *Scorer) interestOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := mapset.NewThreadUnsafeSet(a...)
	setB := mapset.NewThreadUnsafeSet(b...)
	larger := setA.Cardinality()
	if setB.Cardinality() > larger {
		larger = setB.Cardinality()
	}
	if larger == 0 {
		return 0
	}
	shared := setA.Intersect(setB).Cardinality()
	return float64(shared) / float64(larger) * s.config.InterestWeight
}

func proximity(weight, decay float64, a, b int) float64 {
	v := weight - decay*math.Abs(float64(a-b))
	if v < 0 {
		return 0
	}
	return v
}

func sharesAny(a, b []string) bool {
	set := mapset.NewThreadUnsafeSet(a...)
	for _, slot := range b {
		if set.Contains(slot) {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
