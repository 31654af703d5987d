package grouping

import (
	"math"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/squadforge/grouping-platform/internal/player"
)

// Risk flag messages attached to formed groups.
const (
	RiskLanguageBarrier  = "Players in this group speak different languages"
	RiskPlatformFriction = "Players in this group prefer different platforms"
	RiskToxicity         = "A player in this group has repeated toxicity reports"
	RiskSkillGap         = "Large skill gap between strongest and weakest player"
	RiskBasicMatching    = "Emergency basic matching used"
)

// Thresholds mapping mean pairwise similarity to a level.
const (
	highThreshold   = 0.7
	mediumThreshold = 0.4
)

// toxicityReportLimit is the report count above which a member makes
// the whole group flagged.
const toxicityReportLimit = 2

// skillGapLimit is the max-minus-min spread above which the group is
// flagged.
const skillGapLimit = 4

// Analyzer derives qualitative compatibility levels and textual risk
// flags for a formed group. It is stateless and safe for concurrent
// use.
type Analyzer struct{}

// NewAnalyzer constructs a factor analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// FactorLevels labels each attribute high/medium/low based on the
// mean pairwise similarity across all unordered pairs. Groups of size
// one or less are always medium across the board.
func (a *Analyzer) FactorLevels(members []player.Profile) Factors {
	if len(members) <= 1 {
		return MediumFactors()
	}
	return Factors{
		Interests: level(meanPairwise(members, func(x, y player.Profile) float64 {
			return jaccard(x.Interests, y.Interests)
		})),
		CommunicationStyle: level(meanPairwise(members, func(x, y player.Profile) float64 {
			return equality(x.CommunicationStyle, y.CommunicationStyle)
		})),
		PlayTimes: level(meanPairwise(members, func(x, y player.Profile) float64 {
			return jaccard(x.PlayTimes, y.PlayTimes)
		})),
		SkillLevel: level(meanPairwise(members, func(x, y player.Profile) float64 {
			return ratingSimilarity(x.SkillLevel, y.SkillLevel)
		})),
	}
}

// RiskFlags returns human-readable warnings for the group. Applied
// once per formed group, not per pair. May be empty, never nil.
func (a *Analyzer) RiskFlags(members []player.Profile) []string {
	flags := []string{}
	if len(members) == 0 {
		return flags
	}

	languages := mapset.NewThreadUnsafeSet[string]()
	platforms := mapset.NewThreadUnsafeSet[string]()
	toxic := false
	minSkill, maxSkill := members[0].SkillLevel, members[0].SkillLevel

	for _, m := range members {
		languages.Add(m.Language)
		platforms.Add(m.PlatformPreference)
		if m.ToxicityReports() > toxicityReportLimit {
			toxic = true
		}
		if m.SkillLevel < minSkill {
			minSkill = m.SkillLevel
		}
		if m.SkillLevel > maxSkill {
			maxSkill = m.SkillLevel
		}
	}

	if languages.Cardinality() > 1 {
		flags = append(flags, RiskLanguageBarrier)
	}
	if platforms.Cardinality() > 1 {
		flags = append(flags, RiskPlatformFriction)
	}
	if toxic {
		flags = append(flags, RiskToxicity)
	}
	if maxSkill-minSkill > skillGapLimit {
		flags = append(flags, RiskSkillGap)
	}
	return flags
}

// CommonInterests intersects every member's interest set, preserving
// the first member's insertion order for display. Empty slice (never
// nil) when nothing is shared.
func (a *Analyzer) CommonInterests(members []player.Profile) []string {
	common := []string{}
	if len(members) == 0 {
		return common
	}

	rest := make([]mapset.Set[string], 0, len(members)-1)
	for _, m := range members[1:] {
		rest = append(rest, mapset.NewThreadUnsafeSet(m.Interests...))
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	for _, interest := range members[0].Interests {
		if seen.Contains(interest) {
			continue
		}
		seen.Add(interest)
		shared := true
		for _, set := range rest {
			if !set.Contains(interest) {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, interest)
		}
	}
	return common
}

func level(similarity float64) string {
	switch {
	case similarity >= highThreshold:
		return LevelHigh
	case similarity >= mediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

func meanPairwise(members []player.Profile, similarity func(a, b player.Profile) float64) float64 {
	total := 0.0
	pairs := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			total += similarity(members[i], members[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}

// jaccard returns |A∩B| / |A∪B|, zero when both sets are empty.
func jaccard(a, b []string) float64 {
	setA := mapset.NewThreadUnsafeSet(a...)
	setB := mapset.NewThreadUnsafeSet(b...)
	union := setA.Union(setB).Cardinality()
	if union == 0 {
		return 0
	}
	return float64(setA.Intersect(setB).Cardinality()) / float64(union)
}

func equality(a, b string) float64 {
	if a == b {
		return 1
	}
	return 0
}

// ratingSimilarity decays linearly over the 1..10 rating span.
func ratingSimilarity(a, b int) float64 {
	span := float64(player.MaxRating - player.MinRating)
	v := 1 - math.Abs(float64(a-b))/span
	if v < 0 {
		return 0
	}
	return v
}
