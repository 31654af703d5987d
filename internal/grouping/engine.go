package grouping

import (
	"math"
	"math/rand"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/squadforge/grouping-platform/internal/player"
)

// Composite weights for the balanced strategy.
const (
	balancedCompatWeight   = 0.4
	balancedSkillWeight    = 0.3
	balancedInterestWeight = 0.2
	balancedPlayTimeWeight = 0.1
	balancedNoveltyScale   = 5
)

// IncompleteGroupNote marks the trailing undersized group.
const IncompleteGroupNote = "Incomplete group formed from remaining players"

// Engine partitions a normalized player list into fixed-size groups
// using a greedy build-one-group-at-a-time loop. The RNG only decides
// the seed player for the social and balanced strategies; inject a
// seeded source for reproducible output.
type Engine struct {
	scorer   *Scorer
	analyzer *Analyzer
	rng      *rand.Rand
}

// NewEngine creates an engine. A nil rng falls back to a time-seeded
// source.
func NewEngine(scorer *Scorer, analyzer *Analyzer, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{scorer: scorer, analyzer: analyzer, rng: rng}
}

// FormGroups partitions players into groups of groupSize under the
// given goal. Every input player appears in exactly one output group;
// when the count doesn't divide evenly the final group holds the
// leftovers. The loop always terminates because the remaining pool
// strictly shrinks.
func (e *Engine) FormGroups(players []player.Profile, groupSize int, goal string) []Group {
	if groupSize < 1 {
		groupSize = 1
	}
	matrix := BuildMatrix(e.scorer, players)

	ordered := players
	if goal == GoalSkill {
		ordered = zigzagBySkill(players)
	}

	remaining := append([]player.Profile(nil), ordered...)
	groups := []Group{}

	for len(remaining) >= groupSize {
		var members []player.Profile
		if goal == GoalSkill {
			// Selection already happened in the zig-zag ordering; the
			// compatibility matrix is only consulted for annotation.
			members = remaining[:groupSize:groupSize]
			remaining = remaining[groupSize:]
		} else {
			members, remaining = e.growGroup(remaining, groupSize, goal, matrix)
		}
		groups = append(groups, e.finishGroup(len(groups)+1, members, matrix))
	}

	if len(remaining) > 0 {
		groups = append(groups, leftoverGroup(len(groups)+1, remaining))
	}
	return groups
}

// growGroup seeds a new group with a random player and greedily pulls
// the best-fit candidate until the group is full. Ties keep the
// earliest-encountered candidate.
func (e *Engine) growGroup(remaining []player.Profile, groupSize int, goal string, matrix *Matrix) (members, rest []player.Profile) {
	rest = remaining
	seed := e.rng.Intn(len(rest))
	members = []player.Profile{rest[seed]}
	rest = append(rest[:seed:seed], rest[seed+1:]...)

	for len(members) < groupSize {
		best := 0
		bestScore := math.Inf(-1)
		for i, candidate := range rest {
			var score float64
			if goal == GoalBalanced {
				score = e.balancedObjective(candidate, members, matrix)
			} else {
				score = matrix.AverageAgainst(candidate.ID, members)
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		members = append(members, rest[best])
		rest = append(rest[:best:best], rest[best+1:]...)
	}
	return members, rest
}

// balancedObjective mixes compatibility, skill proximity to the group
// average, interest novelty, and play-time overlap.
func (e *Engine) balancedObjective(candidate player.Profile, members []player.Profile, matrix *Matrix) float64 {
	compat := matrix.AverageAgainst(candidate.ID, members)

	totalSkill := 0
	interests := mapset.NewThreadUnsafeSet[string]()
	playTimes := mapset.NewThreadUnsafeSet[string]()
	for _, m := range members {
		totalSkill += m.SkillLevel
		interests.Append(m.Interests...)
		playTimes.Append(m.PlayTimes...)
	}
	avgSkill := float64(totalSkill) / float64(len(members))
	skillFit := 100 - 10*math.Abs(float64(candidate.SkillLevel)-avgSkill)

	novel := 0
	for _, interest := range candidate.Interests {
		if !interests.Contains(interest) {
			novel++
		}
	}
	shared := 0
	for _, slot := range candidate.PlayTimes {
		if playTimes.Contains(slot) {
			shared++
		}
	}

	return balancedCompatWeight*compat +
		balancedSkillWeight*skillFit +
		balancedInterestWeight*float64(novel*balancedNoveltyScale) +
		balancedPlayTimeWeight*float64(shared*balancedNoveltyScale)
}

func (e *Engine) finishGroup(id int, members []player.Profile, matrix *Matrix) Group {
	return Group{
		GroupID:              id,
		Players:              memberIDs(members),
		CompatibilityScore:   matrix.MeanPairwise(members),
		CommonInterests:      e.analyzer.CommonInterests(members),
		CompatibilityFactors: e.analyzer.FactorLevels(members),
		RiskFactors:          e.analyzer.RiskFlags(members),
	}
}

// leftoverGroup wraps the 1..groupSize-1 players that couldn't fill a
// full group. It carries neutral annotations rather than pretending
// pair data exists.
func leftoverGroup(id int, members []player.Profile) Group {
	return Group{
		GroupID:              id,
		Players:              memberIDs(members),
		CompatibilityScore:   neutralScore,
		CommonInterests:      []string{},
		CompatibilityFactors: MediumFactors(),
		RiskFactors:          []string{},
		Note:                 IncompleteGroupNote,
	}
}

// zigzagBySkill sorts players by skill and interleaves the strongest
// and weakest so consecutive chunks mix skill levels. The sort is
// stable, keeping encounter order among equal skills.
func zigzagBySkill(players []player.Profile) []player.Profile {
	sorted := append([]player.Profile(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SkillLevel < sorted[j].SkillLevel
	})

	out := make([]player.Profile, 0, len(sorted))
	lo, hi := 0, len(sorted)-1
	fromTop := true
	for lo <= hi {
		if fromTop {
			out = append(out, sorted[hi])
			hi--
		} else {
			out = append(out, sorted[lo])
			lo++
		}
		fromTop = !fromTop
	}
	return out
}

func memberIDs(members []player.Profile) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}
