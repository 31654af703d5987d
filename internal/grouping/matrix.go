package grouping

import (
	"github.com/squadforge/grouping-platform/internal/player"
)

// Matrix holds the full pairwise score table for one grouping call.
// It is call-scoped: built once (O(n²) scorer calls), consulted while
// groups are formed, then discarded. Never persisted.
type Matrix struct {
	scores map[string]map[string]float64
}

// BuildMatrix scores every unordered pair exactly once and mirrors
// the result so lookups work in either direction.
func BuildMatrix(scorer *Scorer, players []player.Profile) *Matrix {
	m := &Matrix{scores: make(map[string]map[string]float64, len(players))}
	for _, p := range players {
		m.scores[p.ID] = make(map[string]float64, len(players)-1)
	}
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			score := scorer.Score(players[i], players[j])
			m.scores[players[i].ID][players[j].ID] = score
			m.scores[players[j].ID][players[i].ID] = score
		}
	}
	return m
}

// Score returns the pairwise score, zero for unknown ids.
func (m *Matrix) Score(a, b string) float64 {
	return m.scores[a][b]
}

// AverageAgainst returns the mean score between id and every member.
// Zero when members is empty.
func (m *Matrix) AverageAgainst(id string, members []player.Profile) float64 {
	if len(members) == 0 {
		return 0
	}
	total := 0.0
	for _, member := range members {
		total += m.Score(id, member.ID)
	}
	return total / float64(len(members))
}

// MeanPairwise returns the rounded mean score across all unordered
// pairs in the group, or neutralScore when no pairs exist.
func (m *Matrix) MeanPairwise(members []player.Profile) int {
	if len(members) < 2 {
		return neutralScore
	}
	total := 0.0
	pairs := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			total += m.Score(members[i].ID, members[j].ID)
			pairs++
		}
	}
	return roundScore(total / float64(pairs))
}

func roundScore(v float64) int {
	return int(v + 0.5)
}
