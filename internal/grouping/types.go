package grouping

import (
	"github.com/squadforge/grouping-platform/internal/player"
)

// Optimization goals accepted by the engine.
const (
	GoalSocial   = "social"
	GoalSkill    = "skill"
	GoalBalanced = "balanced"
)

// Fallback tiers, in degradation order.
const (
	TierAI        = "ai"
	TierOptimized = "optimized"
	TierBasic     = "basic"
)

// Qualitative compatibility levels.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// neutralScore is used whenever no pairwise information exists: single
// player groups, leftovers, and the emergency basic partition.
const neutralScore = 50

// Request is the logical grouping request, transport-independent.
// Callers supply either full profiles or roster ids (resolved before
// the request reaches the service).
type Request struct {
	Players          []player.Profile `json:"players,omitempty"`
	PlayerIDs        []string         `json:"playerIds,omitempty"`
	GroupSize        int              `json:"groupSize"`
	OptimizationGoal string           `json:"optimizationGoal"`
	SystemPrompt     string           `json:"systemPrompt,omitempty"`
}

// ValidGoal reports whether goal names a known strategy.
func ValidGoal(goal string) bool {
	switch goal {
	case GoalSocial, GoalSkill, GoalBalanced:
		return true
	}
	return false
}

// Factors holds the per-attribute qualitative labels for a group.
type Factors struct {
	Interests          string `json:"interests"`
	CommunicationStyle string `json:"communicationStyle"`
	PlayTimes          string `json:"playTimes"`
	SkillLevel         string `json:"skillLevel"`
}

// MediumFactors is used for groups with no meaningful pair data.
func MediumFactors() Factors {
	return Factors{
		Interests:          LevelMedium,
		CommunicationStyle: LevelMedium,
		PlayTimes:          LevelMedium,
		SkillLevel:         LevelMedium,
	}
}

// Group is one formed team. Groups are created fresh per grouping
// call and never mutated after the engine returns them.
type Group struct {
	GroupID              int      `json:"groupId"`
	Players              []string `json:"players"`
	CompatibilityScore   int      `json:"compatibilityScore"`
	CommonInterests      []string `json:"commonInterests"`
	CompatibilityFactors Factors  `json:"compatibilityFactors"`
	RiskFactors          []string `json:"riskFactors"`
	Note                 string   `json:"note,omitempty"`
}

// AttemptError describes why a fallback tier failed.
type AttemptError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Attempt is the audit record for one tier.
type Attempt struct {
	Type    string        `json:"type"`
	Success bool          `json:"success"`
	Error   *AttemptError `json:"error,omitempty"`
}

// AlgorithmStatus records every tier attempted plus the one whose
// output was actually returned.
type AlgorithmStatus struct {
	Attempted []Attempt `json:"attempted"`
	Final     string    `json:"final"`
}

// Response is the uniform grouping result.
type Response struct {
	Groups          []Group         `json:"groups"`
	Quality         int             `json:"quality"`
	AlgorithmStatus AlgorithmStatus `json:"algorithmStatus"`
}
