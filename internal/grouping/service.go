package grouping

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/squadforge/grouping-platform/internal/grouping/ai"
	"github.com/squadforge/grouping-platform/internal/metrics"
	"github.com/squadforge/grouping-platform/internal/player"
)

// Attempt error codes recorded in the audit trail.
const (
	ErrCodeAIUnavailable  = "ai_unavailable"
	ErrCodeAICallFailed   = "ai_call_failed"
	ErrCodeAIBadProposal  = "ai_bad_proposal"
	ErrCodeHeuristicPanic = "heuristic_panic"
)

// AIGrouper is the contract the orchestrator expects from the
// external AI collaborator.
type AIGrouper interface {
	ProposeGroups(ctx context.Context, req ai.ProposalRequest) ([]ai.Proposal, error)
}

// GroupFormer is the local heuristic tier (implemented by Engine).
type GroupFormer interface {
	FormGroups(players []player.Profile, groupSize int, goal string) []Group
}

// ResultCache fronts the orchestrator with a short-lived response
// cache (implemented by the Redis-backed Cache).
type ResultCache interface {
	Get(ctx context.Context, req Request) (*Response, error)
	Set(ctx context.Context, req Request, resp Response) error
}

// ServiceOptions configures orchestrator behavior.
type ServiceOptions struct {
	// AITimeout bounds the external collaborator call; a timeout is
	// treated like any other TryAI failure.
	AITimeout time.Duration
}

// Service is the fallback orchestrator. It walks the three tiers
// (external AI call, local heuristic engine, naive partition) and
// absorbs every grouping-level failure: callers always get a
// response, with the audit trail saying which tier produced it.
type Service struct {
	aiGrouper AIGrouper
	engine    GroupFormer
	analyzer  *Analyzer
	cache     ResultCache
	metrics   *metrics.Grouping
	logger    zerolog.Logger
	aiTimeout time.Duration
}

// NewService wires the orchestrator. aiGrouper, cache and m may be
// nil: a nil AI tier is recorded as a failed attempt, a nil cache
// disables response caching, nil metrics disable instrumentation.
func NewService(aiGrouper AIGrouper, engine GroupFormer, analyzer *Analyzer, cache ResultCache, m *metrics.Grouping, opts ServiceOptions, logger zerolog.Logger) *Service {
	timeout := opts.AITimeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Service{
		aiGrouper: aiGrouper,
		engine:    engine,
		analyzer:  analyzer,
		cache:     cache,
		metrics:   m,
		logger:    logger.With().Str("component", "grouping_service").Logger(),
		aiTimeout: timeout,
	}
}

// Group serves one grouping call. req.Players must already be
// normalized and validated upstream (length >= 2, known goal). The
// returned response is always usable; there is no error path.
func (s *Service) Group(ctx context.Context, req Request) Response {
	started := time.Now()

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, req); err == nil && cached != nil {
			return *cached
		}
	}

	status := AlgorithmStatus{Attempted: []Attempt{}}
	var groups []Group

	if formed, attempt := s.tryAI(ctx, req); attempt.Success {
		groups = formed
		status.Attempted = append(status.Attempted, attempt)
		status.Final = TierAI
	} else {
		status.Attempted = append(status.Attempted, attempt)

		if formed, attempt := s.tryHeuristic(req); attempt.Success {
			groups = formed
			status.Attempted = append(status.Attempted, attempt)
			status.Final = TierOptimized
		} else {
			status.Attempted = append(status.Attempted, attempt)

			// Availability floor: chunking in input order cannot fail.
			groups = s.naivePartition(req.Players, req.GroupSize)
			status.Attempted = append(status.Attempted, Attempt{Type: TierBasic, Success: true})
			status.Final = TierBasic
		}
	}

	resp := Response{
		Groups:          groups,
		Quality:         quality(groups),
		AlgorithmStatus: status,
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, req, resp)
	}
	s.metrics.ObserveResult(status.Final, resp.Quality, time.Since(started))

	s.logger.Info().
		Str("final", status.Final).
		Int("players", len(req.Players)).
		Int("groups", len(groups)).
		Int("quality", resp.Quality).
		Msg("grouping call served")

	return resp
}

// tryAI invokes the external collaborator under a bounded timeout and
// maps its proposals into canonical groups. The collaborator is
// trusted only for membership and the compatibility score; common
// interests, factor levels and risk flags are recomputed locally.
func (s *Service) tryAI(ctx context.Context, req Request) ([]Group, Attempt) {
	attempt := Attempt{Type: TierAI}
	if s.aiGrouper == nil {
		attempt.Error = &AttemptError{Code: ErrCodeAIUnavailable, Message: "ai grouper not configured"}
		s.metrics.ObserveAttempt(TierAI, false)
		return nil, attempt
	}

	callCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	proposals, err := s.aiGrouper.ProposeGroups(callCtx, ai.ProposalRequest{
		Players:      req.Players,
		GroupSize:    req.GroupSize,
		Goal:         req.OptimizationGoal,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("ai grouping attempt failed")
		attempt.Error = &AttemptError{Code: ErrCodeAICallFailed, Message: err.Error()}
		s.metrics.ObserveAttempt(TierAI, false)
		return nil, attempt
	}

	groups, err := s.mapProposals(proposals, req.Players)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ai proposal rejected")
		attempt.Error = &AttemptError{Code: ErrCodeAIBadProposal, Message: err.Error()}
		s.metrics.ObserveAttempt(TierAI, false)
		return nil, attempt
	}

	attempt.Success = true
	s.metrics.ObserveAttempt(TierAI, true)
	return groups, attempt
}

// mapProposals turns collaborator output into canonical groups,
// rejecting groupings that don't cover every player exactly once.
func (s *Service) mapProposals(proposals []ai.Proposal, players []player.Profile) ([]Group, error) {
	byID := make(map[string]player.Profile, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	seen := make(map[string]bool, len(players))
	groups := make([]Group, 0, len(proposals))
	for i, proposal := range proposals {
		members := make([]player.Profile, 0, len(proposal.Players))
		for _, id := range proposal.Players {
			p, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("proposal references unknown player %q", id)
			}
			if seen[id] {
				return nil, fmt.Errorf("proposal assigns player %q twice", id)
			}
			seen[id] = true
			members = append(members, p)
		}

		score := roundScore(clampScore(proposal.CompatibilityScore))
		if len(members) < 2 {
			score = neutralScore
		}

		groups = append(groups, Group{
			GroupID:              i + 1,
			Players:              append([]string{}, proposal.Players...),
			CompatibilityScore:   score,
			CommonInterests:      s.analyzer.CommonInterests(members),
			CompatibilityFactors: s.analyzer.FactorLevels(members),
			RiskFactors:          s.analyzer.RiskFlags(members),
		})
	}

	if len(seen) != len(players) {
		return nil, fmt.Errorf("proposal covers %d of %d players", len(seen), len(players))
	}
	return groups, nil
}

// tryHeuristic runs the local engine. The engine cannot fail on valid
// input; a panic is converted into a degrade-and-continue attempt
// instead of taking down the request.
func (s *Service) tryHeuristic(req Request) (groups []Group, attempt Attempt) {
	attempt = Attempt{Type: TierOptimized}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("heuristic engine panicked")
			attempt.Success = false
			attempt.Error = &AttemptError{Code: ErrCodeHeuristicPanic, Message: fmt.Sprint(r)}
			groups = nil
			s.metrics.ObserveAttempt(TierOptimized, false)
		}
	}()

	groups = s.engine.FormGroups(req.Players, req.GroupSize, req.OptimizationGoal)
	attempt.Success = true
	s.metrics.ObserveAttempt(TierOptimized, true)
	return groups, attempt
}

// naivePartition chunks players into consecutive groups in input
// order. This is the guaranteed-success terminal tier: no external
// calls, no unguarded division.
func (s *Service) naivePartition(players []player.Profile, groupSize int) []Group {
	if groupSize < 1 {
		groupSize = 1
	}
	groups := []Group{}
	for start := 0; start < len(players); start += groupSize {
		end := start + groupSize
		if end > len(players) {
			end = len(players)
		}
		groups = append(groups, Group{
			GroupID:              len(groups) + 1,
			Players:              memberIDs(players[start:end]),
			CompatibilityScore:   neutralScore,
			CommonInterests:      []string{},
			CompatibilityFactors: MediumFactors(),
			RiskFactors:          []string{RiskBasicMatching},
		})
	}
	s.metrics.ObserveAttempt(TierBasic, true)
	return groups
}

// quality is the rounded mean of all group scores, neutral when no
// groups were produced.
func quality(groups []Group) int {
	if len(groups) == 0 {
		return neutralScore
	}
	total := 0
	for _, g := range groups {
		total += g.CompatibilityScore
	}
	return roundScore(float64(total) / float64(len(groups)))
}
