package grouping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/squadforge/grouping-platform/internal/player"
	httperrors "github.com/squadforge/grouping-platform/pkg/http/errors"
)

// Roster resolves stored profiles when a request arrives with ids
// instead of inline profiles.
type Roster interface {
	ListByIDs(ctx context.Context, ids []string) ([]player.Profile, error)
}

// Grouper serves grouping calls (implemented by Service).
type Grouper interface {
	Group(ctx context.Context, req Request) Response
}

// HTTPHandler exposes the grouping REST endpoint. Request validation
// lives here: it is the only place an error ever reaches the caller.
// Everything past validation is absorbed by the orchestrator's
// fallback tiers.
type HTTPHandler struct {
	svc        Grouper
	roster     Roster
	maxPlayers int
	logger     zerolog.Logger
}

// NewHTTPHandler creates the grouping handler. maxPlayers caps the
// player list so one request can't burn unbounded CPU on the O(n²)
// matrix; zero disables the cap.
func NewHTTPHandler(svc Grouper, roster Roster, maxPlayers int, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:        svc,
		roster:     roster,
		maxPlayers: maxPlayers,
		logger:     logger.With().Str("component", "grouping_http").Logger(),
	}
}

// HandleCreate handles POST /v1/groupings.
func (h *HTTPHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON payload")
		return
	}

	if len(req.Players) > 0 && len(req.PlayerIDs) > 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed,
			"provide either players or playerIds, not both", "players")
		return
	}

	if len(req.PlayerIDs) > 0 {
		if err := checkUniqueRosterIDs(req.PlayerIDs); err != nil {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), err.Field)
			return
		}
		resolved, ok := h.resolveRoster(r.Context(), w, req.PlayerIDs)
		if !ok {
			return
		}
		req.Players = resolved
		req.PlayerIDs = nil
	}

	if err := h.validate(&req); err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), err.Field)
		return
	}
	if h.maxPlayers > 0 && len(req.Players) > h.maxPlayers {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeTooManyPlayers,
			fmt.Sprintf("at most %d players per grouping call", h.maxPlayers))
		return
	}

	// Normalization happens once, here at the boundary; the engine
	// only ever sees defaulted, clamped, immutable profiles.
	req.Players = player.NormalizeAll(req.Players)

	if err := checkUniqueIDs(req.Players); err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), err.Field)
		return
	}

	resp := h.svc.Group(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode grouping response")
	}
}

// resolveRoster loads the requested profiles and reassembles them in
// the caller's id order, since the store returns rows in arbitrary
// order and downstream tiers treat the player list as input order.
func (h *HTTPHandler) resolveRoster(ctx context.Context, w http.ResponseWriter, ids []string) ([]player.Profile, bool) {
	if h.roster == nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "playerIds not supported without a roster")
		return nil, false
	}
	profiles, err := h.roster.ListByIDs(ctx, ids)
	if err != nil {
		h.logger.Error().Err(err).Msg("roster lookup failed")
		httperrors.RespondInternalError(w, "failed to resolve player ids")
		return nil, false
	}

	byID := make(map[string]player.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	ordered := make([]player.Profile, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			httperrors.RespondNotFound(w, httperrors.ErrCodePlayerNotFound,
				fmt.Sprintf("player %q is not registered", id))
			return nil, false
		}
		ordered = append(ordered, p)
	}
	return ordered, true
}

// ValidationError carries the offending field alongside the message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (h *HTTPHandler) validate(req *Request) *ValidationError {
	if len(req.Players) < 2 {
		return &ValidationError{Field: "players", Message: "at least 2 players are required"}
	}
	if req.GroupSize < 1 {
		return &ValidationError{Field: "groupSize", Message: "groupSize must be a positive integer"}
	}
	if !ValidGoal(req.OptimizationGoal) {
		return &ValidationError{Field: "optimizationGoal", Message: "optimizationGoal must be social, skill, or balanced"}
	}
	return nil
}

func checkUniqueRosterIDs(ids []string) *ValidationError {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return &ValidationError{Field: "playerIds", Message: fmt.Sprintf("duplicate player id %q", id)}
		}
		seen[id] = true
	}
	return nil
}

func checkUniqueIDs(players []player.Profile) *ValidationError {
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if seen[p.ID] {
			return &ValidationError{Field: "players", Message: fmt.Sprintf("duplicate player id %q", p.ID)}
		}
		seen[p.ID] = true
	}
	return nil
}
