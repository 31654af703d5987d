package player

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	httperrors "github.com/squadforge/grouping-platform/pkg/http/errors"
)

// Store persists roster profiles (implemented by the player
// repository).
type Store interface {
	Upsert(ctx context.Context, p Profile) error
	GetByID(ctx context.Context, id string) (Profile, error)
}

// NotFound reports whether err means the roster has no such player.
// Kept as an injected predicate so this package doesn't import the
// storage layer.
type NotFound func(err error) bool

// HTTPHandler exposes roster registration and lookup endpoints.
type HTTPHandler struct {
	store    Store
	notFound NotFound
	logger   zerolog.Logger
}

// NewHTTPHandler creates the roster handler.
func NewHTTPHandler(store Store, notFound NotFound, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		store:    store,
		notFound: notFound,
		logger:   logger.With().Str("component", "player_http").Logger(),
	}
}

type registerRequest struct {
	Players []Profile `json:"players"`
}

type registerResponse struct {
	PlayerIDs []string `json:"playerIds"`
}

// HandleRegister handles POST /v1/players: profiles are normalized
// once here at the boundary, then stored.
func (h *HTTPHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON payload")
		return
	}
	if len(req.Players) == 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "players is required", "players")
		return
	}

	ids := make([]string, 0, len(req.Players))
	for _, p := range req.Players {
		normalized := p.Normalize()
		if err := h.store.Upsert(r.Context(), normalized); err != nil {
			h.logger.Error().Err(err).Str("player_id", normalized.ID).Msg("failed to register player")
			httperrors.RespondError(w, http.StatusInternalServerError,
				httperrors.ErrCodeRegistrationFailed, "failed to register players")
			return
		}
		ids = append(ids, normalized.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(registerResponse{PlayerIDs: ids})
}

// HandleGet handles GET /v1/players/{id}.
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/players/")
	id = strings.TrimSuffix(id, "/")
	if id == "" || strings.Contains(id, "/") {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "unknown route")
		return
	}

	profile, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if h.notFound != nil && h.notFound(err) {
			httperrors.RespondNotFound(w, httperrors.ErrCodePlayerNotFound, "player is not registered")
			return
		}
		h.logger.Error().Err(err).Str("player_id", id).Msg("roster lookup failed")
		httperrors.RespondError(w, http.StatusInternalServerError,
			httperrors.ErrCodeRosterLookupFailed, "failed to fetch player")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(profile)
}
