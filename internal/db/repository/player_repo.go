package repository

import (
	"context"

	"github.com/squadforge/grouping-platform/internal/player"
)

type playerStore interface {
	UpsertPlayer(ctx context.Context, p player.Profile) error
	GetPlayer(ctx context.Context, id string) (player.Profile, error)
	ListPlayersByIDs(ctx context.Context, ids []string) ([]player.Profile, error)
}

// PlayerRepository contains DB helpers for the player roster.
type PlayerRepository struct {
	store playerStore
}

// NewPlayerRepository constructs a new player repository.
func NewPlayerRepository(store playerStore) *PlayerRepository {
	return &PlayerRepository{store: store}
}

// Upsert persists a normalized profile, replacing any previous row.
func (r *PlayerRepository) Upsert(ctx context.Context, p player.Profile) error {
	return r.store.UpsertPlayer(ctx, p)
}

// GetByID fetches one registered profile.
func (r *PlayerRepository) GetByID(ctx context.Context, id string) (player.Profile, error) {
	return r.store.GetPlayer(ctx, id)
}

// ListByIDs resolves roster ids into profiles. Unknown ids are simply
// absent from the result; callers decide whether that's an error.
func (r *PlayerRepository) ListByIDs(ctx context.Context, ids []string) ([]player.Profile, error) {
	if len(ids) == 0 {
		return []player.Profile{}, nil
	}
	return r.store.ListPlayersByIDs(ctx, ids)
}
