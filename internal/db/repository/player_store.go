package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/squadforge/grouping-platform/internal/player"
)

// ErrPlayerNotFound is returned when a roster id has no row.
var ErrPlayerNotFound = errors.New("player not found")

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresPlayerStore implements playerStore against the players
// table (satisfied by *pgxpool.Pool).
type PostgresPlayerStore struct {
	db querier
}

var _ playerStore = (*PostgresPlayerStore)(nil)

func NewPostgresPlayerStore(db querier) *PostgresPlayerStore {
	return &PostgresPlayerStore{db: db}
}

const playerColumns = `id, interests, communication_style, platform_preference, language,
	theme_preference, play_times, skill_level, content_tolerance,
	toxicity_reports, friend_requests, metadata`

// UpsertPlayer inserts or replaces one profile row.
func (s *PostgresPlayerStore) UpsertPlayer(ctx context.Context, p player.Profile) error {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO players (` + playerColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (id) DO UPDATE SET
			interests = EXCLUDED.interests,
			communication_style = EXCLUDED.communication_style,
			platform_preference = EXCLUDED.platform_preference,
			language = EXCLUDED.language,
			theme_preference = EXCLUDED.theme_preference,
			play_times = EXCLUDED.play_times,
			skill_level = EXCLUDED.skill_level,
			content_tolerance = EXCLUDED.content_tolerance,
			toxicity_reports = EXCLUDED.toxicity_reports,
			friend_requests = EXCLUDED.friend_requests,
			metadata = EXCLUDED.metadata,
			updated_at = now()
	`

	_, err = s.db.Exec(ctx, query,
		p.ID,
		p.Interests,
		p.CommunicationStyle,
		p.PlatformPreference,
		p.Language,
		p.ThemePreference,
		p.PlayTimes,
		p.SkillLevel,
		p.ContentTolerance,
		p.ToxicityReports(),
		friendRequests(p),
		metadata,
	)
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

// GetPlayer fetches a single profile by id.
func (s *PostgresPlayerStore) GetPlayer(ctx context.Context, id string) (player.Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return player.Profile{}, ErrPlayerNotFound
		}
		return player.Profile{}, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

// ListPlayersByIDs fetches all matching rows; missing ids are skipped.
func (s *PostgresPlayerStore) ListPlayersByIDs(ctx context.Context, ids []string) ([]player.Profile, error) {
	rows, err := s.db.Query(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	players := make([]player.Profile, 0, len(ids))
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func scanPlayer(row pgx.Row) (player.Profile, error) {
	var (
		p               player.Profile
		toxicityReports int
		reqs            int
		metadata        []byte
	)
	err := row.Scan(
		&p.ID,
		&p.Interests,
		&p.CommunicationStyle,
		&p.PlatformPreference,
		&p.Language,
		&p.ThemePreference,
		&p.PlayTimes,
		&p.SkillLevel,
		&p.ContentTolerance,
		&toxicityReports,
		&reqs,
		&metadata,
	)
	if err != nil {
		return player.Profile{}, err
	}

	if toxicityReports > 0 || reqs > 0 {
		p.PastBehavior = &player.PastBehavior{
			ToxicityReports: toxicityReports,
			FriendRequests:  reqs,
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return player.Profile{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return p, nil
}

func friendRequests(p player.Profile) int {
	if p.PastBehavior == nil {
		return 0
	}
	return p.PastBehavior.FriendRequests
}
