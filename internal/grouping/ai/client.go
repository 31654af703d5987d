package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/squadforge/grouping-platform/internal/player"
)

// Config holds connection details for the external grouping model.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ProposalRequest is the payload forwarded to the collaborator.
type ProposalRequest struct {
	Players      []player.Profile
	GroupSize    int
	Goal         string
	SystemPrompt string
}

// Proposal is one group suggested by the collaborator. The service
// trusts it only for membership and the compatibility score; factor
// and risk derivation is recomputed locally.
type Proposal struct {
	Players            []string `json:"players"`
	CompatibilityScore float64  `json:"compatibility_score"`
	RiskFactors        []string `json:"risk_factors,omitempty"`
}

// Client calls the external AI grouping service over HTTP. The HTTP
// client carries a hard timeout so a hung collaborator cannot stall a
// grouping request; timeouts surface as ordinary errors.
type Client struct {
	httpClient *http.Client
	config     Config
	embeddings EmbeddingCache
	logger     zerolog.Logger
	groupURL   string
}

// NewClient builds a collaborator client. embeddings may be nil, in
// which case profile vectors are recomputed on every call.
func NewClient(cfg Config, embeddings EmbeddingCache, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:     cfg,
		embeddings: embeddings,
		logger:     logger.With().Str("component", "ai_grouper").Logger(),
		groupURL:   base + "/group",
	}
}

// ProposeGroups asks the collaborator for a grouping. Any failure
// mode (network, non-2xx, malformed body, empty result) is returned
// as an error for the orchestrator to absorb.
func (c *Client) ProposeGroups(ctx context.Context, req ProposalRequest) ([]Proposal, error) {
	if c.config.BaseURL == "" {
		return nil, fmt.Errorf("grouper endpoint not configured")
	}

	payload := proposalPayload{
		Players:      make([]wirePlayer, 0, len(req.Players)),
		GroupSize:    req.GroupSize,
		Goal:         req.Goal,
		SystemPrompt: req.SystemPrompt,
	}
	for _, p := range req.Players {
		payload.Players = append(payload.Players, wirePlayer{
			ID:                 p.ID,
			Interests:          p.Interests,
			CommunicationStyle: p.CommunicationStyle,
			PlatformPreference: p.PlatformPreference,
			Language:           p.Language,
			ThemePreference:    p.ThemePreference,
			PlayTimes:          p.PlayTimes,
			SkillLevel:         p.SkillLevel,
			ContentTolerance:   p.ContentTolerance,
			Embedding:          c.embeddingFor(ctx, p),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.groupURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("grouper returned status %d", resp.StatusCode)
	}

	var decoded proposalResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode grouper payload: %w", err)
	}
	if len(decoded.Groups) == 0 {
		return nil, fmt.Errorf("grouper returned empty grouping")
	}
	return decoded.Groups, nil
}

// embeddingFor returns the profile's feature vector, reusing the
// cache keyed by profile id when available. The vector is what the
// collaborator embeds profiles as, so caching it saves the model a
// re-embedding round trip for returning players.
func (c *Client) embeddingFor(ctx context.Context, p player.Profile) []float64 {
	if c.embeddings != nil {
		if vec, ok := c.embeddings.Get(ctx, p.ID); ok {
			return vec
		}
	}
	vec := profileVector(p)
	if c.embeddings != nil {
		c.embeddings.Set(ctx, p.ID, vec)
	}
	return vec
}

// profileVector flattens a profile into a small numeric vector:
// rating features normalized to [0,1] plus bucketed hashes of the
// categorical attributes.
func profileVector(p player.Profile) []float64 {
	span := float64(player.MaxRating - player.MinRating)
	vec := []float64{
		float64(p.SkillLevel-player.MinRating) / span,
		float64(p.ContentTolerance-player.MinRating) / span,
		bucket(p.Language),
		bucket(p.PlatformPreference),
		bucket(p.CommunicationStyle),
		bucket(p.ThemePreference),
		float64(len(p.Interests)),
		float64(len(p.PlayTimes)),
	}
	return vec
}

func bucket(s string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return float64(h.Sum32()%1000) / 1000
}

type wirePlayer struct {
	ID                 string    `json:"id"`
	Interests          []string  `json:"interests"`
	CommunicationStyle string    `json:"communication_style"`
	PlatformPreference string    `json:"platform_preference"`
	Language           string    `json:"language"`
	ThemePreference    string    `json:"theme_preference"`
	PlayTimes          []string  `json:"play_times"`
	SkillLevel         int       `json:"skill_level"`
	ContentTolerance   int       `json:"content_tolerance"`
	Embedding          []float64 `json:"embedding,omitempty"`
}

type proposalPayload struct {
	Players      []wirePlayer `json:"players"`
	GroupSize    int          `json:"group_size"`
	Goal         string       `json:"goal"`
	SystemPrompt string       `json:"system_prompt,omitempty"`
}

type proposalResponse struct {
	Groups []Proposal `json:"groups"`
}
