package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squadforge/grouping-platform/internal/player"
)

type memoryEmbeddingCache struct {
	store map[string][]float64
	gets  int
	sets  int
}

func newMemoryEmbeddingCache() *memoryEmbeddingCache {
	return &memoryEmbeddingCache{store: map[string][]float64{}}
}

func (c *memoryEmbeddingCache) Get(_ context.Context, id string) ([]float64, bool) {
	c.gets++
	vec, ok := c.store[id]
	return vec, ok
}

func (c *memoryEmbeddingCache) Set(_ context.Context, id string, vec []float64) {
	c.sets++
	c.store[id] = vec
}

func testRoster() []player.Profile {
	return player.NormalizeAll([]player.Profile{
		{ID: "a", Interests: []string{"RPG"}},
		{ID: "b", Interests: []string{"RPG", "FPS"}},
	})
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestProposeGroupsSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload proposalPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(proposalResponse{Groups: []Proposal{
			{Players: []string{"a", "b"}, CompatibilityScore: 82.5},
		}})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, nil, testLogger())
	proposals, err := client.ProposeGroups(context.Background(), ProposalRequest{
		Players:   testRoster(),
		GroupSize: 2,
		Goal:      "social",
	})

	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, []string{"a", "b"}, proposals[0].Players)
	assert.InDelta(t, 82.5, proposals[0].CompatibilityScore, 0.001)

	assert.Equal(t, "/group", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, 2, gotPayload.GroupSize)
	assert.Equal(t, "social", gotPayload.Goal)
	require.Len(t, gotPayload.Players, 2)
	assert.Len(t, gotPayload.Players[0].Embedding, 8)
}

func TestProposeGroupsRequiresEndpoint(t *testing.T) {
	client := NewClient(Config{}, nil, testLogger())
	_, err := client.ProposeGroups(context.Background(), ProposalRequest{Players: testRoster(), GroupSize: 2})
	assert.Error(t, err)
}

func TestProposeGroupsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil, testLogger())
	_, err := client.ProposeGroups(context.Background(), ProposalRequest{Players: testRoster(), GroupSize: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestProposeGroupsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil, testLogger())
	_, err := client.ProposeGroups(context.Background(), ProposalRequest{Players: testRoster(), GroupSize: 2})
	assert.Error(t, err)
}

func TestProposeGroupsEmptyGrouping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(proposalResponse{Groups: []Proposal{}})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil, testLogger())
	_, err := client.ProposeGroups(context.Background(), ProposalRequest{Players: testRoster(), GroupSize: 2})
	assert.Error(t, err)
}

func TestProposeGroupsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil, testLogger())
	_, err := client.ProposeGroups(context.Background(), ProposalRequest{Players: testRoster(), GroupSize: 2})
	assert.Error(t, err)
}

func TestEmbeddingCacheRoundTrip(t *testing.T) {
	cache := newMemoryEmbeddingCache()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(proposalResponse{Groups: []Proposal{
			{Players: []string{"a", "b"}, CompatibilityScore: 70},
		}})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, cache, testLogger())
	req := ProposalRequest{Players: testRoster(), GroupSize: 2}

	_, err := client.ProposeGroups(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets, "cold cache stores every profile vector")

	cache.sets = 0
	_, err = client.ProposeGroups(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, cache.sets, "warm cache skips recomputation")
}

func TestProfileVector(t *testing.T) {
	p := player.Profile{ID: "a", SkillLevel: 10, ContentTolerance: 1}.Normalize()
	vec := profileVector(p)

	require.Len(t, vec, 8)
	assert.InDelta(t, 1.0, vec[0], 0.001)
	assert.InDelta(t, 0.0, vec[1], 0.001)
	for _, v := range vec[2:6] {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}

	same := profileVector(p)
	assert.Equal(t, vec, same, "vector derivation is deterministic")
}
