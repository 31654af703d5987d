package grouping

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squadforge/grouping-platform/internal/player"
)

type stubGrouper struct {
	lastReq Request
	resp    Response
}

func (s *stubGrouper) Group(_ context.Context, req Request) Response {
	s.lastReq = req
	return s.resp
}

type stubRoster struct {
	profiles []player.Profile
	err      error
}

func (s *stubRoster) ListByIDs(_ context.Context, ids []string) ([]player.Profile, error) {
	return s.profiles, s.err
}

func postGrouping(t *testing.T, h *HTTPHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/groupings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func newTestHandler(svc Grouper, roster Roster, maxPlayers int) *HTTPHandler {
	return NewHTTPHandler(svc, roster, maxPlayers, zerolog.New(io.Discard))
}

func TestHandleCreateRejectsNonPost(t *testing.T) {
	h := newTestHandler(&stubGrouper{}, nil, 0)
	req := httptest.NewRequest(http.MethodGet, "/v1/groupings", nil)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleCreateRejectsInvalidJSON(t *testing.T) {
	h := newTestHandler(&stubGrouper{}, nil, 0)
	rec := postGrouping(t, h, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec)["error"])
}

func TestHandleCreateValidation(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "too few players",
			body:  `{"players":[{"id":"a"}],"groupSize":2,"optimizationGoal":"social"}`,
			field: "players",
		},
		{
			name:  "non positive group size",
			body:  `{"players":[{"id":"a"},{"id":"b"}],"groupSize":0,"optimizationGoal":"social"}`,
			field: "groupSize",
		},
		{
			name:  "unknown goal",
			body:  `{"players":[{"id":"a"},{"id":"b"}],"groupSize":2,"optimizationGoal":"chaotic"}`,
			field: "optimizationGoal",
		},
		{
			name:  "duplicate player ids",
			body:  `{"players":[{"id":"a"},{"id":"a"}],"groupSize":2,"optimizationGoal":"social"}`,
			field: "players",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&stubGrouper{}, nil, 0)
			rec := postGrouping(t, h, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "validation_failed", body["error"])
			assert.Equal(t, tc.field, body["field"])
		})
	}
}

func TestHandleCreateRejectsPlayersAndIDsTogether(t *testing.T) {
	h := newTestHandler(&stubGrouper{}, &stubRoster{}, 0)
	rec := postGrouping(t, h,
		`{"players":[{"id":"a"},{"id":"b"}],"playerIds":["c"],"groupSize":2,"optimizationGoal":"social"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decodeError(t, rec)["error"])
}

func TestHandleCreateEnforcesPlayerCap(t *testing.T) {
	h := newTestHandler(&stubGrouper{}, nil, 2)
	rec := postGrouping(t, h,
		`{"players":[{"id":"a"},{"id":"b"},{"id":"c"}],"groupSize":2,"optimizationGoal":"social"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "too_many_players", decodeError(t, rec)["error"])
}

func TestHandleCreateNormalizesAtBoundary(t *testing.T) {
	svc := &stubGrouper{resp: Response{Groups: []Group{}}}
	h := newTestHandler(svc, nil, 0)
	rec := postGrouping(t, h,
		`{"players":[{"id":"a","skillLevel":42},{"id":"b"}],"groupSize":2,"optimizationGoal":"balanced"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.lastReq.Players, 2)
	assert.Equal(t, player.MaxRating, svc.lastReq.Players[0].SkillLevel)
	assert.Equal(t, player.DefaultSkillLevel, svc.lastReq.Players[1].SkillLevel)
	assert.Equal(t, player.DefaultLanguage, svc.lastReq.Players[1].Language)
}

func TestHandleCreateResolvesRoster(t *testing.T) {
	roster := &stubRoster{profiles: []player.Profile{
		testProfile("a", nil),
		testProfile("b", nil),
	}}
	svc := &stubGrouper{resp: Response{
		Groups:          []Group{{GroupID: 1, Players: []string{"a", "b"}, CompatibilityScore: 75}},
		Quality:         75,
		AlgorithmStatus: AlgorithmStatus{Attempted: []Attempt{{Type: TierAI, Success: true}}, Final: TierAI},
	}}
	h := newTestHandler(svc, roster, 0)

	rec := postGrouping(t, h, `{"playerIds":["a","b"],"groupSize":2,"optimizationGoal":"social"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.lastReq.Players, 2)
	assert.Empty(t, svc.lastReq.PlayerIDs)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, TierAI, resp.AlgorithmStatus.Final)
	assert.Equal(t, 75, resp.Quality)
}

func TestHandleCreateRejectsDuplicateRosterIDs(t *testing.T) {
	roster := &stubRoster{profiles: []player.Profile{testProfile("a", nil), testProfile("b", nil)}}
	h := newTestHandler(&stubGrouper{}, roster, 0)

	rec := postGrouping(t, h, `{"playerIds":["a","b","a"],"groupSize":2,"optimizationGoal":"social"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "validation_failed", body["error"])
	assert.Equal(t, "playerIds", body["field"])
}

func TestHandleCreateKeepsRosterOrder(t *testing.T) {
	// The store returns rows in its own order; the handler must hand
	// the service the caller's order.
	roster := &stubRoster{profiles: []player.Profile{
		testProfile("c", nil),
		testProfile("a", nil),
		testProfile("b", nil),
	}}
	svc := &stubGrouper{resp: Response{Groups: []Group{}}}
	h := newTestHandler(svc, roster, 0)

	rec := postGrouping(t, h, `{"playerIds":["a","b","c"],"groupSize":3,"optimizationGoal":"social"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.lastReq.Players, 3)
	assert.Equal(t, "a", svc.lastReq.Players[0].ID)
	assert.Equal(t, "b", svc.lastReq.Players[1].ID)
	assert.Equal(t, "c", svc.lastReq.Players[2].ID)
}

func TestHandleCreateUnknownRosterID(t *testing.T) {
	roster := &stubRoster{profiles: []player.Profile{testProfile("a", nil)}}
	h := newTestHandler(&stubGrouper{}, roster, 0)

	rec := postGrouping(t, h, `{"playerIds":["a","ghost"],"groupSize":2,"optimizationGoal":"social"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "player_not_found", body["error"])
	assert.Contains(t, body["message"], "ghost")
}

func TestHandleCreateRosterLookupFailure(t *testing.T) {
	roster := &stubRoster{err: errors.New("connection refused")}
	h := newTestHandler(&stubGrouper{}, roster, 0)

	rec := postGrouping(t, h, `{"playerIds":["a","b"],"groupSize":2,"optimizationGoal":"social"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleCreateWithoutRoster(t *testing.T) {
	h := newTestHandler(&stubGrouper{}, nil, 0)
	rec := postGrouping(t, h, `{"playerIds":["a","b"],"groupSize":2,"optimizationGoal":"social"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
