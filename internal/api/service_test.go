package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fitbro/fitbro/internal/achievements"
	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/duel"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage/storagetest"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	client *resty.Client
	ch     *challenge.Service
	duels  *duel.Controller
	now    time.Time
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := storagetest.New(t)
	require.NoError(t, store.SeedAchievements(context.Background(), achievements.Catalog()))
	now := time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)
	clock := calendar.NewClock(time.UTC, func() time.Time { return now })
	ch := challenge.New(store, clock)
	duels := duel.New(store, clock, 24*time.Hour)

	srv := httptest.NewServer(NewService(store, ch, duels).NewServer())
	t.Cleanup(srv.Close)

	return &testAPI{
		client: resty.New().SetBaseURL(srv.URL),
		ch:     ch,
		duels:  duels,
		now:    now,
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	resp, err := api.client.R().Get("/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestLeaderboardAndUser(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	_, err := api.ch.Register(ctx, 1, "alice")
	require.NoError(t, err)
	_, err = api.ch.Register(ctx, 2, "bob")
	require.NoError(t, err)
	_, err = api.ch.SubmitMain(ctx, 2, "video")
	require.NoError(t, err)

	var board []LeaderboardEntry
	resp, err := api.client.R().SetResult(&board).Get("/api/leaderboard")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Len(t, board, 2)
	require.Equal(t, "bob", board[0].Name)
	require.Equal(t, 12, board[0].Points)
	require.Equal(t, 2, board[0].Level)

	resp, err = api.client.R().SetResult(&board).SetQueryParam("limit", "1").Get("/api/leaderboard")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Len(t, board, 1)

	resp, err = api.client.R().SetQueryParam("limit", "zero").Get("/api/leaderboard")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode())

	var user UserView
	resp, err = api.client.R().SetResult(&user).Get("/api/users/2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Equal(t, 1, user.Rank)
	require.EqualValues(t, 1, user.Done)
	require.Equal(t, 3, user.DayOffsLeft)
	require.Equal(t, []string{"first_sweat"}, user.Badges)

	resp, err = api.client.R().Get("/api/users/404")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode())

	resp, err = api.client.R().Get("/api/users/bob")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode())
}

func TestDuel(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	for id, name := range map[int64]string{1: "alice", 2: "bob", 3: "carol"} {
		_, err := api.ch.Register(ctx, id, name)
		require.NoError(t, err)
	}

	d, err := api.duels.Create(ctx, duel.Draft{
		ChallengerID: 1,
		OpponentID:   2,
		ArbiterID:    3,
		WeekKey:      calendar.WeekKey(api.now),
	}, "challenge")
	require.NoError(t, err)

	var view DuelView
	resp, err := api.client.R().SetResult(&view).Get("/api/duels/" + d.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Equal(t, string(models.DuelStatusAwaitingResponse), view.Status)
	require.Equal(t, "2025-W02", view.Week)
	require.True(t, view.ExpiresAt.Equal(api.now.Add(24*time.Hour)))
	require.Nil(t, view.WinnerID)

	resp, err = api.client.R().Get("/api/duels/missing")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode())
}
