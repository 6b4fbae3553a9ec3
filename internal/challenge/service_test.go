package challenge_test

import (
	"context"
	"testing"
	"time"

	"github.com/fitbro/fitbro/internal/achievements"
	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/fitbro/fitbro/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
)

var loc = time.FixedZone("MSK", 3*60*60)

type env struct {
	storage *storage.Storage
	svc     *challenge.Service
	now     time.Time
}

func (e *env) set(t time.Time) {
	e.now = t
}

func newEnv(t *testing.T, start time.Time) *env {
	t.Helper()
	e := &env{storage: storagetest.New(t), now: start}
	e.svc = challenge.New(e.storage, calendar.NewClock(loc, func() time.Time { return e.now }))
	require.NoError(t, e.storage.SeedAchievements(context.Background(), achievements.Catalog()))
	return e
}

func (e *env) register(t *testing.T, id int64, name string) {
	t.Helper()
	_, err := e.svc.Register(context.Background(), id, name)
	require.NoError(t, err)
}

func (e *env) user(t *testing.T, id int64) *models.User {
	t.Helper()
	user, err := e.storage.GetUser(context.Background(), id)
	require.NoError(t, err)
	return user
}

func TestMainAndBonusFlow(t *testing.T) {
	e := newEnv(t, time.Date(2025, time.January, 6, 7, 30, 0, 0, loc))
	ctx := context.Background()
	e.register(t, 1, "alice")

	_, err := e.svc.RequestBonus(ctx, 1, false)
	require.ErrorIs(t, err, challenge.ErrMainNotDone)

	_, err = e.svc.RequestMain(ctx, 1)
	require.NoError(t, err)

	sub, err := e.svc.SubmitMain(ctx, 1, "video-1")
	require.NoError(t, err)
	require.Equal(t, models.StartingPoints+challenge.PointsMain, sub.User.Points)
	require.Len(t, sub.Awards, 1)
	require.Equal(t, achievements.CodeFirstSweat, sub.Awards[0].Code)

	_, err = e.svc.SubmitMain(ctx, 1, "video-2")
	require.ErrorIs(t, err, challenge.ErrAlreadyDone)

	_, err = e.svc.RequestBonus(ctx, 1, true)
	require.ErrorIs(t, err, challenge.ErrMainPromptActive)

	sub, err = e.svc.SubmitBonus(ctx, 1, "extra")
	require.NoError(t, err)
	require.Equal(t, models.StartingPoints+challenge.PointsMain+challenge.PointsBonus, sub.User.Points)

	_, err = e.svc.SubmitBonus(ctx, 1, "extra-2")
	require.ErrorIs(t, err, challenge.ErrBonusAwarded)

	_, err = e.svc.UseDayOff(ctx, 1)
	require.ErrorIs(t, err, challenge.ErrAlreadyDone)
}

func TestBonusWithoutMainIsRejected(t *testing.T) {
	e := newEnv(t, time.Date(2025, time.January, 6, 12, 0, 0, 0, loc))
	e.register(t, 1, "alice")

	_, err := e.svc.SubmitBonus(context.Background(), 1, "extra")
	require.ErrorIs(t, err, challenge.ErrMainNotDone)
	require.Equal(t, models.StartingPoints, e.user(t, 1).Points)
}

func TestDayOffsRunOut(t *testing.T) {
	e := newEnv(t, time.Date(2025, time.January, 6, 12, 0, 0, 0, loc))
	ctx := context.Background()
	e.register(t, 1, "alice")

	for i := 0; i < models.MonthlyDayOffs; i++ {
		e.set(time.Date(2025, time.January, 6+i, 12, 0, 0, 0, loc))
		res, err := e.svc.UseDayOff(ctx, 1)
		require.NoError(t, err)
		require.True(t, res.Granted)
		require.Equal(t, models.MonthlyDayOffs-i-1, res.Remaining)
	}

	_, err := e.svc.UseDayOff(ctx, 1)
	require.ErrorIs(t, err, challenge.ErrDayOffToday)

	e.set(time.Date(2025, time.January, 9, 12, 0, 0, 0, loc))
	res, err := e.svc.UseDayOff(ctx, 1)
	require.NoError(t, err)
	require.False(t, res.Granted)
	require.False(t, e.user(t, 1).Active)

	_, err = e.svc.RequestMain(ctx, 1)
	require.ErrorIs(t, err, challenge.ErrInactive)
}

func TestDayOffBlocksMainVideo(t *testing.T) {
	e := newEnv(t, time.Date(2025, time.January, 6, 12, 0, 0, 0, loc))
	ctx := context.Background()
	e.register(t, 1, "alice")

	_, err := e.svc.UseDayOff(ctx, 1)
	require.NoError(t, err)

	_, err = e.svc.RequestMain(ctx, 1)
	require.ErrorIs(t, err, challenge.ErrDayOffToday)
}

func TestUnknownUser(t *testing.T) {
	e := newEnv(t, time.Date(2025, time.January, 6, 12, 0, 0, 0, loc))

	_, err := e.svc.RequestMain(context.Background(), 99)
	require.ErrorIs(t, err, challenge.ErrNotRegistered)
	_, err = e.svc.Rating(context.Background(), 99)
	require.ErrorIs(t, err, challenge.ErrNotRegistered)
}

func TestWeeklySubmission(t *testing.T) {
	// Sunday evening of 2025-W02.
	e := newEnv(t, time.Date(2025, time.January, 12, 23, 0, 0, 0, loc))
	ctx := context.Background()
	e.register(t, 1, "alice")

	week, err := e.svc.RequestWeekly(ctx, 1, models.SubGoalPullups)
	require.NoError(t, err)
	require.Equal(t, "2025-W02", week)

	sub, err := e.svc.SubmitWeekly(ctx, 1, models.SubGoalPullups, week, "pullups")
	require.NoError(t, err)
	require.Equal(t, models.StartingPoints+challenge.PointsWeeklyGoal, sub.User.Points)

	_, err = e.svc.RequestWeekly(ctx, 1, models.SubGoalPullups)
	require.ErrorIs(t, err, challenge.ErrSubGoalDone)
	_, err = e.svc.SubmitWeekly(ctx, 1, models.SubGoalPullups, week, "again")
	require.ErrorIs(t, err, challenge.ErrSubGoalDone)

	stepsWeek, err := e.svc.RequestWeekly(ctx, 1, models.SubGoalSteps)
	require.NoError(t, err)

	// The prompt was opened on Sunday, the upload arrives on Monday.
	e.set(time.Date(2025, time.January, 13, 0, 0, 30, 0, loc))
	_, err = e.svc.SubmitWeekly(ctx, 1, models.SubGoalSteps, stepsWeek, "steps")
	require.ErrorIs(t, err, challenge.ErrWeekClosed)
	require.Equal(t, models.StartingPoints+challenge.PointsWeeklyGoal, e.user(t, 1).Points)
}

func TestWeeklyBonusTick(t *testing.T) {
	e := newEnv(t, time.Date(2025, time.January, 5, 12, 0, 0, 0, loc))
	ctx := context.Background()
	e.register(t, 1, "alice")
	e.register(t, 2, "bob")

	for i := 0; i < 7; i++ {
		e.set(time.Date(2025, time.January, 6+i, 12, 0, 0, 0, loc))
		_, err := e.svc.SubmitMain(ctx, 1, "video")
		require.NoError(t, err)
		if i != 3 {
			_, err = e.svc.SubmitMain(ctx, 2, "video")
			require.NoError(t, err)
		}
	}

	e.set(time.Date(2025, time.January, 13, 0, 5, 0, 0, loc))
	credited, err := e.svc.OnWeeklyBonusTick(ctx)
	require.NoError(t, err)
	require.Len(t, credited, 1)
	require.EqualValues(t, 1, credited[0].ID)

	credited, err = e.svc.OnWeeklyBonusTick(ctx)
	require.NoError(t, err)
	require.Empty(t, credited)

	require.Equal(t, models.StartingPoints+7*challenge.PointsMain+challenge.PointsFullWeek, e.user(t, 1).Points)
	require.Equal(t, models.StartingPoints+6*challenge.PointsMain, e.user(t, 2).Points)
}

func TestMidnightSweep(t *testing.T) {
	e := newEnv(t, time.Date(2025, time.January, 5, 12, 0, 0, 0, loc))
	ctx := context.Background()
	e.register(t, 1, "alice")
	e.register(t, 2, "bob")
	e.register(t, 3, "carol")

	e.set(time.Date(2025, time.January, 6, 12, 0, 0, 0, loc))
	_, err := e.svc.SubmitMain(ctx, 1, "video")
	require.NoError(t, err)
	_, err = e.storage.TakeDayOff(ctx, 3, "2025-01-01", e.now)
	require.NoError(t, err)
	_, err = e.storage.TakeDayOff(ctx, 3, "2025-01-02", e.now)
	require.NoError(t, err)
	_, err = e.storage.TakeDayOff(ctx, 3, "2025-01-03", e.now)
	require.NoError(t, err)

	laggards, err := e.svc.Laggards(ctx)
	require.NoError(t, err)
	require.Len(t, laggards, 2)

	// Joins after midnight, so owes nothing for the 6th.
	e.set(time.Date(2025, time.January, 7, 0, 0, 30, 0, loc))
	e.register(t, 4, "dave")

	e.set(time.Date(2025, time.January, 7, 0, 1, 0, 0, loc))
	results, err := e.svc.OnMidnightSweep(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[int64]challenge.SweepResult{}
	for _, r := range results {
		byID[r.User.ID] = r
	}
	require.True(t, byID[2].Granted)
	require.Equal(t, 2, byID[2].Remaining)
	require.False(t, byID[3].Granted)
	require.False(t, e.user(t, 3).Active)
	require.True(t, e.user(t, 4).Active)

	results, err = e.svc.OnMidnightSweep(ctx)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestMonthTick(t *testing.T) {
	e := newEnv(t, time.Date(2025, time.January, 20, 12, 0, 0, 0, loc))
	ctx := context.Background()
	e.register(t, 1, "alice")

	_, err := e.svc.UseDayOff(ctx, 1)
	require.NoError(t, err)

	n, err := e.svc.OnMonthTick(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	e.set(time.Date(2025, time.February, 1, 0, 0, 0, 0, loc))
	n, err = e.svc.OnMonthTick(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, models.MonthlyDayOffs, e.user(t, 1).DayOffRemaining())

	n, err = e.svc.OnMonthTick(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRatingAndStats(t *testing.T) {
	e := newEnv(t, time.Date(2025, time.January, 6, 12, 0, 0, 0, loc))
	ctx := context.Background()
	e.register(t, 1, "alice")
	e.register(t, 2, "bob")

	for i := 0; i < 3; i++ {
		e.set(time.Date(2025, time.January, 6+i, 12, 0, 0, 0, loc))
		_, err := e.svc.SubmitMain(ctx, 1, "video")
		require.NoError(t, err)
		_, err = e.svc.SubmitBonus(ctx, 1, "extra")
		require.NoError(t, err)
	}
	e.set(time.Date(2025, time.January, 10, 12, 0, 0, 0, loc))
	_, err := e.svc.SubmitMain(ctx, 1, "video")
	require.NoError(t, err)
	_, err = e.svc.SubmitBonus(ctx, 1, "extra")
	require.NoError(t, err)

	rating, err := e.svc.Rating(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, rating.Rank)
	require.EqualValues(t, 4, rating.Done)
	require.EqualValues(t, 4, rating.Bonus)
	require.Equal(t, 3, rating.BonusStreak)
	require.Len(t, rating.Badges, 2)
	require.Equal(t, 3, rating.User.Level)
	require.Equal(t, "Warmed-Up Guy", rating.LevelName)

	bob, err := e.svc.Rating(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 2, bob.Rank)

	stats, err := e.svc.MonthStats(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "2025-01", stats.Month)
	require.EqualValues(t, 4, stats.Done)
	require.EqualValues(t, 4, stats.Total())
}

func TestLongestStreak(t *testing.T) {
	require.Zero(t, challenge.LongestStreak(nil))
	require.Equal(t, 3, challenge.LongestStreak([]string{
		"2025-01-01", "2025-01-03", "2025-01-04", "2025-01-05", "2025-01-07",
	}))
	require.Equal(t, 2, challenge.LongestStreak([]string{"2024-12-31", "2025-01-01"}))
}
