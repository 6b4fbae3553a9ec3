package achievements_test

import (
	"context"
	"testing"
	"time"

	"github.com/fitbro/fitbro/internal/achievements"
	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/fitbro/fitbro/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
)

var loc = time.FixedZone("MSK", 3*60*60)

func setup(t *testing.T) (*storage.Storage, *achievements.Evaluator) {
	t.Helper()
	s := storagetest.New(t)
	ctx := context.Background()
	require.NoError(t, s.SeedAchievements(ctx, achievements.Catalog()))
	_, err := s.GetOrCreateUser(ctx, 1, "alice", 202501, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return s, achievements.NewEvaluator(s, loc)
}

func codes(awards []achievements.Award) []string {
	result := make([]string, 0, len(awards))
	for _, a := range awards {
		result = append(result, a.Code)
	}
	return result
}

func submitMain(t *testing.T, s *storage.Storage, e *achievements.Evaluator, at time.Time) []achievements.Award {
	t.Helper()
	ctx := context.Background()
	ok, err := s.MarkDone(ctx, 1, calendar.DayKey(at), "video", at, 0)
	require.NoError(t, err)
	require.True(t, ok)
	awards, err := e.OnMainSubmitted(ctx, 1, at)
	require.NoError(t, err)
	return awards
}

func submitBonus(t *testing.T, s *storage.Storage, e *achievements.Evaluator, at time.Time) []achievements.Award {
	t.Helper()
	ctx := context.Background()
	ok, err := s.MarkBonus(ctx, 1, calendar.DayKey(at), "extra", 0)
	require.NoError(t, err)
	require.True(t, ok)
	awards, err := e.OnBonusSubmitted(ctx, 1, at)
	require.NoError(t, err)
	return awards
}

func TestEarlyBirdAfterThreeMornings(t *testing.T) {
	s, e := setup(t)
	day := time.Date(2025, time.January, 6, 8, 15, 0, 0, loc)

	awards := submitMain(t, s, e, day)
	require.Equal(t, []string{achievements.CodeFirstSweat}, codes(awards))
	require.Equal(t, 2, awards[0].Level)

	require.Empty(t, submitMain(t, s, e, day.AddDate(0, 0, 1)))

	awards = submitMain(t, s, e, day.AddDate(0, 0, 2))
	require.Equal(t, []string{achievements.CodeEarlyBird}, codes(awards))
	require.Equal(t, 3, awards[0].Level)

	require.Empty(t, submitMain(t, s, e, day.AddDate(0, 0, 3)))
}

func TestEarlyBirdAloneLiftsToLevelTwo(t *testing.T) {
	s, e := setup(t)
	ctx := context.Background()
	day := time.Date(2025, time.January, 6, 7, 0, 0, 0, loc)

	for i := 0; i < 2; i++ {
		d := day.AddDate(0, 0, i)
		_, err := s.MarkDone(ctx, 1, calendar.DayKey(d), "video", d, 0)
		require.NoError(t, err)
	}
	// First completion was recorded without evaluation, so early bird is the
	// user's first badge.
	last := day.AddDate(0, 0, 2)
	_, err := s.MarkDone(ctx, 1, calendar.DayKey(last), "video", last, 0)
	require.NoError(t, err)

	awarded, level, err := s.AwardAchievement(ctx, 1, achievements.CodeEarlyBird, last)
	require.NoError(t, err)
	require.True(t, awarded)
	require.Equal(t, 2, level)

	awards, err := e.OnMainSubmitted(ctx, 1, last)
	require.NoError(t, err)
	require.Equal(t, []string{achievements.CodeFirstSweat}, codes(awards))
}

func TestLateStreakBreaksEarlyBird(t *testing.T) {
	s, e := setup(t)
	day := time.Date(2025, time.January, 6, 8, 0, 0, 0, loc)

	submitMain(t, s, e, day)
	submitMain(t, s, e, day.AddDate(0, 0, 1).Add(2*time.Hour))
	require.Empty(t, submitMain(t, s, e, day.AddDate(0, 0, 2)))
}

func TestTimeOfDayBadges(t *testing.T) {
	s, e := setup(t)

	awards := submitMain(t, s, e, time.Date(2025, time.January, 6, 23, 59, 10, 0, loc))
	require.ElementsMatch(t, []string{
		achievements.CodeFirstSweat,
		achievements.CodeLastHero,
		achievements.CodeSpecialInvitation,
	}, codes(awards))
	require.Equal(t, 4, awards[len(awards)-1].Level)
}

func TestDoubleStrikeAndExtraHuman(t *testing.T) {
	s, e := setup(t)
	day := time.Date(2025, time.January, 6, 12, 0, 0, 0, loc)

	var earned []string
	for i := 0; i < 7; i++ {
		d := day.AddDate(0, 0, i)
		submitMain(t, s, e, d)
		earned = append(earned, codes(submitBonus(t, s, e, d.Add(time.Hour)))...)
	}
	require.Equal(t, []string{achievements.CodeDoubleStrike, achievements.CodeExtraHuman}, earned)
}

func TestFullSetNeedsWeeklyGoals(t *testing.T) {
	s, e := setup(t)
	ctx := context.Background()
	// Monday..Sunday of 2025-W02.
	day := time.Date(2025, time.January, 6, 12, 0, 0, 0, loc)

	for i := 0; i < 7; i++ {
		d := day.AddDate(0, 0, i)
		submitMain(t, s, e, d)
		submitBonus(t, s, e, d.Add(time.Hour))
	}

	sunday := day.AddDate(0, 0, 6).Add(2 * time.Hour)
	week := calendar.WeekKey(sunday)
	_, err := s.MarkSubGoalDone(ctx, 1, week, models.SubGoalPullups, "p", 0)
	require.NoError(t, err)
	awards, err := e.OnWeeklyCompleted(ctx, 1, sunday)
	require.NoError(t, err)
	require.Empty(t, awards)

	_, err = s.MarkSubGoalDone(ctx, 1, week, models.SubGoalSteps, "s", 0)
	require.NoError(t, err)
	awards, err = e.OnWeeklyCompleted(ctx, 1, sunday)
	require.NoError(t, err)
	require.Equal(t, []string{achievements.CodeFullSet}, codes(awards))
}

func TestFinalBoss(t *testing.T) {
	s, e := setup(t)
	day := time.Date(2025, time.January, 1, 12, 0, 0, 0, loc)

	var earned []string
	for i := 0; i < 25; i++ {
		d := day.AddDate(0, 0, i)
		submitMain(t, s, e, d)
		earned = append(earned, codes(submitBonus(t, s, e, d.Add(time.Hour)))...)
	}
	require.Contains(t, earned, achievements.CodeFinalBoss)
	require.Equal(t, achievements.CodeFinalBoss, earned[len(earned)-1])
}

func TestLevelName(t *testing.T) {
	require.Equal(t, "Floor Intern", achievements.LevelName(0))
	require.Equal(t, "Elbow Technician", achievements.LevelName(4))
	require.Equal(t, "Legend of the Local Floor", achievements.LevelName(12))
	require.Len(t, achievements.Catalog(), 8)
}
