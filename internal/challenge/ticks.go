package challenge

import (
	"context"
	"fmt"

	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage"
)

// OnMonthTick restores day-off budgets once per calendar month.
func (s *Service) OnMonthTick(ctx context.Context) (int64, error) {
	n, err := s.storage.ResetMonthly(ctx, calendar.MonthKey(s.clock.Now()))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("reset day offs of %d users", n)
	}
	return n, nil
}

// OnWeeklyBonusTick credits everyone who completed the main task on all
// seven days of the previous week. It returns the users that were credited.
func (s *Service) OnWeeklyBonusTick(ctx context.Context) ([]*models.User, error) {
	now := s.clock.Now()
	lastWeek := now.AddDate(0, 0, -7)
	weekKey := calendar.WeekKey(lastWeek)
	days := calendar.WeekDays(lastWeek)

	users, err := s.storage.ListActiveUsers(ctx)
	if err != nil {
		return nil, err
	}

	var credited []*models.User
	for _, user := range users {
		tasks, err := s.storage.DailyTasks(ctx, user.ID, days)
		if err != nil {
			return credited, err
		}

		full := true
		for _, day := range days {
			if !tasks[day].IsDone() {
				full = false
				break
			}
		}
		if !full {
			continue
		}

		awarded, err := s.storage.AwardWeeklyBonus(ctx, user.ID, weekKey, PointsFullWeek, now)
		if err != nil {
			return credited, fmt.Errorf("awarding weekly bonus to %d: %w", user.ID, err)
		}
		if awarded {
			credited = append(credited, user)
		}
	}
	return credited, nil
}

type SweepResult struct {
	User *models.User
	storage.DayOffResult
}

// OnMidnightSweep settles yesterday: every active user who neither did the
// task nor took a day off gets one spent automatically, or is eliminated
// when none remain. Re-running it finds nothing left to settle.
func (s *Service) OnMidnightSweep(ctx context.Context) ([]SweepResult, error) {
	now := s.clock.Now()
	yesterday := calendar.AddDays(calendar.DayKey(now), -1)

	today, err := calendar.ParseDay(calendar.DayKey(now), s.clock.Location())
	if err != nil {
		return nil, err
	}

	users, err := s.storage.UsersWithoutTask(ctx, yesterday)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, len(users))
	for _, user := range users {
		// Joined today, nothing was owed yesterday.
		if !user.CreatedAt.Before(today) {
			continue
		}

		res, err := s.storage.TakeDayOff(ctx, user.ID, yesterday, now)
		if err != nil {
			return results, fmt.Errorf("settling %d: %w", user.ID, err)
		}
		if !res.Granted {
			user.Active = false
		}
		results = append(results, SweepResult{User: user, DayOffResult: *res})
	}
	return results, nil
}

// Laggards lists active users who have not reported anything today.
func (s *Service) Laggards(ctx context.Context) ([]*models.User, error) {
	return s.storage.UsersWithoutTask(ctx, s.clock.Today())
}

func (s *Service) WipeAll(ctx context.Context) error {
	return s.storage.WipeAll(ctx)
}

func (s *Service) ResetScores(ctx context.Context) error {
	return s.storage.ResetScores(ctx, calendar.MonthKey(s.clock.Now()))
}

func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	return s.storage.CountUsers(ctx)
}
