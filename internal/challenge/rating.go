package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitbro/fitbro/internal/achievements"
	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage"
)

type Rating struct {
	User      *models.User
	LevelName string
	Rank      int

	Done        int64
	Bonus       int64
	WeeklyGoals int
	BonusStreak int

	Duels       *storage.DuelStats
	Badges      []*models.Achievement
	TotalBadges int
}

func (s *Service) Rating(ctx context.Context, userID int64) (*Rating, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}

	rank, err := s.storage.RankPosition(ctx, userID)
	if err != nil {
		return nil, err
	}
	lifetime, err := s.storage.LifetimeStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	weekly, err := s.storage.CountWeeklyGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	bonusDays, err := s.storage.BonusDays(ctx, userID)
	if err != nil {
		return nil, err
	}
	duels, err := s.storage.DuelRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.storage.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Rating{
		User:        user,
		LevelName:   achievements.LevelName(user.Level),
		Rank:        rank,
		Done:        lifetime.Done,
		Bonus:       lifetime.Bonus,
		WeeklyGoals: weekly,
		BonusStreak: LongestStreak(bonusDays),
		Duels:       duels,
		Badges:      badges,
		TotalBadges: len(achievements.Catalog()),
	}, nil
}

// LongestStreak returns the longest run of consecutive calendar days in an
// ascending list of day keys.
func LongestStreak(days []string) int {
	best, run := 0, 0
	for i, day := range days {
		if i > 0 && calendar.AddDays(days[i-1], 1) == day {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}

type MonthStats struct {
	Month string
	*storage.TaskStats
	User *models.User
}

func (s *Service) MonthStats(ctx context.Context, userID int64) (*MonthStats, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}

	month := s.clock.Now().Format("2006-01")
	stats, err := s.storage.MonthStats(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	return &MonthStats{Month: month, TaskStats: stats, User: user}, nil
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	users, err := s.storage.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}
	return users, nil
}

func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Standings pairs every user, best first, with their counts for the current
// month.
func (s *Service) Standings(ctx context.Context) (string, []*models.User, []*storage.TaskStats, error) {
	count, err := s.storage.CountUsers(ctx)
	if err != nil {
		return "", nil, nil, err
	}
	users, err := s.storage.Leaderboard(ctx, int(count))
	if err != nil {
		return "", nil, nil, err
	}

	month := s.clock.Now().Format("2006-01")
	stats := make([]*storage.TaskStats, 0, len(users))
	for _, u := range users {
		st, err := s.storage.MonthStats(ctx, u.ID, month)
		if err != nil {
			return "", nil, nil, err
		}
		stats = append(stats, st)
	}
	return month, users, stats, nil
}
