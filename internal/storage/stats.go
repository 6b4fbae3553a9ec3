package storage

import (
	"context"
	"fmt"

	"github.com/fitbro/fitbro/internal/models"
)

type TaskStats struct {
	Done   int64
	Bonus  int64
	DayOff int64
}

// Total counts the days the user showed up for, day offs included.
func (t *TaskStats) Total() int64 {
	return t.Done + t.DayOff
}

// MonthStats aggregates the user's daily records for the month given as
// "2006-01".
func (s *Storage) MonthStats(ctx context.Context, userID int64, month string) (*TaskStats, error) {
	return s.taskStats(ctx, userID, month+"-%")
}

// LifetimeStats aggregates every daily record of the user.
func (s *Storage) LifetimeStats(ctx context.Context, userID int64) (*TaskStats, error) {
	return s.taskStats(ctx, userID, "%")
}

func (s *Storage) taskStats(ctx context.Context, userID int64, datePattern string) (*TaskStats, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
		Bonus  int64
	}
	if err := s.db.
		WithContext(ctx).
		Model(&models.DailyTask{}).
		Select("status, COUNT(*) AS count, SUM(CASE WHEN bonus_awarded THEN 1 ELSE 0 END) AS bonus").
		Where("user_id = ? AND task_date LIKE ?", userID, datePattern).
		Group("status").
		Scan(&rows).
		Error; err != nil {
		return nil, fmt.Errorf("aggregating tasks: %w", err)
	}

	stats := &TaskStats{}
	for _, r := range rows {
		switch r.Status {
		case models.TaskStatusDone:
			stats.Done = r.Count
			stats.Bonus = r.Bonus
		case models.TaskStatusDayOff:
			stats.DayOff = r.Count
		}
	}
	return stats, nil
}

// BonusDays lists the dates on which the user earned the extra task, oldest
// first.
func (s *Storage) BonusDays(ctx context.Context, userID int64) ([]string, error) {
	var days []string
	if err := s.db.
		WithContext(ctx).
		Model(&models.DailyTask{}).
		Where("user_id = ? AND bonus_awarded = ?", userID, true).
		Order("task_date").
		Pluck("task_date", &days).
		Error; err != nil {
		return nil, fmt.Errorf("listing bonus days: %w", err)
	}
	return days, nil
}
