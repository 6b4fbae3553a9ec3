package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/fitbro/fitbro/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var dailyKey = []clause.Column{{Name: "user_id"}, {Name: "task_date"}}

// MarkDone records the main task for day and credits points with it. It
// reports false when the day was already done, leaving the first completion
// untouched.
func (s *Storage) MarkDone(ctx context.Context, userID int64, day, media string, at time.Time, points int) (bool, error) {
	done := false
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Clauses(clause.OnConflict{
				Columns:   dailyKey,
				DoUpdates: clause.AssignmentColumns([]string{"status", "media_ref", "completed_at"}),
				Where: clause.Where{Exprs: []clause.Expression{
					clause.Neq{Column: clause.Column{Table: "daily_tasks", Name: "status"}, Value: models.TaskStatusDone},
				}},
			}).
			Create(&models.DailyTask{
				UserID:      userID,
				TaskDate:    day,
				Status:      models.TaskStatusDone,
				MediaRef:    media,
				CompletedAt: at.UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("marking task done: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		done = true
		return adjustPoints(tx, userID, points)
	}); err != nil {
		return false, fmt.Errorf("in tx: %w", err)
	}
	return done, nil
}

// MarkDayOff overwrites whatever was recorded for day; day off and bonus are
// mutually exclusive, so the bonus fields are cleared.
func (s *Storage) MarkDayOff(ctx context.Context, userID int64, day string, at time.Time) error {
	return markDayOff(s.db.WithContext(ctx), userID, day, at)
}

func markDayOff(db *gorm.DB, userID int64, day string, at time.Time) error {
	if err := db.
		Clauses(clause.OnConflict{
			Columns: dailyKey,
			DoUpdates: clause.Assignments(map[string]any{
				"status":          models.TaskStatusDayOff,
				"media_ref":       "",
				"bonus_awarded":   false,
				"bonus_media_ref": "",
				"completed_at":    at.UTC(),
			}),
		}).
		Create(&models.DailyTask{
			UserID:      userID,
			TaskDate:    day,
			Status:      models.TaskStatusDayOff,
			CompletedAt: at.UTC(),
		}).
		Error; err != nil {
		return fmt.Errorf("marking day off: %w", err)
	}
	return nil
}

// MarkBonus awards the extra task for day together with its points. It only
// succeeds on a done day whose bonus has not been awarded yet; otherwise it
// reports false.
func (s *Storage) MarkBonus(ctx context.Context, userID int64, day, media string, points int) (bool, error) {
	awarded := false
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.DailyTask{}).
			Where("user_id = ? AND task_date = ? AND status = ? AND bonus_awarded = ?",
				userID, day, models.TaskStatusDone, false).
			UpdateColumns(map[string]any{
				"bonus_awarded":   true,
				"bonus_media_ref": media,
			})
		if res.Error != nil {
			return fmt.Errorf("marking bonus: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		awarded = true
		return adjustPoints(tx, userID, points)
	}); err != nil {
		return false, fmt.Errorf("in tx: %w", err)
	}
	return awarded, nil
}

func (s *Storage) GetDailyTask(ctx context.Context, userID int64, day string) (*models.DailyTask, error) {
	var task models.DailyTask
	if err := s.db.
		WithContext(ctx).
		Where("user_id = ? AND task_date = ?", userID, day).
		First(&task).
		Error; err != nil {
		return nil, fmt.Errorf("getting daily task: %w", notFound(err))
	}
	return &task, nil
}

// GetTaskStatus returns an empty status when nothing is recorded for day.
func (s *Storage) GetTaskStatus(ctx context.Context, userID int64, day string) (models.TaskStatus, error) {
	var tasks []*models.DailyTask
	if err := s.db.
		WithContext(ctx).
		Where("user_id = ? AND task_date = ?", userID, day).
		Limit(1).
		Find(&tasks).
		Error; err != nil {
		return "", fmt.Errorf("getting task status: %w", err)
	}
	if len(tasks) == 0 {
		return "", nil
	}
	return tasks[0].Status, nil
}

func (s *Storage) IsBonusAwarded(ctx context.Context, userID int64, day string) (bool, error) {
	var count int64
	if err := s.db.
		WithContext(ctx).
		Model(&models.DailyTask{}).
		Where("user_id = ? AND task_date = ? AND bonus_awarded = ?", userID, day, true).
		Count(&count).
		Error; err != nil {
		return false, fmt.Errorf("checking bonus: %w", err)
	}
	return count > 0, nil
}

// DailyTasks returns the user's records for the given days keyed by date.
func (s *Storage) DailyTasks(ctx context.Context, userID int64, days []string) (map[string]*models.DailyTask, error) {
	var tasks []*models.DailyTask
	if err := s.db.
		WithContext(ctx).
		Where("user_id = ? AND task_date IN ?", userID, days).
		Find(&tasks).
		Error; err != nil {
		return nil, fmt.Errorf("getting daily tasks: %w", err)
	}

	result := make(map[string]*models.DailyTask, len(tasks))
	for _, t := range tasks {
		result[t.TaskDate] = t
	}
	return result, nil
}

type DayOffResult struct {
	Granted   bool
	Remaining int
}

// TakeDayOff spends a day off on day. When the budget is exhausted the user
// is eliminated instead and Granted is false.
func (s *Storage) TakeDayOff(ctx context.Context, userID int64, day string, at time.Time) (*DayOffResult, error) {
	result := &DayOffResult{}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, remaining, err := consumeDayOff(tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return deactivateUser(tx, userID)
		}

		result.Granted = true
		result.Remaining = remaining
		return markDayOff(tx, userID, day, at)
	}); err != nil {
		return nil, fmt.Errorf("in tx: %w", err)
	}
	return result, nil
}

// AwardWeeklyBonus credits points once per user and week. The marker row is
// keyed by the week identifier in place of a date.
func (s *Storage) AwardWeeklyBonus(ctx context.Context, userID int64, weekKey string, points int, at time.Time) (bool, error) {
	awarded := false
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Clauses(clause.OnConflict{Columns: dailyKey, DoNothing: true}).
			Create(&models.DailyTask{
				UserID:      userID,
				TaskDate:    weekKey,
				Status:      models.TaskStatusWeeklyBonus,
				CompletedAt: at.UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("recording weekly bonus: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		awarded = true
		return adjustPoints(tx, userID, points)
	}); err != nil {
		return false, fmt.Errorf("in tx: %w", err)
	}
	return awarded, nil
}
