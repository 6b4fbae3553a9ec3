package storage

import (
	"context"
	"fmt"

	"github.com/fitbro/fitbro/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetWeeklyTask returns an empty record when nothing was submitted that week.
func (s *Storage) GetWeeklyTask(ctx context.Context, userID int64, weekKey string) (*models.WeeklyTask, error) {
	var tasks []*models.WeeklyTask
	if err := s.db.
		WithContext(ctx).
		Where("user_id = ? AND week_key = ?", userID, weekKey).
		Limit(1).
		Find(&tasks).
		Error; err != nil {
		return nil, fmt.Errorf("getting weekly task: %w", err)
	}
	if len(tasks) == 0 {
		return &models.WeeklyTask{UserID: userID, WeekKey: weekKey}, nil
	}
	return tasks[0], nil
}

// MarkSubGoalDone flips a sub-goal to done and credits points with it.
// Sub-goals never regress, so a repeated submission reports false and keeps
// the first media reference.
func (s *Storage) MarkSubGoalDone(ctx context.Context, userID int64, weekKey string, goal models.SubGoal, media string, points int) (bool, error) {
	task := &models.WeeklyTask{UserID: userID, WeekKey: weekKey}
	switch goal {
	case models.SubGoalPullups:
		task.PullupsDone, task.PullupsMediaRef = true, media
	case models.SubGoalSteps:
		task.StepsDone, task.StepsMediaRef = true, media
	default:
		return false, fmt.Errorf("unknown weekly sub-goal %q", goal)
	}

	doneCol, mediaCol := goal.Columns()
	done := false
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "week_key"}},
				DoUpdates: clause.AssignmentColumns([]string{doneCol, mediaCol}),
				Where: clause.Where{Exprs: []clause.Expression{
					clause.Eq{Column: clause.Column{Table: "weekly_tasks", Name: doneCol}, Value: false},
				}},
			}).
			Create(task)
		if res.Error != nil {
			return fmt.Errorf("marking weekly sub-goal: %w", res.Error)
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

// CountWeeklyGoals counts every completed sub-goal of the user across weeks.
func (s *Storage) CountWeeklyGoals(ctx context.Context, userID int64) (int, error) {
	var tasks []*models.WeeklyTask
	if err := s.db.
		WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&tasks).
		Error; err != nil {
		return 0, fmt.Errorf("listing weekly tasks: %w", err)
	}

	total := 0
	for _, t := range tasks {
		for _, g := range []models.SubGoal{models.SubGoalPullups, models.SubGoalSteps} {
			if t.Done(g) {
				total++
			}
		}
	}
	return total, nil
}
