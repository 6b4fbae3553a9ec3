package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/fitbro/fitbro/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetOrCreateUser registers a user on first interaction. resetPeriod is the
// current month key, so a fresh user is not caught by this month's reset.
func (s *Storage) GetOrCreateUser(ctx context.Context, id int64, name string, resetPeriod int, at time.Time) (*models.User, error) {
	userToCreate := &models.User{
		ID:              id,
		Name:            name,
		Points:          models.StartingPoints,
		Active:          true,
		LastResetPeriod: resetPeriod,
		Level:           1,
		CreatedAt:       at.UTC(),
		UpdatedAt:       at.UTC(),
	}

	var user models.User
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoNothing: true,
			}).
			Create(userToCreate).
			Error; err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return fmt.Errorf("getting user: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("in tx: %w", err)
	}

	return &user, nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, fmt.Errorf("getting user: %w", notFound(err))
	}
	return &user, nil
}

func adjustPoints(db *gorm.DB, id int64, delta int) error {
	if delta == 0 {
		return nil
	}
	if err := db.
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("points", gorm.Expr("points + ?", delta)).
		Error; err != nil {
		return fmt.Errorf("adjusting points: %w", err)
	}
	return nil
}

// ConsumeDayOff takes one day off from the monthly budget. It fails closed:
// once the budget is spent ok is false and nothing is written.
func (s *Storage) ConsumeDayOff(ctx context.Context, id int64) (bool, int, error) {
	return consumeDayOff(s.db.WithContext(ctx), id)
}

func consumeDayOff(db *gorm.DB, id int64) (bool, int, error) {
	res := db.
		Model(&models.User{}).
		Where("id = ? AND day_off_used < ?", id, models.MonthlyDayOffs).
		UpdateColumn("day_off_used", gorm.Expr("day_off_used + 1"))
	if res.Error != nil {
		return false, 0, fmt.Errorf("consuming day off: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, 0, nil
	}

	var user models.User
	if err := db.Select("day_off_used").Where("id = ?", id).First(&user).Error; err != nil {
		return false, 0, fmt.Errorf("reading day off budget: %w", err)
	}
	return true, user.DayOffRemaining(), nil
}

func (s *Storage) DeactivateUser(ctx context.Context, id int64) error {
	return deactivateUser(s.db.WithContext(ctx), id)
}

func deactivateUser(db *gorm.DB, id int64) error {
	if err := db.
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("active", false).
		Error; err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}
	return nil
}

// ResetMonthly restores the day-off budget of active users whose stored
// period differs from periodKey. Repeating it within a month is a no-op.
func (s *Storage) ResetMonthly(ctx context.Context, periodKey int) (int64, error) {
	res := s.db.
		WithContext(ctx).
		Model(&models.User{}).
		Where("active = ? AND last_reset_period <> ?", true, periodKey).
		UpdateColumns(map[string]any{
			"day_off_used":      0,
			"last_reset_period": periodKey,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("resetting day offs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListActiveUsers returns active users ordered by name, skipping exclude.
func (s *Storage) ListActiveUsers(ctx context.Context, exclude ...int64) ([]*models.User, error) {
	q := s.db.WithContext(ctx).Where("active = ?", true)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}

	var result []*models.User
	if err := q.Order("name").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}
	return result, nil
}

func (s *Storage) Leaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	var result []*models.User
	if err := s.db.
		WithContext(ctx).
		Order("points DESC").
		Order("name").
		Limit(limit).
		Find(&result).
		Error; err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	return result, nil
}

// RankPosition is 1 + the number of users with strictly more points.
func (s *Storage) RankPosition(ctx context.Context, id int64) (int, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return 0, err
	}

	var ahead int64
	if err := s.db.
		WithContext(ctx).
		Model(&models.User{}).
		Where("points > ?", user.Points).
		Count(&ahead).
		Error; err != nil {
		return 0, fmt.Errorf("counting users ahead: %w", err)
	}
	return int(ahead) + 1, nil
}

func (s *Storage) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// UsersWithoutTask lists active users that have neither completed the main
// task nor taken a day off on day.
func (s *Storage) UsersWithoutTask(ctx context.Context, day string) ([]*models.User, error) {
	covered := s.db.
		Model(&models.DailyTask{}).
		Select("user_id").
		Where("task_date = ? AND status IN ?", day, []models.TaskStatus{
			models.TaskStatusDone,
			models.TaskStatusDayOff,
		})

	var result []*models.User
	if err := s.db.
		WithContext(ctx).
		Where("active = ?", true).
		Where("id NOT IN (?)", covered).
		Order("name").
		Find(&result).
		Error; err != nil {
		return nil, fmt.Errorf("listing users without task: %w", err)
	}
	return result, nil
}
