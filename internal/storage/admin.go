package storage

import (
	"context"
	"fmt"

	"github.com/fitbro/fitbro/internal/models"
	"gorm.io/gorm"
)

// WipeAll removes every participant record. The badge catalog and the polling
// cursor survive.
func (s *Storage) WipeAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearProgress(tx); err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("deleting messages: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("deleting users: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("in tx: %w", err)
	}
	return nil
}

// ResetScores keeps the roster but starts everyone over.
func (s *Storage) ResetScores(ctx context.Context, periodKey int) error {
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearProgress(tx); err != nil {
			return err
		}
		if err := tx.
			Model(&models.User{}).
			Where("1 = 1").
			UpdateColumns(map[string]any{
				"points":            models.StartingPoints,
				"day_off_used":      0,
				"active":            true,
				"level":             1,
				"last_reset_period": periodKey,
			}).
			Error; err != nil {
			return fmt.Errorf("resetting users: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("in tx: %w", err)
	}
	return nil
}

func clearProgress(tx *gorm.DB) error {
	for _, model := range []any{
		&models.DailyTask{},
		&models.WeeklyTask{},
		&models.Duel{},
		&models.UserAchievement{},
	} {
		if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", model, err)
		}
	}
	return nil
}
