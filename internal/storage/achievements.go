package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/fitbro/fitbro/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedAchievements upserts the badge catalog so renamed badges are refreshed.
func (s *Storage) SeedAchievements(ctx context.Context, catalog []*models.Achievement) error {
	if len(catalog) == 0 {
		return nil
	}
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description"}),
		}).
		Create(&catalog).
		Error; err != nil {
		return fmt.Errorf("seeding achievements: %w", err)
	}
	return nil
}

// AwardAchievement grants code to the user at most once. On a fresh award the
// user's level is recomputed and returned.
func (s *Storage) AwardAchievement(ctx context.Context, userID int64, code string, at time.Time) (bool, int, error) {
	awarded := false
	level := 0
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UserAchievement{
				UserID:   userID,
				Code:     code,
				EarnedAt: at.UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("inserting user achievement: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		count, err := countAchievements(tx, userID)
		if err != nil {
			return err
		}

		awarded = true
		level = models.LevelFor(count)
		if err := tx.
			Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("level", level).
			Error; err != nil {
			return fmt.Errorf("updating level: %w", err)
		}
		return nil
	}); err != nil {
		return false, 0, fmt.Errorf("in tx: %w", err)
	}
	return awarded, level, nil
}

// ListUserAchievements returns the user's badges in the order they were earned.
// Badges missing from the catalog keep their code as the name.
func (s *Storage) ListUserAchievements(ctx context.Context, userID int64) ([]*models.Achievement, error) {
	var result []*models.Achievement
	if err := s.db.
		WithContext(ctx).
		Table("user_achievements").
		Select(
			"user_achievements.code AS code, "+
				"COALESCE(achievements.name, user_achievements.code) AS name, "+
				"COALESCE(achievements.description, '') AS description",
		).
		Joins("LEFT JOIN achievements ON achievements.code = user_achievements.code").
		Where("user_achievements.user_id = ?", userID).
		Order("user_achievements.earned_at").
		Order("user_achievements.code").
		Scan(&result).
		Error; err != nil {
		return nil, fmt.Errorf("listing user achievements: %w", err)
	}
	return result, nil
}

func countAchievements(db *gorm.DB, userID int64) (int, error) {
	var count int64
	if err := db.
		Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Count(&count).
		Error; err != nil {
		return 0, fmt.Errorf("counting achievements: %w", err)
	}
	return int(count), nil
}
