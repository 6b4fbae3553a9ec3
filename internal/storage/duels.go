package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/fitbro/fitbro/internal/models"
	"gorm.io/gorm"
)

// CreateDuel persists d unless its challenger already started limit duels in
// the same week.
func (s *Storage) CreateDuel(ctx context.Context, d *models.Duel, limit int) error {
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := countDuelsAsChallenger(tx, d.ChallengerID, d.WeekKey)
		if err != nil {
			return err
		}
		if count >= int64(limit) {
			return ErrLimitReached
		}

		if err := tx.Create(d).Error; err != nil {
			return fmt.Errorf("creating duel: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("in tx: %w", err)
	}
	return nil
}

func (s *Storage) GetDuel(ctx context.Context, id string) (*models.Duel, error) {
	var duel models.Duel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&duel).Error; err != nil {
		return nil, fmt.Errorf("getting duel: %w", notFound(err))
	}
	return &duel, nil
}

func (s *Storage) SetChallengeMessage(ctx context.Context, id string, messageID int) error {
	return s.setDuelColumn(ctx, id, "challenge_message_id", messageID)
}

func (s *Storage) SetResponseMessage(ctx context.Context, id string, messageID int) error {
	return s.setDuelColumn(ctx, id, "response_message_id", messageID)
}

func (s *Storage) setDuelColumn(ctx context.Context, id, column string, value any) error {
	if err := s.db.
		WithContext(ctx).
		Model(&models.Duel{}).
		Where("id = ?", id).
		UpdateColumn(column, value).
		Error; err != nil {
		return fmt.Errorf("updating duel %s: %w", column, err)
	}
	return nil
}

// PendingDuelForOpponent returns the oldest unexpired duel waiting for the
// user's response.
func (s *Storage) PendingDuelForOpponent(ctx context.Context, opponentID int64, now time.Time) (*models.Duel, error) {
	var duel models.Duel
	if err := s.db.
		WithContext(ctx).
		Where("opponent_id = ? AND status = ? AND expires_at > ?",
			opponentID, models.DuelStatusAwaitingResponse, now.UTC()).
		Order("created_at").
		First(&duel).
		Error; err != nil {
		return nil, fmt.Errorf("getting pending duel: %w", notFound(err))
	}
	return &duel, nil
}

// RecordDuelResponse moves the duel to awaiting_result. It returns ErrConflict
// when the duel is no longer awaiting this opponent or the window closed.
func (s *Storage) RecordDuelResponse(ctx context.Context, id string, opponentID int64, media string, now time.Time) error {
	respondedAt := now.UTC()
	res := s.db.
		WithContext(ctx).
		Model(&models.Duel{}).
		Where("id = ? AND opponent_id = ? AND status = ? AND expires_at > ?",
			id, opponentID, models.DuelStatusAwaitingResponse, respondedAt).
		UpdateColumns(map[string]any{
			"status":         models.DuelStatusAwaitingResult,
			"response_media": media,
			"responded_at":   respondedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("recording duel response: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// ResolveDuel applies the arbiter's decision and the matching point deltas in
// one transaction.
func (s *Storage) ResolveDuel(ctx context.Context, id string, arbiterID int64, outcome models.DuelOutcome, now time.Time) (*models.Duel, error) {
	var duel models.Duel
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&duel).Error; err != nil {
			return fmt.Errorf("getting duel: %w", notFound(err))
		}

		resolvedAt := now.UTC()
		res := tx.
			Model(&models.Duel{}).
			Where("id = ? AND arbiter_id = ? AND status = ?", id, arbiterID, models.DuelStatusAwaitingResult).
			UpdateColumns(map[string]any{
				"status":      models.DuelStatusResolved,
				"result":      outcome,
				"winner_id":   duel.WinnerFor(outcome),
				"resolved_at": resolvedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("resolving duel: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		duel.Status = models.DuelStatusResolved
		duel.Result = outcome
		duel.WinnerID = duel.WinnerFor(outcome)
		duel.ResolvedAt = &resolvedAt
		return applyDuelDeltas(tx, &duel, outcome)
	}); err != nil {
		return nil, fmt.Errorf("in tx: %w", err)
	}
	return &duel, nil
}

// ExpireDuel closes an overdue duel as a win for the challenger. Duels that
// were answered or already expired are left alone and false is returned.
func (s *Storage) ExpireDuel(ctx context.Context, id string, now time.Time) (bool, error) {
	expired := false
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var duel models.Duel
		if err := tx.Where("id = ?", id).First(&duel).Error; err != nil {
			return fmt.Errorf("getting duel: %w", notFound(err))
		}

		res := tx.
			Model(&models.Duel{}).
			Where("id = ? AND status = ? AND expires_at <= ?", id, models.DuelStatusAwaitingResponse, now.UTC()).
			UpdateColumns(map[string]any{
				"status":      models.DuelStatusExpired,
				"result":      models.DuelOutcomeChallengerWon,
				"winner_id":   duel.ChallengerID,
				"resolved_at": now.UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("expiring duel: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		expired = true
		return applyDuelDeltas(tx, &duel, models.DuelOutcomeChallengerWon)
	}); err != nil {
		return false, fmt.Errorf("in tx: %w", err)
	}
	return expired, nil
}

func applyDuelDeltas(tx *gorm.DB, d *models.Duel, outcome models.DuelOutcome) error {
	challenger, opponent := outcome.Deltas()
	if err := adjustPoints(tx, d.ChallengerID, challenger); err != nil {
		return err
	}
	return adjustPoints(tx, d.OpponentID, opponent)
}

func (s *Storage) OverdueDuels(ctx context.Context, now time.Time) ([]*models.Duel, error) {
	var result []*models.Duel
	if err := s.db.
		WithContext(ctx).
		Where("status = ? AND expires_at <= ?", models.DuelStatusAwaitingResponse, now.UTC()).
		Order("expires_at").
		Find(&result).
		Error; err != nil {
		return nil, fmt.Errorf("listing overdue duels: %w", err)
	}
	return result, nil
}

func (s *Storage) CountDuelsAsChallenger(ctx context.Context, userID int64, weekKey string) (int, error) {
	count, err := countDuelsAsChallenger(s.db.WithContext(ctx), userID, weekKey)
	return int(count), err
}

func countDuelsAsChallenger(db *gorm.DB, userID int64, weekKey string) (int64, error) {
	var count int64
	if err := db.
		Model(&models.Duel{}).
		Where("challenger_id = ? AND week_key = ?", userID, weekKey).
		Count(&count).
		Error; err != nil {
		return 0, fmt.Errorf("counting duels: %w", err)
	}
	return count, nil
}

// EligibleOpponents lists active users other than the challenger who have not
// exhausted their own weekly duel cap.
func (s *Storage) EligibleOpponents(ctx context.Context, challengerID int64, weekKey string, limit int) ([]*models.User, error) {
	capped := s.db.
		Model(&models.Duel{}).
		Select("challenger_id").
		Where("week_key = ?", weekKey).
		Group("challenger_id").
		Having("COUNT(*) >= ?", limit)

	var result []*models.User
	if err := s.db.
		WithContext(ctx).
		Where("active = ? AND id <> ?", true, challengerID).
		Where("id NOT IN (?)", capped).
		Order("name").
		Find(&result).
		Error; err != nil {
		return nil, fmt.Errorf("listing eligible opponents: %w", err)
	}
	return result, nil
}

type DuelStats struct {
	Won   int64
	Lost  int64
	Drawn int64
}

// DuelRecord tallies the user's finished duels.
func (s *Storage) DuelRecord(ctx context.Context, userID int64) (*DuelStats, error) {
	finished := []models.DuelStatus{models.DuelStatusResolved, models.DuelStatusExpired}
	participant := s.db.Where("challenger_id = ? OR opponent_id = ?", userID, userID)

	stats := &DuelStats{}
	if err := s.db.
		WithContext(ctx).
		Model(&models.Duel{}).
		Where("status IN ? AND winner_id = ?", finished, userID).
		Count(&stats.Won).
		Error; err != nil {
		return nil, fmt.Errorf("counting won duels: %w", err)
	}
	if err := s.db.
		WithContext(ctx).
		Model(&models.Duel{}).
		Where(participant).
		Where("status IN ? AND winner_id IS NOT NULL AND winner_id <> ?", finished, userID).
		Count(&stats.Lost).
		Error; err != nil {
		return nil, fmt.Errorf("counting lost duels: %w", err)
	}
	if err := s.db.
		WithContext(ctx).
		Model(&models.Duel{}).
		Where(participant).
		Where("status = ? AND result = ?", models.DuelStatusResolved, models.DuelOutcomeDraw).
		Count(&stats.Drawn).
		Error; err != nil {
		return nil, fmt.Errorf("counting drawn duels: %w", err)
	}
	return stats, nil
}
