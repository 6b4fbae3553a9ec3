package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/fitbro/fitbro/internal/models"
	"gorm.io/gorm/clause"
)

func (s *Storage) AddMessage(ctx context.Context, msg *models.Message) error {
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(msg).
		Error; err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

func (s *Storage) GetMessagesForUser(
	ctx context.Context,
	userID int64,
	chatID int64,
	messageType models.MessageType,
) ([]*models.Message, error) {
	var result []*models.Message
	if err := s.db.
		WithContext(ctx).
		Where(
			"associated_user_id = ? AND chat_id = ? AND message_type = ?",
			userID,
			chatID,
			messageType,
		).
		Limit(100).
		Find(&result).
		Error; err != nil {
		return nil, fmt.Errorf("getting messages for user: %w", err)
	}
	return result, nil
}

func (s *Storage) GetMessagesOlderThan(ctx context.Context, olderThan time.Time) ([]*models.Message, error) {
	var result []*models.Message
	if err := s.db.
		WithContext(ctx).
		Where("created_at < ?", olderThan.UTC()).
		Order("created_at").
		Limit(100).
		Find(&result).
		Error; err != nil {
		return nil, fmt.Errorf("getting messages: %w", err)
	}
	return result, nil
}

func (s *Storage) DeleteMessages(ctx context.Context, messages []*models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(messages).Error; err != nil {
		return fmt.Errorf("deleting messages: %w", err)
	}
	return nil
}
