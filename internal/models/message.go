package models

import (
	"fmt"
	"time"
)

type MessageType string

const (
	MessageTypeVideoPrompt  MessageType = "video_prompt"
	MessageTypeWeeklyPrompt MessageType = "weekly_prompt"
	MessageTypeDuelPrompt   MessageType = "duel_prompt"
)

// Message is a bot message that has to be removed from the chat once the
// conversation it belongs to is over or abandoned.
type Message struct {
	ChatID    int64  `gorm:"primaryKey;autoIncrement:false"`
	MessageID string `gorm:"primaryKey"`

	MessageType MessageType

	AssociatedUserID int64 `gorm:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (m *Message) MessageSig() (string, int64) {
	return m.MessageID, m.ChatID
}

func (m *Message) String() string {
	return fmt.Sprintf(
		"Message(%s, %d, %q, %d)",
		m.MessageID,
		m.ChatID,
		m.MessageType,
		m.AssociatedUserID,
	)
}
