package models

import "time"

type TaskStatus string

const (
	TaskStatusDone        TaskStatus = "done"
	TaskStatusDayOff      TaskStatus = "dayoff"
	TaskStatusWeeklyBonus TaskStatus = "weekly_bonus"
)

// DailyTask holds one row per user and calendar day. Weekly bonus markers reuse
// the table with TaskDate set to the ISO week key, so they never collide with a
// real day.
type DailyTask struct {
	UserID   int64  `gorm:"primaryKey;autoIncrement:false"`
	TaskDate string `gorm:"primaryKey;size:10"`

	Status        TaskStatus `gorm:"not null;index"`
	MediaRef      string
	BonusAwarded  bool `gorm:"not null"`
	BonusMediaRef string
	CompletedAt   time.Time `gorm:"not null"`
}

func (t *DailyTask) IsDone() bool {
	return t != nil && t.Status == TaskStatusDone
}

func (t *DailyTask) IsDoubled() bool {
	return t.IsDone() && t.BonusAwarded
}
