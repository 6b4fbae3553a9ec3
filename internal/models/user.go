package models

import (
	"fmt"
	"time"
)

const (
	StartingPoints = 10
	MonthlyDayOffs = 3
	MaxLevel       = 9
)

// User is keyed by the Telegram user id. Users are never deleted outside of a
// full wipe; elimination flips Active.
type User struct {
	ID              int64  `gorm:"primaryKey;autoIncrement:false"`
	Name            string `gorm:"not null"`
	Points          int    `gorm:"not null;index"`
	DayOffUsed      int    `gorm:"not null"`
	Active          bool   `gorm:"not null;index"`
	LastResetPeriod int    `gorm:"not null"`
	Level           int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (u *User) DayOffRemaining() int {
	return max(MonthlyDayOffs-u.DayOffUsed, 0)
}

func (u *User) String() string {
	return fmt.Sprintf("User(%d, %q, points=%d, active=%v)", u.ID, u.Name, u.Points, u.Active)
}

func LevelFor(achievements int) int {
	return min(achievements+1, MaxLevel)
}
