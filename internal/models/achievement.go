package models

import "time"

type Achievement struct {
	Code        string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"not null"`
	Description string
}

type UserAchievement struct {
	UserID   int64     `gorm:"primaryKey;autoIncrement:false"`
	Code     string    `gorm:"primaryKey;size:32"`
	EarnedAt time.Time `gorm:"not null;index"`
}
