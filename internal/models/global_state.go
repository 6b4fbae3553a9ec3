package models

type GlobalState struct {
	ID           int `gorm:"primaryKey;autoIncrement:false"`
	LastUpdateID int
}
