package models

import (
	"fmt"
	"time"
)

type DuelStatus string

const (
	// DuelStatusCreated is the in-flight draft held by the prompt store while
	// the challenger picks an opponent and an arbiter. It is never persisted.
	DuelStatusCreated          DuelStatus = "created"
	DuelStatusAwaitingResponse DuelStatus = "awaiting_response"
	DuelStatusAwaitingResult   DuelStatus = "awaiting_result"
	DuelStatusResolved         DuelStatus = "resolved"
	DuelStatusExpired          DuelStatus = "expired"
)

func (s DuelStatus) Terminal() bool {
	return s == DuelStatusResolved || s == DuelStatusExpired
}

type DuelOutcome string

const (
	DuelOutcomeChallengerWon DuelOutcome = "challenger_won"
	DuelOutcomeOpponentWon   DuelOutcome = "opponent_won"
	DuelOutcomeDraw          DuelOutcome = "draw"
	DuelOutcomeCancelled     DuelOutcome = "cancelled"
)

func ParseDuelOutcome(s string) (DuelOutcome, error) {
	switch DuelOutcome(s) {
	case DuelOutcomeChallengerWon, DuelOutcomeOpponentWon, DuelOutcomeDraw, DuelOutcomeCancelled:
		return DuelOutcome(s), nil
	}
	return "", fmt.Errorf("unknown duel outcome %q", s)
}

// Deltas returns the point changes for challenger and opponent.
func (o DuelOutcome) Deltas() (challenger, opponent int) {
	switch o {
	case DuelOutcomeChallengerWon:
		return 2, -2
	case DuelOutcomeOpponentWon:
		return -2, 2
	case DuelOutcomeDraw:
		return 1, 1
	}
	return 0, 0
}

type Duel struct {
	ID           string `gorm:"type:varchar(36);primaryKey"`
	ChallengerID int64  `gorm:"not null;index"`
	OpponentID   int64  `gorm:"not null;index"`
	ArbiterID    int64  `gorm:"not null;index"`
	WeekKey      string `gorm:"not null;size:8;index"`

	ChallengeMedia     string
	ResponseMedia      string
	ChallengeMessageID int
	ResponseMessageID  int

	Status    DuelStatus `gorm:"not null;index"`
	CreatedAt time.Time  `gorm:"not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`

	RespondedAt *time.Time
	ResolvedAt  *time.Time
	Result      DuelOutcome
	WinnerID    *int64
}

func (d *Duel) WinnerFor(o DuelOutcome) *int64 {
	switch o {
	case DuelOutcomeChallengerWon:
		return &d.ChallengerID
	case DuelOutcomeOpponentWon:
		return &d.OpponentID
	}
	return nil
}

func (d *Duel) Participant(userID int64) bool {
	return d.ChallengerID == userID || d.OpponentID == userID
}

func (d *Duel) String() string {
	return fmt.Sprintf(
		"Duel(%s, %d vs %d, arbiter=%d, %s)",
		d.ID,
		d.ChallengerID,
		d.OpponentID,
		d.ArbiterID,
		d.Status,
	)
}
