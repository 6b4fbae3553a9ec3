package challenge

import "errors"

var (
	ErrNotRegistered    = errors.New("user is not registered")
	ErrInactive         = errors.New("user is out of the challenge")
	ErrAlreadyDone      = errors.New("main task already done today")
	ErrDayOffToday      = errors.New("day off taken today")
	ErrMainNotDone      = errors.New("main task not done yet")
	ErrBonusAwarded     = errors.New("bonus already awarded today")
	ErrSubGoalDone      = errors.New("weekly sub-goal already done")
	ErrWeekClosed       = errors.New("week is over")
	ErrMainPromptActive = errors.New("main task video still pending")
)
