package models

import "fmt"

type SubGoal string

const (
	SubGoalPullups SubGoal = "pullups"
	SubGoalSteps   SubGoal = "steps"
)

func ParseSubGoal(s string) (SubGoal, error) {
	switch SubGoal(s) {
	case SubGoalPullups, SubGoalSteps:
		return SubGoal(s), nil
	}
	return "", fmt.Errorf("unknown weekly sub-goal %q", s)
}

// Columns returns the completion flag and media reference columns of the goal.
func (g SubGoal) Columns() (done, media string) {
	return string(g) + "_done", string(g) + "_media_ref"
}

type WeeklyTask struct {
	UserID  int64  `gorm:"primaryKey;autoIncrement:false"`
	WeekKey string `gorm:"primaryKey;size:8"`

	PullupsDone     bool `gorm:"not null"`
	PullupsMediaRef string
	StepsDone       bool `gorm:"not null"`
	StepsMediaRef   string
}

func (w *WeeklyTask) Done(g SubGoal) bool {
	if w == nil {
		return false
	}
	switch g {
	case SubGoalPullups:
		return w.PullupsDone
	case SubGoalSteps:
		return w.StepsDone
	}
	return false
}

func (w *WeeklyTask) Complete() bool {
	return w.Done(SubGoalPullups) && w.Done(SubGoalSteps)
}
