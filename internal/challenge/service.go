// Package challenge implements the daily and weekly task rules: what a user
// may submit, how many points it earns and what the periodic sweeps do.
package challenge

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitbro/fitbro/internal/achievements"
	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	PointsMain       = 2
	PointsBonus      = 1
	PointsWeeklyGoal = 5
	PointsFullWeek   = 5
)

type Service struct {
	storage   *storage.Storage
	clock     *calendar.Clock
	evaluator *achievements.Evaluator
	log       *logrus.Entry
}

func New(s *storage.Storage, clock *calendar.Clock) *Service {
	return &Service{
		storage:   s,
		clock:     clock,
		evaluator: achievements.NewEvaluator(s, clock.Location()),
		log:       logrus.WithField("component", "challenge"),
	}
}

// Submission is the result of an accepted task.
type Submission struct {
	User   *models.User
	Awards []achievements.Award
}

func (s *Service) Register(ctx context.Context, userID int64, name string) (*models.User, error) {
	now := s.clock.Now()
	user, err := s.storage.GetOrCreateUser(ctx, userID, name, calendar.MonthKey(now), now)
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}
	return user, nil
}

// ActiveUser loads the user and fails unless they are still in the challenge.
func (s *Service) ActiveUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return user, ErrInactive
	}
	return user, nil
}

func (s *Service) TodayStatus(ctx context.Context, userID int64) (models.TaskStatus, error) {
	return s.storage.GetTaskStatus(ctx, userID, s.clock.Today())
}

// RequestMain checks that the user may upload proof of the main task.
func (s *Service) RequestMain(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.ActiveUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	status, err := s.TodayStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch status {
	case models.TaskStatusDone:
		return nil, ErrAlreadyDone
	case models.TaskStatusDayOff:
		return nil, ErrDayOffToday
	}
	return user, nil
}

// RequestBonus checks that the extra task can be unlocked. mainPending tells
// whether the user still owes the main task video.
func (s *Service) RequestBonus(ctx context.Context, userID int64, mainPending bool) (*models.User, error) {
	user, err := s.ActiveUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	task, err := s.storage.GetDailyTask(ctx, userID, s.clock.Today())
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	switch {
	case !task.IsDone():
		return nil, ErrMainNotDone
	case task.BonusAwarded:
		return nil, ErrBonusAwarded
	case mainPending:
		return nil, ErrMainPromptActive
	}
	return user, nil
}

// RequestWeekly returns the week the submission will count for.
func (s *Service) RequestWeekly(ctx context.Context, userID int64, goal models.SubGoal) (string, error) {
	if _, err := s.ActiveUser(ctx, userID); err != nil {
		return "", err
	}

	week := calendar.WeekKey(s.clock.Now())
	task, err := s.storage.GetWeeklyTask(ctx, userID, week)
	if err != nil {
		return "", err
	}
	if task.Done(goal) {
		return "", ErrSubGoalDone
	}
	return week, nil
}

func (s *Service) WeeklyStatus(ctx context.Context, userID int64) (*models.WeeklyTask, error) {
	return s.storage.GetWeeklyTask(ctx, userID, calendar.WeekKey(s.clock.Now()))
}

func (s *Service) SubmitMain(ctx context.Context, userID int64, media string) (*Submission, error) {
	if _, err := s.RequestMain(ctx, userID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	ok, err := s.storage.MarkDone(ctx, userID, calendar.DayKey(now), media, now, PointsMain)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyDone
	}

	awards, err := s.evaluator.OnMainSubmitted(ctx, userID, now)
	if err != nil {
		s.log.Errorf("evaluating achievements for %d: %v", userID, err)
	}
	return s.submission(ctx, userID, awards)
}

func (s *Service) SubmitBonus(ctx context.Context, userID int64, media string) (*Submission, error) {
	if _, err := s.ActiveUser(ctx, userID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	day := calendar.DayKey(now)
	ok, err := s.storage.MarkBonus(ctx, userID, day, media, PointsBonus)
	if err != nil {
		return nil, err
	}
	if !ok {
		awarded, err := s.storage.IsBonusAwarded(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		if awarded {
			return nil, ErrBonusAwarded
		}
		return nil, ErrMainNotDone
	}

	awards, err := s.evaluator.OnBonusSubmitted(ctx, userID, now)
	if err != nil {
		s.log.Errorf("evaluating achievements for %d: %v", userID, err)
	}
	return s.submission(ctx, userID, awards)
}

// SubmitWeekly credits a sub-goal for weekKey, the week captured when the
// user asked to submit. Uploads after that week ended are refused.
func (s *Service) SubmitWeekly(ctx context.Context, userID int64, goal models.SubGoal, weekKey, media string) (*Submission, error) {
	if _, err := s.ActiveUser(ctx, userID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !calendar.WeekOpen(weekKey, now) {
		return nil, ErrWeekClosed
	}

	ok, err := s.storage.MarkSubGoalDone(ctx, userID, weekKey, goal, media, PointsWeeklyGoal)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSubGoalDone
	}

	awards, err := s.evaluator.OnWeeklyCompleted(ctx, userID, now)
	if err != nil {
		s.log.Errorf("evaluating achievements for %d: %v", userID, err)
	}
	return s.submission(ctx, userID, awards)
}

func (s *Service) submission(ctx context.Context, userID int64, awards []achievements.Award) (*Submission, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Submission{User: user, Awards: awards}, nil
}

// UseDayOff spends a day off on today. When none are left the user is
// eliminated and Granted is false.
func (s *Service) UseDayOff(ctx context.Context, userID int64) (*storage.DayOffResult, error) {
	if _, err := s.ActiveUser(ctx, userID); err != nil {
		return nil, err
	}

	status, err := s.TodayStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch status {
	case models.TaskStatusDone:
		return nil, ErrAlreadyDone
	case models.TaskStatusDayOff:
		return nil, ErrDayOffToday
	}

	now := s.clock.Now()
	return s.storage.TakeDayOff(ctx, userID, calendar.DayKey(now), now)
}
