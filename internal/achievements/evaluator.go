// Package achievements decides which one-time badges a user has unlocked by
// scanning their recent daily history backward from the current day.
package achievements

import (
	"context"
	"fmt"
	"time"

	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/models"
)

const (
	earlyBirdDays    = 3
	earlyBirdHour    = 9
	doubleStrikeDays = 3
	extraHumanDays   = 7
	fullSetDays      = 7
	finalBossDays    = 25
	lateHour         = 22

	// Widest streak any badge looks at.
	scanWindow = finalBossDays
)

type Store interface {
	DailyTasks(ctx context.Context, userID int64, days []string) (map[string]*models.DailyTask, error)
	GetWeeklyTask(ctx context.Context, userID int64, weekKey string) (*models.WeeklyTask, error)
	AwardAchievement(ctx context.Context, userID int64, code string, at time.Time) (bool, int, error)
}

// Award is a badge granted by the last evaluation, with the level it lifted
// the user to.
type Award struct {
	Code  string
	Name  string
	Level int
}

type Evaluator struct {
	store Store
	loc   *time.Location
}

func NewEvaluator(store Store, loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{store: store, loc: loc}
}

// OnMainSubmitted runs after the main task of the day at `at` was accepted.
func (e *Evaluator) OnMainSubmitted(ctx context.Context, userID int64, at time.Time) ([]Award, error) {
	at = at.In(e.loc)
	h, err := e.history(ctx, userID, at)
	if err != nil {
		return nil, err
	}

	codes := []string{CodeFirstSweat}
	if at.Hour() == 23 && at.Minute() == 59 {
		codes = append(codes, CodeLastHero)
	}
	if at.Hour() >= lateHour {
		codes = append(codes, CodeSpecialInvitation)
	}
	if h.streak(earlyBirdDays, e.earlyDone) >= earlyBirdDays {
		codes = append(codes, CodeEarlyBird)
	}
	codes = append(codes, h.doubleStreakCodes()...)

	return e.award(ctx, userID, at, codes)
}

// OnBonusSubmitted runs after the extra task of the day at `at` was accepted.
func (e *Evaluator) OnBonusSubmitted(ctx context.Context, userID int64, at time.Time) ([]Award, error) {
	at = at.In(e.loc)
	h, err := e.history(ctx, userID, at)
	if err != nil {
		return nil, err
	}

	var codes []string
	if h.streak(extraHumanDays, bonusAwarded) >= extraHumanDays {
		codes = append(codes, CodeExtraHuman)
	}
	codes = append(codes, h.doubleStreakCodes()...)
	if ok, err := e.fullSet(ctx, userID, at, h); err != nil {
		return nil, err
	} else if ok {
		codes = append(codes, CodeFullSet)
	}

	return e.award(ctx, userID, at, codes)
}

// OnWeeklyCompleted runs after a weekly sub-goal was accepted.
func (e *Evaluator) OnWeeklyCompleted(ctx context.Context, userID int64, at time.Time) ([]Award, error) {
	at = at.In(e.loc)
	h, err := e.history(ctx, userID, at)
	if err != nil {
		return nil, err
	}

	ok, err := e.fullSet(ctx, userID, at, h)
	if err != nil || !ok {
		return nil, err
	}
	return e.award(ctx, userID, at, []string{CodeFullSet})
}

func (e *Evaluator) fullSet(ctx context.Context, userID int64, at time.Time, h *history) (bool, error) {
	if h.streak(fullSetDays, (*models.DailyTask).IsDoubled) < fullSetDays {
		return false, nil
	}
	weekly, err := e.store.GetWeeklyTask(ctx, userID, calendar.WeekKey(at))
	if err != nil {
		return false, fmt.Errorf("getting weekly task: %w", err)
	}
	return weekly.Complete(), nil
}

func (e *Evaluator) earlyDone(t *models.DailyTask) bool {
	return t.IsDone() && t.CompletedAt.In(e.loc).Hour() < earlyBirdHour
}

func bonusAwarded(t *models.DailyTask) bool {
	return t != nil && t.BonusAwarded
}

func (e *Evaluator) award(ctx context.Context, userID int64, at time.Time, codes []string) ([]Award, error) {
	var result []Award
	for _, code := range codes {
		awarded, level, err := e.store.AwardAchievement(ctx, userID, code, at)
		if err != nil {
			return result, fmt.Errorf("awarding %s: %w", code, err)
		}
		if !awarded {
			continue
		}

		name := code
		if a, ok := Lookup(code); ok {
			name = a.Name
		}
		result = append(result, Award{Code: code, Name: name, Level: level})
	}
	return result, nil
}

type history struct {
	days  []string
	tasks map[string]*models.DailyTask
}

func (e *Evaluator) history(ctx context.Context, userID int64, at time.Time) (*history, error) {
	days := calendar.LastDays(calendar.DayKey(at), scanWindow)
	tasks, err := e.store.DailyTasks(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return &history{days: days, tasks: tasks}, nil
}

// streak counts consecutive qualifying days ending today, looking back at
// most limit days.
func (h *history) streak(limit int, qualifies func(*models.DailyTask) bool) int {
	n := 0
	for _, day := range h.days[:min(limit, len(h.days))] {
		if !qualifies(h.tasks[day]) {
			break
		}
		n++
	}
	return n
}

func (h *history) doubleStreakCodes() []string {
	var codes []string
	n := h.streak(finalBossDays, (*models.DailyTask).IsDoubled)
	if n >= doubleStrikeDays {
		codes = append(codes, CodeDoubleStrike)
	}
	if n >= finalBossDays {
		codes = append(codes, CodeFinalBoss)
	}
	return codes
}
