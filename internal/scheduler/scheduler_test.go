package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/stretchr/testify/require"
)

type fakeChallenge struct {
	mu         sync.Mutex
	monthTicks int
	laggards   []*models.User
	sweep      []challenge.SweepResult
	weekly     []*models.User
	err        error
}

func (f *fakeChallenge) OnMonthTick(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthTicks++
	return 0, nil
}

func (f *fakeChallenge) OnWeeklyBonusTick(context.Context) ([]*models.User, error) {
	return f.weekly, f.err
}

func (f *fakeChallenge) OnMidnightSweep(context.Context) ([]challenge.SweepResult, error) {
	return f.sweep, f.err
}

func (f *fakeChallenge) Laggards(context.Context) ([]*models.User, error) {
	return f.laggards, f.err
}

func (f *fakeChallenge) Now() time.Time {
	return time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
}

func (f *fakeChallenge) ticks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.monthTicks
}

type fakeDuels struct {
	expired []*models.Duel
}

func (f *fakeDuels) ExpireOverdue(context.Context) ([]*models.Duel, error) {
	return f.expired, nil
}

type fakeFacts struct{}

func (fakeFacts) OfTheDay(context.Context, time.Time) string {
	return "fact"
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls map[string]int
	last  any
}

func (n *fakeNotifier) record(name string, v any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = map[string]int{}
	}
	n.calls[name]++
	n.last = v
	return nil
}

func (n *fakeNotifier) count(name string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[name]
}

func (n *fakeNotifier) MorningReminder(_ context.Context, fact string) error {
	return n.record("morning", fact)
}

func (n *fakeNotifier) EveningReminder(_ context.Context, users []*models.User) error {
	return n.record("evening", users)
}

func (n *fakeNotifier) MidnightReport(_ context.Context, results []challenge.SweepResult) error {
	return n.record("midnight", results)
}

func (n *fakeNotifier) WeeklyBonus(_ context.Context, users []*models.User) error {
	return n.record("weekly", users)
}

func (n *fakeNotifier) DuelsExpired(_ context.Context, duels []*models.Duel) error {
	return n.record("expired", duels)
}

type fakeCleaner struct {
	mu    sync.Mutex
	calls int
}

func (c *fakeCleaner) CleanStale(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

func newTestScheduler(ch *fakeChallenge, duels *fakeDuels) (*Scheduler, *fakeNotifier, *fakeCleaner) {
	n := &fakeNotifier{}
	c := &fakeCleaner{}
	s := New(Config{MorningAt: "09:00", EveningAt: "22:00"}, ch, duels, fakeFacts{}, n, c)
	return s, n, c
}

func TestEveningSkippedWhenEveryoneReported(t *testing.T) {
	ch := &fakeChallenge{}
	s, n, _ := newTestScheduler(ch, &fakeDuels{})

	s.RunEvening(context.Background())
	require.Zero(t, n.count("evening"))

	ch.laggards = []*models.User{{ID: 1, Name: "alice"}}
	s.RunEvening(context.Background())
	require.Equal(t, 1, n.count("evening"))
}

func TestMorningUsesFact(t *testing.T) {
	s, n, _ := newTestScheduler(&fakeChallenge{}, &fakeDuels{})

	s.RunMorning(context.Background())
	require.Equal(t, 1, n.count("morning"))
	require.Equal(t, "fact", n.last)
}

func TestMidnightReportsPartialResults(t *testing.T) {
	ch := &fakeChallenge{
		sweep: []challenge.SweepResult{{
			User:         &models.User{ID: 1, Name: "alice"},
			DayOffResult: storage.DayOffResult{Granted: true, Remaining: 2},
		}},
		err: errors.New("db hiccup"),
	}
	s, n, _ := newTestScheduler(ch, &fakeDuels{})

	s.RunMidnight(context.Background())
	require.Equal(t, 1, n.count("midnight"))

	ch.sweep = nil
	s.RunMidnight(context.Background())
	require.Equal(t, 1, n.count("midnight"))
}

func TestWeeklyAndExpiryAnnouncements(t *testing.T) {
	ch := &fakeChallenge{}
	duels := &fakeDuels{}
	s, n, c := newTestScheduler(ch, duels)
	ctx := context.Background()

	s.RunWeeklyBonus(ctx)
	s.RunDuelExpiry(ctx)
	require.Zero(t, n.count("weekly"))
	require.Zero(t, n.count("expired"))

	ch.weekly = []*models.User{{ID: 1}}
	duels.expired = []*models.Duel{{ID: "d"}}
	s.RunWeeklyBonus(ctx)
	s.RunDuelExpiry(ctx)
	require.Equal(t, 1, n.count("weekly"))
	require.Equal(t, 1, n.count("expired"))

	s.RunCleaner(ctx)
	require.Equal(t, 1, c.calls)
}

func TestStartRunsMonthTickImmediately(t *testing.T) {
	ch := &fakeChallenge{}
	s, _, c := newTestScheduler(ch, &fakeDuels{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.GreaterOrEqual(t, ch.ticks(), 1)

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.calls > 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		return !s.sched.IsRunning()
	}, 5*time.Second, 10*time.Millisecond)
}
