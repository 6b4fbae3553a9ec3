// Package scheduler triggers the periodic sweeps of the challenge in the
// community's timezone.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

const jobTimeout = time.Minute

type Challenge interface {
	OnMonthTick(ctx context.Context) (int64, error)
	OnWeeklyBonusTick(ctx context.Context) ([]*models.User, error)
	OnMidnightSweep(ctx context.Context) ([]challenge.SweepResult, error)
	Laggards(ctx context.Context) ([]*models.User, error)
	Now() time.Time
}

type Duels interface {
	ExpireOverdue(ctx context.Context) ([]*models.Duel, error)
}

type Facts interface {
	OfTheDay(ctx context.Context, day time.Time) string
}

// Notifier posts the outcome of a job to the community chat.
type Notifier interface {
	MorningReminder(ctx context.Context, fact string) error
	EveningReminder(ctx context.Context, laggards []*models.User) error
	MidnightReport(ctx context.Context, results []challenge.SweepResult) error
	WeeklyBonus(ctx context.Context, users []*models.User) error
	DuelsExpired(ctx context.Context, duels []*models.Duel) error
}

type Cleaner interface {
	CleanStale(ctx context.Context)
}

type Config struct {
	Location  *time.Location
	MorningAt string
	EveningAt string
}

type Scheduler struct {
	sched     *gocron.Scheduler
	cfg       Config
	challenge Challenge
	duels     Duels
	facts     Facts
	notifier  Notifier
	cleaner   Cleaner
	log       *logrus.Entry
}

func New(cfg Config, ch Challenge, duels Duels, facts Facts, notifier Notifier, cleaner Cleaner) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := gocron.NewScheduler(cfg.Location)
	s.SingletonModeAll()
	return &Scheduler{
		sched:     s,
		cfg:       cfg,
		challenge: ch,
		duels:     duels,
		facts:     facts,
		notifier:  notifier,
		cleaner:   cleaner,
		log:       logrus.WithField("component", "scheduler"),
	}
}

// Start registers every job, settles a missed month rollover and begins
// running in the background until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	// gocron builds one job per chain, so each chain has to end in Do before
	// the next one starts.
	jobs := []struct {
		name     string
		schedule func() *gocron.Scheduler
		run      func(context.Context)
	}{
		{"morning reminder", func() *gocron.Scheduler { return s.sched.Every(1).Day().At(s.cfg.MorningAt) }, s.RunMorning},
		{"evening reminder", func() *gocron.Scheduler { return s.sched.Every(1).Day().At(s.cfg.EveningAt) }, s.RunEvening},
		{"midnight sweep", func() *gocron.Scheduler { return s.sched.Cron("1 0 * * *") }, s.RunMidnight},
		{"weekly bonus", func() *gocron.Scheduler { return s.sched.Cron("5 0 * * 1") }, s.RunWeeklyBonus},
		{"month tick", func() *gocron.Scheduler { return s.sched.Cron("0 0 1 * *") }, s.RunMonthTick},
		{"duel expiry", func() *gocron.Scheduler { return s.sched.Every(1).Minute() }, s.RunDuelExpiry},
		{"message cleaner", func() *gocron.Scheduler { return s.sched.Every(1).Minute() }, s.RunCleaner},
	}
	for _, j := range jobs {
		run := j.run
		if _, err := j.schedule().Tag(j.name).Do(func() {
			jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			run(jobCtx)
		}); err != nil {
			return fmt.Errorf("scheduling %s: %w", j.name, err)
		}
	}

	s.RunMonthTick(ctx)

	s.sched.StartAsync()
	s.log.Infof("started %d jobs in %s", len(jobs), s.cfg.Location)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) Stop() {
	if s.sched.IsRunning() {
		s.sched.Stop()
	}
}

func (s *Scheduler) RunMorning(ctx context.Context) {
	fact := s.facts.OfTheDay(ctx, s.challenge.Now())
	if err := s.notifier.MorningReminder(ctx, fact); err != nil {
		s.log.Errorf("sending morning reminder: %v", err)
	}
}

func (s *Scheduler) RunEvening(ctx context.Context) {
	laggards, err := s.challenge.Laggards(ctx)
	if err != nil {
		s.log.Errorf("listing laggards: %v", err)
		return
	}
	if len(laggards) == 0 {
		s.log.Info("everyone reported today, skipping evening reminder")
		return
	}
	if err := s.notifier.EveningReminder(ctx, laggards); err != nil {
		s.log.Errorf("sending evening reminder: %v", err)
	}
}

func (s *Scheduler) RunMidnight(ctx context.Context) {
	results, err := s.challenge.OnMidnightSweep(ctx)
	if err != nil {
		s.log.Errorf("running midnight sweep: %v", err)
	}
	if len(results) == 0 {
		return
	}
	s.log.Infof("midnight sweep settled %d users", len(results))
	if err := s.notifier.MidnightReport(ctx, results); err != nil {
		s.log.Errorf("sending midnight report: %v", err)
	}
}

func (s *Scheduler) RunWeeklyBonus(ctx context.Context) {
	users, err := s.challenge.OnWeeklyBonusTick(ctx)
	if err != nil {
		s.log.Errorf("running weekly bonus: %v", err)
	}
	if len(users) == 0 {
		return
	}
	if err := s.notifier.WeeklyBonus(ctx, users); err != nil {
		s.log.Errorf("announcing weekly bonus: %v", err)
	}
}

func (s *Scheduler) RunMonthTick(ctx context.Context) {
	if _, err := s.challenge.OnMonthTick(ctx); err != nil {
		s.log.Errorf("resetting day offs: %v", err)
	}
}

func (s *Scheduler) RunDuelExpiry(ctx context.Context) {
	expired, err := s.duels.ExpireOverdue(ctx)
	if err != nil {
		s.log.Errorf("expiring duels: %v", err)
	}
	if len(expired) == 0 {
		return
	}
	if err := s.notifier.DuelsExpired(ctx, expired); err != nil {
		s.log.Errorf("announcing expired duels: %v", err)
	}
}

func (s *Scheduler) RunCleaner(ctx context.Context) {
	s.cleaner.CleanStale(ctx)
}
