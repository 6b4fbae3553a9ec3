package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitbro/fitbro/internal/achievements"
	"github.com/fitbro/fitbro/internal/bot"
	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/config"
	"github.com/fitbro/fitbro/internal/duel"
	"github.com/fitbro/fitbro/internal/facts"
	"github.com/fitbro/fitbro/internal/logging"
	"github.com/fitbro/fitbro/internal/prompts"
	"github.com/fitbro/fitbro/internal/scheduler"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v4"
)

func main() {
	setupConfig()
	logging.Init()

	cfg := config.New()
	logrus.Debugf("config: %v", cfg)

	db, err := storage.Open(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	store := storage.New(db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
	defer initCancel()

	if err := store.Migrate(initCtx); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
	if err := store.SeedAchievements(initCtx, achievements.Catalog()); err != nil {
		logrus.Fatalf("Failed to seed achievements: %v", err)
	}

	globalState, err := store.GetOrCreateGlobalState(initCtx)
	if err != nil {
		logrus.Fatalf("Failed to get or create global state: %v", err)
	}

	tb, err := telebot.NewBot(telebot.Settings{
		Token: cfg.TelegramToken,
		Poller: &telebot.LongPoller{
			Timeout:        10 * time.Second,
			LastUpdateID:   globalState.LastUpdateID,
			AllowedUpdates: []string{"message", "callback_query"},
		},
		OnError: func(err error, c telebot.Context) {
			logrus.Errorf("bot error: %v", err)
		},
	})
	if err != nil {
		logrus.Fatalf("Failed to create bot: %v", err)
	}

	clock := calendar.NewClock(cfg.Location(), nil)
	pr, err := prompts.New(cfg.PromptCacheSize, cfg.PromptTTL, time.Now)
	if err != nil {
		logrus.Fatalf("Failed to create prompt store: %v", err)
	}

	ch := challenge.New(store, clock)
	duels := duel.New(store, clock, cfg.DuelResponseWindow)

	b := bot.New(cfg, store, ch, duels, pr, clock, tb)
	b.Register(tb)

	sched := scheduler.New(
		scheduler.Config{
			Location:  cfg.Location(),
			MorningAt: cfg.MorningReminderAt,
			EveningAt: cfg.EveningReminderAt,
		},
		ch,
		duels,
		facts.New(cfg.FactsAPIURL),
		b.Announcer(),
		b,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tb.Start()
		return nil
	})
	g.Go(func() error {
		if err := sched.Start(gctx); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		tb.Stop()
		return nil
	})

	logrus.Infof("bot is running as @%s", tb.Me.Username)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatalf("bot stopped: %v", err)
	}
	logrus.Info("services finished")
}

func setupConfig() {
	config.SetupCommon()
	viper.MustBindEnv("telegram_token")
	viper.MustBindEnv("chat_id")
}
