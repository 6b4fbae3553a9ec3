package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitbro/fitbro/internal/api"
	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/config"
	"github.com/fitbro/fitbro/internal/duel"
	"github.com/fitbro/fitbro/internal/logging"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	config.SetupCommon()
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

	clock := calendar.NewClock(cfg.Location(), nil)
	service := api.NewService(
		store,
		challenge.New(store, clock),
		duel.New(store, clock, cfg.DuelResponseWindow),
	)
	e := service.NewServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Infof("listening on %s", cfg.APIListenAddr)
		if err := e.Start(cfg.APIListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving api: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.Fatalf("api stopped: %v", err)
	}
}
