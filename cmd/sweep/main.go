// Command sweep runs one expiration pass: bookings whose end time has passed
// are moved to completed, and bookings ending soon are listed for reminders.
// It is meant to be started by an external scheduler such as cron.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kanemolly/campus-resource-hub/internal/app"
	"github.com/kanemolly/campus-resource-hub/internal/booking"
	"github.com/kanemolly/campus-resource-hub/internal/config"
	"github.com/kanemolly/campus-resource-hub/internal/db"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/logger"
)

func main() {
	timeout := flag.Duration("timeout", 0, "overall time limit for the pass (default SWEEP_TIMEOUT)")
	dryRun := flag.Bool("dry-run", false, "list expired bookings without completing them")
	reminderHours := flag.Int("reminder-hours", 0, "list bookings ending within this many hours (default REMINDER_HOURS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *timeout <= 0 {
		*timeout = cfg.SweepTimeout
	}
	if *reminderHours <= 0 {
		*reminderHours = cfg.ReminderHours
	}

	zlog, err := logger.New(cfg.LogPath, "sweep", cfg.LogDebug)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		zlog.Fatal("failed to connect to db", zap.Error(err))
	}

	container := app.NewContainer(app.Config{
		DBPool:             pool,
		Logger:             zlog,
		JWTSecret:          cfg.JWTSecret,
		JWTTTL:             cfg.JWTAccessTokenTTL,
		BcryptCost:         cfg.BcryptCost,
		BusinessHoursStart: cfg.BusinessHoursStart,
		BusinessHoursEnd:   cfg.BusinessHoursEnd,
	})

	err = run(ctx, container.Sweeper, zlog, booking.NaiveNow(), *dryRun, *reminderHours)
	pool.Close()
	if err != nil {
		zlog.Error("sweep failed", zap.Error(err))
		_ = zlog.Sync()
		os.Exit(1)
	}
	zlog.Info("sweep completed successfully")
}

func run(ctx context.Context, sweeper *booking.Sweeper, zlog *zap.Logger, now time.Time, dryRun bool, reminderHours int) error {
	if dryRun {
		expired, err := sweeper.Expired(ctx, now)
		if err != nil {
			return err
		}
		for _, b := range expired {
			zlog.Info("would complete booking",
				zap.String("booking_id", b.ID),
				zap.String("resource_id", b.ResourceID),
				zap.Time("end_time", b.EndTime),
			)
		}
		zlog.Info("dry run finished", zap.Int("expired", len(expired)))
	} else if _, err := sweeper.Sweep(ctx, now); err != nil {
		return err
	}

	soon, err := sweeper.ExpiringSoon(ctx, now, reminderHours)
	if err != nil {
		return err
	}
	for _, b := range soon {
		zlog.Info("booking ending soon",
			zap.String("booking_id", b.ID),
			zap.String("requester_id", b.RequesterID),
			zap.Time("end_time", b.EndTime),
		)
	}
	zlog.Info("reminder scan finished", zap.Int("hours", reminderHours), zap.Int("count", len(soon)))
	return nil
}
