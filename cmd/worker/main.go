package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"cleardoc-backend/internal/bootstrap"
	"cleardoc-backend/internal/shared/config"
	"cleardoc-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	interval, err := time.ParseDuration(cfg.PollInterval)
	if err != nil || interval <= 0 {
		log.Printf("invalid POLL_INTERVAL %q, using 10s", cfg.PollInterval)
		interval = 10 * time.Second
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cycles := make(chan struct{}, 1)
	requestCycle := func() {
		select {
		case cycles <- struct{}{}:
		default:
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every "+interval.String(), requestCycle); err != nil {
		log.Fatalf("schedule poll: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Printf("worker started poll_interval=%s batch=%d", interval, cfg.DispatchBatch)
	requestCycle()

	for {
		select {
		case <-ctx.Done():
			log.Printf("shutdown requested")
			return
		case <-app.Waker.C():
			runCycle(ctx, app)
		case <-cycles:
			runCycle(ctx, app)
		}
	}
}

func runCycle(ctx context.Context, app *bootstrap.App) {
	result, err := app.DispatchService.RunCycle(ctx)
	if err != nil {
		telemetry.Error("dispatch cycle failed", map[string]any{"error": err.Error()})
		return
	}
	if result.Processed > 0 || result.Reclaimed > 0 {
		telemetry.Info("dispatch cycle", map[string]any{
			"processed": result.Processed,
			"reclaimed": result.Reclaimed,
		})
	}
}
