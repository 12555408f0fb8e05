package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mudancasja/leadqueue/internal/bootstrap"
	"github.com/mudancasja/leadqueue/internal/config"
	"github.com/mudancasja/leadqueue/internal/delivery"
	"github.com/mudancasja/leadqueue/internal/metrics"
	"github.com/mudancasja/leadqueue/internal/provider"
	"github.com/mudancasja/leadqueue/internal/queue"
	"github.com/mudancasja/leadqueue/internal/scanner"
	"github.com/mudancasja/leadqueue/internal/worker"
)

func main() {
	configDir := flag.String("config", "config", "directory containing config.yaml")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := bootstrap.Logger(cfg.Logging, "queue-worker")
	log.Info().Msg("starting queue worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := bootstrap.NewCore(ctx, cfg, "leadqueue-worker", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer core.Close()

	qcfg := bootstrap.QueueConfig(cfg.Queue)
	enqueuer, dequeuer, err := queue.NewQueue(qcfg, core.Handler, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue")
	}
	// The worker always republishes through the queue, whatever delivery.mode
	// the API server runs with.
	dispatch := delivery.NewAsyncService(enqueuer, log)

	// Track health of every adapter the resolver builds.
	go provider.NewHealthMonitor(core.Registry, log).Run(ctx)

	if err := dequeuer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start consumers")
	}
	log.Info().
		Str("queue", qcfg.Backend).
		Int("workers", qcfg.Workers).
		Msg("queue consumers started")

	sweeper := worker.NewSweeper(core.Queries, dispatch, cfg.Worker.SweepGrace, cfg.Worker.SweepBatchSize, log)
	go sweeper.Run(ctx, cfg.Worker.SweepInterval)

	if cfg.Scanner.ScheduleInterval > 0 {
		scan := scanner.New(core.Queries, dispatch, core.Clock, log)
		go scan.Every(ctx, cfg.Scanner.ScheduleInterval)
		log.Info().Dur("interval", cfg.Scanner.ScheduleInterval).Msg("expiration scan scheduled")
	}

	go metrics.WatchPool(ctx, core.DB.Pool, 15*time.Second)

	<-ctx.Done()
	log.Info().Msg("shutting down queue worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), qcfg.ShutdownTimeout)
	defer cancel()

	if err := dequeuer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("consumers did not stop cleanly")
	}

	log.Info().Msg("queue worker stopped")
}
