package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mudancasja/leadqueue/internal/api"
	"github.com/mudancasja/leadqueue/internal/auth"
	"github.com/mudancasja/leadqueue/internal/bootstrap"
	"github.com/mudancasja/leadqueue/internal/campaign"
	"github.com/mudancasja/leadqueue/internal/config"
	"github.com/mudancasja/leadqueue/internal/metrics"
	"github.com/mudancasja/leadqueue/internal/queue"
	"github.com/mudancasja/leadqueue/internal/requeue"
	"github.com/mudancasja/leadqueue/internal/scanner"
)

func main() {
	configDir := flag.String("config", "config", "directory containing config.yaml")
	genToken := flag.Bool("gen-token", false, "print a random admin token and exit")
	flag.Parse()

	if *genToken {
		token, err := auth.GenerateToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := bootstrap.Logger(cfg.Logging, "api-server")
	log.Info().Msg("starting API server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := bootstrap.NewCore(ctx, cfg, "leadqueue-api", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer core.Close()
	log.Info().Msg("database connection established")

	if _, err := bootstrap.SeedSettings(ctx, core.Queries, cfg.Email, log); err != nil {
		log.Warn().Err(err).Msg("failed to seed settings")
	}

	dispatch, err := core.Dispatcher(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize delivery dispatch")
	}

	match := core.Matcher(dispatch, log)

	// The auth lockout and the readiness probe share the queue's Redis.
	var (
		lockout    *auth.Lockout
		redisReady api.Pinger
	)
	if cfg.Queue.RedisAddr != "" && cfg.Queue.Type != queue.BackendSQS {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		})
		defer redisClient.Close()
		if cfg.API.AdminToken != "" {
			lockout = auth.NewLockout(redisClient, auth.LockoutConfig{
				MaxAttempts: cfg.API.AuthMaxAttempts,
				Window:      cfg.API.AuthLockoutWindow,
			})
		}
		if cfg.Delivery.Mode != "sync" {
			redisReady = api.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})
		}
	}
	if cfg.API.AdminToken == "" {
		log.Warn().Msg("api.admin_token is empty; admin routes are unauthenticated")
	}

	router := api.NewRouter(api.Deps{
		DB:             core.DB,
		Redis:          redisReady,
		Campaigns:      campaign.NewService(core.Queries, match, core.Clock, log),
		Scanner:        scanner.New(core.Queries, dispatch, core.Clock, log),
		Requeue:        requeue.NewManager(core.Queries, dispatch, log),
		Leads:          core.Queries,
		Matcher:        match,
		TestLog:        core.Sender,
		Settings:       core.Settings,
		AdminToken:     cfg.API.AdminToken,
		Lockout:        lockout,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, log)

	go metrics.WatchPool(ctx, core.DB.Pool, 15*time.Second)

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	// Graceful shutdown with 30-second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
