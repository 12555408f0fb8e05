// Command expiration-scan runs one expiration scan and exits. It is meant
// to be scheduled by cron; the exit status is non-zero when any campaign
// failed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mudancasja/leadqueue/internal/bootstrap"
	"github.com/mudancasja/leadqueue/internal/config"
	"github.com/mudancasja/leadqueue/internal/scanner"
)

func main() {
	configDir := flag.String("config", "config", "directory containing config.yaml")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline for the scan")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := bootstrap.Logger(cfg.Logging, "expiration-scan")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	core, err := bootstrap.NewCore(ctx, cfg, "leadqueue-scan", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer core.Close()

	dispatch, err := core.Dispatcher(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize delivery dispatch")
	}

	res := scanner.New(core.Queries, dispatch, core.Clock, log).Run(ctx)

	log.Info().
		Int("emails_criados", res.Created).
		Str("executado_em", res.FormattedExecutedAt()).
		Int("falhas", len(res.Failures)).
		Msg("expiration scan finished")

	if len(res.Failures) > 0 {
		core.Close()
		os.Exit(1)
	}
}
