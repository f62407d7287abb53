// File: cmd/worker/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skill-platform/internal/config"
	pg "skill-platform/internal/infra/db/postgres"
	"skill-platform/internal/infra/executor"
	"skill-platform/internal/infra/logging"
	"skill-platform/internal/infra/metrics"
	"skill-platform/internal/infra/sched"
	"skill-platform/internal/infra/worker"
)

// Standalone worker process: claims and executes run jobs against the same
// database as the API. Any number of these can run side by side.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	tm := pg.NewTxManager(pool)
	skillRepo := pg.NewSkillRepo(pool)
	jobRepo := pg.NewRunJobRepo(pool, tm)

	exec := executor.NewPreviewExecutor(skillRepo)
	runner := worker.NewRunner(jobRepo, exec, cfg.Worker.Count, cfg.Worker.PollInterval, logger)
	runner.Start(ctx)

	monitor := sched.NewStuckJobMonitor(time.Minute, cfg.Worker.StuckAfter, jobRepo, logger)
	go func() { _ = monitor.Run(ctx) }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	runner.Wait()
}
