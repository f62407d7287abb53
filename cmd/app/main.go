// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skill-platform/internal/config"
	pg "skill-platform/internal/infra/db/postgres"
	"skill-platform/internal/infra/executor"
	"skill-platform/internal/infra/logging"
	"skill-platform/internal/infra/metrics"
	red "skill-platform/internal/infra/redis"
	"skill-platform/internal/infra/sched"
	"skill-platform/internal/infra/web"
	"skill-platform/internal/infra/worker"
	"skill-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis (optional) ----
	var rateLimiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis not configured; rate limiting disabled")
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	skillRepo := pg.NewSkillRepo(pool)
	jobRepo := pg.NewRunJobRepo(pool, tm)

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, logger)
	skillUC := usecase.NewSkillUseCase(skillRepo, userRepo, tm, logger)
	jobUC := usecase.NewJobUseCase(jobRepo, skillRepo, skillUC, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	srv := web.NewServer(userUC, skillUC, jobUC, auth, rateLimiter, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Routes(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Embedded worker (optional) ----
	var runner *worker.Runner
	if cfg.Worker.Embedded {
		exec := executor.NewPreviewExecutor(skillRepo)
		runner = worker.NewRunner(jobRepo, exec, cfg.Worker.Count, cfg.Worker.PollInterval, logger)
		runner.Start(ctx)
	}

	// ---- Stuck job monitor ----
	monitor := sched.NewStuckJobMonitor(time.Minute, cfg.Worker.StuckAfter, jobRepo, logger)
	go func() { _ = monitor.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	if runner != nil {
		runner.Wait()
	}
}
