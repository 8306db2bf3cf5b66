package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/baechuer/club-service/internal/application/club"
	"github.com/baechuer/club-service/internal/audit"
	"github.com/baechuer/club-service/internal/config"
	"github.com/baechuer/club-service/internal/infrastructure/bgg"
	"github.com/baechuer/club-service/internal/infrastructure/github"
	"github.com/baechuer/club-service/internal/infrastructure/mirror"
	"github.com/baechuer/club-service/internal/infrastructure/postgres"
	"github.com/baechuer/club-service/internal/infrastructure/rabbitmq"
	"github.com/baechuer/club-service/internal/infrastructure/redis"
	"github.com/baechuer/club-service/internal/infrastructure/sqlite"
	"github.com/baechuer/club-service/internal/pkg/logger"
	"github.com/baechuer/club-service/internal/security"
	"github.com/baechuer/club-service/internal/transport/rest"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}

	logger.Init()
	log := logger.Logger.With().
		Str("service", "club-service").
		Str("env", cfg.AppEnv).
		Logger()
	logger.Logger = log

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- State store ----
	var store club.DocumentStore
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(rootCtx, cfg.DBDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres pool create failed")
		}
		defer pool.Close()

		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		if err := pool.Ping(pingCtx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("postgres ping failed")
		}
		cancel()

		pg := postgres.New(pool)
		if err := pg.EnsureSchema(rootCtx); err != nil {
			log.Fatal().Err(err).Msg("postgres schema failed")
		}
		ver, err := pg.Version(rootCtx)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres state version failed")
		}
		store = pg
		log.Info().Int64("state_version", ver).Msg("postgres connected")
	default:
		store = github.New(github.Config{
			BaseURL: cfg.GitHub.APIURL,
			Token:   cfg.GitHub.Token,
			Owner:   cfg.GitHub.Owner,
			Repo:    cfg.GitHub.Repo,
			Branch:  cfg.GitHub.Branch,
			Path:    cfg.GitHub.Path,
		}, &http.Client{Timeout: 15 * time.Second})
		log.Info().
			Str("repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo).
			Str("path", cfg.GitHub.Path).
			Msg("github store configured")
	}

	if cfg.LocalMirrorPath != "" {
		local, err := sqlite.Open(cfg.LocalMirrorPath)
		if err != nil {
			log.Fatal().Err(err).Msg("sqlite mirror open failed")
		}
		defer local.Close()
		store = mirror.New(store, local, log)
		log.Info().Str("path", cfg.LocalMirrorPath).Msg("local mirror enabled")
	}

	// ---- Redis (optional) ----
	var cache *redis.Cache
	if cfg.RedisAddr != "" {
		cache = redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cache.Close()

		pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
		if err := cache.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("redis ping failed (continuing)")
		} else {
			log.Info().Msg("redis connected")
		}
		cancel()
	}

	// ---- MQ publisher (optional) ----
	var pub club.EventPublisher = club.NoopPublisher{}
	if cfg.PublishEnabled {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq publisher failed")
		}
		defer p.Close()
		pub = p
		log.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbitmq publisher ready")
	}

	// ---- BoardGameGeek ----
	var bggCache bgg.Cache
	if cache != nil {
		bggCache = cache
	}
	games := bgg.New(cfg.BGGAPIURL, &http.Client{Timeout: 10 * time.Second}, bggCache, cfg.BGGCacheTTL, log)

	// ---- Application service ----
	svc := club.New(store, club.SystemClock{}, pub, games, audit.New(log), cfg.ClubLocation)
	{
		loadCtx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
		err := svc.Start(loadCtx)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("club state load failed")
		}
	}
	go svc.Run(rootCtx, cfg.SweepInterval)

	// ---- Router ----
	deps := rest.RouterDeps{
		Handler:  rest.NewHandler(svc),
		Verifier: security.NewHS256Verifier(cfg.JWTSecret, cfg.JWTIssuer),
		RateLimit: rest.RateLimit{
			Enabled: cfg.RLEnabled,
			Limit:   cfg.RLLimit,
			Window:  cfg.RLWindow,
		},
		Healthz: func() map[string]any {
			sync := "ok"
			if svc.Pending() {
				sync = "pending"
			}
			return map[string]any{"status": "ok", "store": cfg.StoreBackend, "sync": sync}
		},
	}
	if cache != nil {
		deps.Limiter = cache
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           rest.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	// last chance for a change that never reached the store
	if err := svc.Sync(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("final sync failed, changes lost")
	}
	log.Info().Msg("shutdown complete")
}
