package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"convene/internal/analytics"
	"convene/internal/audit"
	"convene/internal/checkin"
	checkinHandler "convene/internal/checkin/handler"
	checkinMetrics "convene/internal/checkin/metrics"
	"convene/internal/event"
	guestHandler "convene/internal/guest/handler"
	guestMetrics "convene/internal/guest/metrics"
	guestService "convene/internal/guest/service"
	guestStore "convene/internal/guest/store"
	"convene/internal/identity"
	"convene/internal/jwttoken"
	"convene/internal/org"
	"convene/internal/platform/config"
	"convene/internal/platform/database"
	"convene/internal/platform/httpserver"
	"convene/internal/platform/logger"
	"convene/internal/platform/metrics"
	platformredis "convene/internal/platform/redis"
	"convene/internal/policy"
	"convene/internal/router"
	"convene/internal/scores"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if cfg.PostgresDSN == "" {
		log.Error("POSTGRES_DSN is required")
		os.Exit(1)
	}
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Error("failed to reach postgres", "error", err)
		os.Exit(1)
	}
	if err := database.ApplySchema(context.Background(), db); err != nil {
		log.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var auditor audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		auditor = kafka
	} else {
		log.Warn("kafka brokers not configured, audit events stay in memory")
		auditor = audit.NewMemoryPublisher()
	}

	orgs := org.NewPostgres(db)
	actors := identity.NewPostgres(db)
	events := event.NewPostgres(db)
	guests := guestStore.NewPostgres(db)
	workerScores := scores.NewPostgres(db)

	registry := policy.NewRegistry()
	resolver := policy.NewResolver(orgs)
	propagator := scores.NewStoreRecomputer(guests, workerScores)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "convene", "convene")
	identitySvc := identity.NewService(actors, jwtService, log)

	var statsCache *checkin.StatsCache
	if redisClient != nil {
		statsCache = checkin.NewStatsCache(redisClient.Client, cfg.StatsCacheTTL)
	}
	checkinSvc := checkin.NewService(
		guests, events, actors, orgs,
		resolver, registry, propagator, auditor,
		statsCache, checkinMetrics.New(), log,
	)
	guestSvc := guestService.NewService(
		guests, events, actors,
		resolver, registry, propagator, auditor,
		guestMetrics.New(), log,
	)
	analyticsSvc := analytics.NewService(guests, actors, resolver, registry, log)

	handler := router.New(router.Deps{
		Logger:  log,
		Metrics: metrics.New(),
		JWT:     jwtService,
		Auth:    identity.NewHandler(identitySvc, log),
		Handlers: []router.Registrar{
			checkinHandler.New(checkinSvc, log),
			guestHandler.New(guestSvc, log),
			analytics.NewHandler(analyticsSvc, log),
		},
		Health: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	})

	srv := httpserver.New(cfg.Addr, handler)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
