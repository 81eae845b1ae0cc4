package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codeduel/platform/internal/auth"
	"github.com/codeduel/platform/internal/auth/jwt"
	"github.com/codeduel/platform/internal/config"
	"github.com/codeduel/platform/internal/db/queries"
	"github.com/codeduel/platform/internal/db/repository"
	"github.com/codeduel/platform/internal/leaderboard"
	"github.com/codeduel/platform/internal/logging"
	"github.com/codeduel/platform/internal/match"
	"github.com/codeduel/platform/internal/match/settlement"
	"github.com/codeduel/platform/internal/problem"
	"github.com/codeduel/platform/internal/profile"
	"github.com/codeduel/platform/internal/server"
	"github.com/codeduel/platform/internal/submission"
	"github.com/codeduel/platform/internal/submission/ai"
	"github.com/codeduel/platform/internal/submission/executor"
	ws "github.com/codeduel/platform/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	engine        *match.Engine
	lbBroadcaster *leaderboard.Broadcaster
	bgCancels     []context.CancelFunc
}

// New bootstraps configs, logger, Postgres, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode, cfg.Postgres.MaxConns)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	store := queries.NewStore(pool)

	userRepo := repository.NewUserRepository(store)
	profileRepo := repository.NewProfileRepository(store)
	problemRepo := repository.NewProblemRepository(store)
	solvedRepo := repository.NewSolvedRepository(store)

	profileSvc := profile.NewService(profileRepo, userRepo, logger)

	tokenCfg := jwt.TokenConfig{
		AccessSecret:  []byte(cfg.Security.JWTSecret),
		RefreshSecret: []byte(cfg.Security.JWTSecret + "_refresh"),
		AccessTTL:     cfg.Security.AccessTokenTTL,
		Issuer:        cfg.Name,
	}
	authSvc := auth.NewService(userRepo, profileSvc, tokenCfg, logger)
	authHandlers := auth.NewHTTPHandlers(authSvc, logger)

	catalog := problem.NewCatalog(problemRepo, problem.NewCache(redisClient, 0), problem.CatalogOptions{
		FallbackID: cfg.Matchmaking.FallbackProblemID,
		Timeout:    cfg.Matchmaking.CatalogTimeout,
	}, logger)
	if err := catalog.Warm(ctx); err != nil {
		logger.Warn().Err(err).Msg("problem cache warm-up failed; sampling will fill it lazily")
	}

	var generator submission.DriverGenerator = ai.NewGenerator(ai.Config{
		URL:         cfg.AI.GeneratorURL,
		Key:         cfg.AI.GeneratorKey,
		Model:       cfg.AI.Model,
		Timeout:     cfg.AI.HTTPTimeout,
		MaxAttempts: cfg.AI.MaxAttempts,
		RetryDelay:  cfg.AI.RetryDelay,
	}, logger)
	if cfg.AI.GeneratorKey == "" {
		logger.Warn().Msg("GROQ_API_KEY not configured; submissions will fail until it is set")
	}
	sandbox := executor.NewClient(cfg.Executor.URL, cfg.Executor.HTTPTimeout, logger)

	submissionSvc := submission.NewService(
		catalog,
		generator,
		sandbox,
		solvedRepo,
		profileRepo,
		submission.NewMetrics(prometheus.DefaultRegisterer),
		logger,
	)

	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		Key:  cfg.Leaderboard.Key,
		TopN: cfg.Leaderboard.DefaultTop,
	})
	settler := settlement.NewSettler(profileRepo, leaderboardSvc, settlement.Options{
		WinPoints:  cfg.Matchmaking.RankedWinPoints,
		LossPoints: cfg.Matchmaking.RankedLossPoints,
	}, logger)

	wsHub := ws.NewHub(logger)
	engine := match.NewEngine(
		profileSvc,
		catalog,
		settler,
		wsHub,
		match.NewMetrics(prometheus.DefaultRegisterer),
		match.EngineOptions{SettlementTimeout: cfg.Matchmaking.SettlementTimeout},
		logger,
	)
	matchWSHandler := match.NewHandler(engine, wsHub, authSvc, logger)
	lbBroadcaster := leaderboard.NewBroadcaster(leaderboardSvc, wsHub, logger)

	submissionHTTP := submission.NewHTTPHandler(submissionSvc, logger)
	deps := []server.Pinger{
		pool,
		server.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
	}
	apiServer := server.NewHTTPServer(cfg, logger, authSvc, deps, server.Routes{
		Auth:           authHandlers,
		Profile:        profile.NewHTTPHandler(profileSvc, logger).Me,
		Problems:       problem.NewHTTPHandler(catalog, logger).List,
		Submit:         submissionHTTP.Submit,
		SolvedProblems: submissionHTTP.Solved,
		Leaderboard:    leaderboard.NewHTTPHandler(leaderboardSvc, cfg.Leaderboard.DefaultTop, logger).HandleGet,
		MatchWS:        matchWSHandler.HandleWebSocket,
	})

	return &Application{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redis:         redisClient,
		http:          apiServer,
		engine:        engine,
		lbBroadcaster: lbBroadcaster,
		bgCancels:     make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	if err := a.engine.Wait(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("pending settlements did not finish")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.lbBroadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.lbBroadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
		}()
	}
}
