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

	"github.com/squadforge/grouping-platform/internal/config"
	"github.com/squadforge/grouping-platform/internal/db/repository"
	"github.com/squadforge/grouping-platform/internal/grouping"
	"github.com/squadforge/grouping-platform/internal/grouping/ai"
	"github.com/squadforge/grouping-platform/internal/logging"
	"github.com/squadforge/grouping-platform/internal/metrics"
	"github.com/squadforge/grouping-platform/internal/player"
	"github.com/squadforge/grouping-platform/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps config, logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	playerRepo := repository.NewPlayerRepository(repository.NewPostgresPlayerStore(pool))

	// Core grouping services
	scorer := grouping.NewScorer(grouping.DefaultScorerConfig())
	analyzer := grouping.NewAnalyzer()
	engine := grouping.NewEngine(scorer, analyzer, nil)

	var aiGrouper grouping.AIGrouper
	if cfg.AI.GrouperURL != "" {
		embeddings := ai.NewRedisEmbeddingCache(redisClient, cfg.AI.EmbeddingTTL)
		aiGrouper = ai.NewClient(ai.Config{
			BaseURL: cfg.AI.GrouperURL,
			APIKey:  cfg.AI.GrouperKey,
			Timeout: cfg.AI.HTTPTimeout,
		}, embeddings, logger)
	} else {
		logger.Warn().Msg("AI grouper not configured; grouping will rely on the local engine")
	}

	resultCache := grouping.NewCache(redisClient, cfg.Grouping.CacheTTL)
	groupingMetrics := metrics.NewGrouping(prometheus.DefaultRegisterer)

	groupingSvc := grouping.NewService(
		aiGrouper,
		engine,
		analyzer,
		resultCache,
		groupingMetrics,
		grouping.ServiceOptions{AITimeout: cfg.AI.HTTPTimeout},
		logger,
	)

	groupingHandler := grouping.NewHTTPHandler(groupingSvc, playerRepo, cfg.Grouping.MaxPlayers, logger)
	playerHandler := player.NewHTTPHandler(playerRepo, func(err error) bool {
		return errors.Is(err, repository.ErrPlayerNotFound)
	}, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Handlers{
		CreateGrouping: groupingHandler.HandleCreate,
		RegisterPlayer: playerHandler.HandleRegister,
		GetPlayer:      playerHandler.HandleGet,
	})

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

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

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
