package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/clausecode/internal/application"
	appai "github.com/bryanwahyu/clausecode/internal/application/ai"
	appauth "github.com/bryanwahyu/clausecode/internal/application/auth"
	appdocs "github.com/bryanwahyu/clausecode/internal/application/documents"
	apphistory "github.com/bryanwahyu/clausecode/internal/application/history"
	"github.com/bryanwahyu/clausecode/internal/config"
	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/auth"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
	"github.com/bryanwahyu/clausecode/internal/domain/history"
	"github.com/bryanwahyu/clausecode/internal/infra/ai/openai"
	"github.com/bryanwahyu/clausecode/internal/infra/auth/google"
	mongop "github.com/bryanwahyu/clausecode/internal/infra/db/mongo"
	mysqlp "github.com/bryanwahyu/clausecode/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/clausecode/internal/infra/db/postgres"
	"github.com/bryanwahyu/clausecode/internal/infra/httpserver"
	"github.com/bryanwahyu/clausecode/internal/infra/scrape"
	"github.com/bryanwahyu/clausecode/internal/infra/search"
	"github.com/bryanwahyu/clausecode/internal/infra/session"
	minioStore "github.com/bryanwahyu/clausecode/internal/infra/storage"
	"github.com/bryanwahyu/clausecode/internal/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("config load error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	metrics := middleware.NewMetrics()
	checkers := map[string]middleware.HealthChecker{}

	// language model; a nil LLM makes /analyze answer "not configured"
	var llm analysis.LLM
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		if cfg.OpenAI.BaseURL != "" {
			client = openai.NewClientWithBaseURL(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
		}
		llm = metrics.InstrumentLLM(client)
	} else {
		logger.Warn("OPENAI_API_KEY not set, analysis endpoints disabled")
	}

	var finder analysis.AlternativeFinder
	if cfg.SerpAPI.APIKey != "" {
		finder = search.NewSerpAPI(cfg.SerpAPI.APIKey)
	}

	// saved analyses
	repo, closeRepo, err := openHistory(ctx, cfg, checkers)
	if err != nil {
		logger.Error("storage connect error", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	// upload archive is optional
	var store document.ObjectStore
	if cfg.Minio.Endpoint != "" {
		s, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Warn("minio init error, uploads will not be archived", "error", err)
		} else {
			store = s
			checkers["minio"] = middleware.CheckFunc(s.Ping)
		}
	}

	sessions, closeSessions := openSessions(ctx, cfg, logger, checkers)
	defer closeSessions()

	// init services
	services := httpserver.Services{
		AI:        appai.NewService(llm, finder, logger),
		Documents: appdocs.NewService(store, scrape.New(cfg.Scrape.Timeout, cfg.Scrape.MaxRedirects), logger),
		History:   apphistory.NewService(repo, cfg.Storage.Driver, application.SystemClock{}, logger),
		Auth:      appauth.NewService(google.NewVerifier(cfg.Google.ClientID), sessions, cfg.Redis.SessionTTL, logger),
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitRefill)
	defer limiter.Close()

	// init router
	handler := httpserver.NewRouter(services, httpserver.Options{
		Logger:         logger,
		Metrics:        metrics,
		Limiter:        limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SecureCookies:  cfg.Server.SecureCookies,
		APIKeys:        cfg.Server.APIKeys,
		Checkers:       checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", "addr", addr, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// openHistory connects the configured storage driver and migrates its schema. The "none"
// driver returns a nil repository.
func openHistory(ctx context.Context, cfg *config.Config, checkers map[string]middleware.HealthChecker) (history.Repository, func(), error) {
	noop := func() {}
	switch cfg.Storage.Driver {
	case config.DriverMySQL:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, noop, err
		}
		repo := mysqlp.NewHistoryRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("migrate: %w", err)
		}
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		return repo, func() { db.Close() }, nil

	case config.DriverPostgres:
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, noop, err
		}
		repo := postgresp.NewHistoryRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("migrate: %w", err)
		}
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		return repo, func() { db.Close() }, nil

	case config.DriverMongo:
		client, err := mongop.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, noop, err
		}
		repo := mongop.NewHistoryRepository(client.Database(cfg.Mongo.Database))
		if err := repo.Migrate(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, noop, fmt.Errorf("migrate: %w", err)
		}
		checkers["database"] = middleware.CheckFunc(func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		})
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil
	}
	return nil, noop, nil
}

// openSessions prefers redis and falls back to process memory when it is unset or down.
func openSessions(ctx context.Context, cfg *config.Config, logger *slog.Logger, checkers map[string]middleware.HealthChecker) (auth.SessionStore, func()) {
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS_ADDR not set, sessions kept in memory")
		return session.NewMemoryStore(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := session.NewRedisStore(rdb)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, sessions kept in memory", "addr", cfg.Redis.Addr, "error", err)
		_ = rdb.Close()
		return session.NewMemoryStore(), func() {}
	}
	checkers["redis"] = middleware.CheckFunc(store.Ping)
	return store, func() { _ = rdb.Close() }
}
