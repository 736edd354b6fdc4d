package main

// @title           Sercha KB API
// @version         1.0
// @description     Governed knowledge-base retrieval. Ingest documents, then search them with policy-filtered, cited results.

// @contact.name   Sercha OSS
// @contact.url    https://github.com/custodia-labs/sercha-kb/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/sercha-kb/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-kb/internal/config"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/services"
	"github.com/custodia-labs/sercha-kb/internal/embedding"
	"github.com/custodia-labs/sercha-kb/internal/governance"
	"github.com/custodia-labs/sercha-kb/internal/metrics"
	"github.com/custodia-labs/sercha-kb/internal/normalisers"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors"
)

var version = "dev"

func main() {
	if err := cli.Execute(context.Background(), version, buildApp); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// storage bundles the ports a backend provides
type storage struct {
	documents driven.DocumentStore
	chunks    driven.ChunkStore
	ranker    driven.LexicalRanker
	pinger    pinger
	close     func() error
}

// buildApp wires configuration, adapters and services
func buildApp(ctx context.Context, configFile string) (*cli.App, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(os.Stderr, cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*cli.App, error) {
		_ = closeAll()
		return nil, err
	}

	// ===== Storage =====
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, store.close)

	// ===== Search cache (optional) =====
	var cache driven.SearchCache
	var cachePinger pinger
	if cfg.RedisURL != "" {
		client, err := redisadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		closers = append(closers, client.Close)
		searchCache := redisadapter.NewSearchCache(client, cfg.CacheTTL())
		cache = searchCache
		cachePinger = searchCache
		logger.Info("redis search cache enabled", "ttl", cfg.CacheTTL())
	}

	// ===== Embedding pool =====
	var pool *ants.Pool
	if cfg.EmbedWorkers > 1 {
		pool, err = ants.NewPool(cfg.EmbedWorkers)
		if err != nil {
			return fail(fmt.Errorf("failed to create embedding pool: %w", err))
		}
		closers = append(closers, func() error {
			pool.Release()
			return nil
		})
	}

	m := metrics.NewMetrics()
	embedder := embedding.NewHashEmbedder(cfg.KB.EmbeddingDimensions)

	searchService := services.NewSearchService(services.SearchServiceConfig{
		ChunkStore:    store.chunks,
		DocumentStore: store.documents,
		LexicalRanker: store.ranker,
		Embedder:      embedder,
		Policies:      governance.DefaultRegistry().WithDefault(cfg.KB.PolicyProfile),
		Settings:      cfg.KB,
		Cache:         cache,
		Metrics:       m,
		Logger:        logger,
	})

	documentService := services.NewDocumentService(services.DocumentServiceConfig{
		DocumentStore: store.documents,
		ChunkStore:    store.chunks,
		Embedder:      embedder,
		Normalisers:   normalisers.DefaultRegistry(),
		Pipeline:      postprocessors.DefaultPipeline(),
		EmbedPool:     pool,
		Cache:         cache,
		Metrics:       m,
		Logger:        logger,
	})

	app := &cli.App{
		Config:    cfg,
		Logger:    logger,
		Search:    searchService,
		Documents: documentService,
		Metrics:   m,
		DB:        store.pinger,
		Redis:     cachePinger,
		Close:     closeAll,
	}
	if cfg.AuthEnabled() {
		app.Auth = services.NewAuthService(auth.NewAdapter(cfg.JWTSecret))
	}

	logger.Debug("runtime configured",
		"storage", cfg.Storage,
		"policy", cfg.KB.PolicyProfile,
		"embedding_dim", cfg.KB.EmbeddingDimensions,
		"cache", cache != nil,
		"auth", app.Auth != nil,
	)
	return app, nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime(),
			ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		logger.Debug("postgres connected and schema initialized")
		return &storage{
			documents: postgres.NewDocumentStore(db),
			chunks:    postgres.NewChunkStore(db),
			ranker:    postgres.NewLexicalRanker(db),
			pinger:    db,
			close:     db.Close,
		}, nil

	default:
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Debug("sqlite store opened", "path", store.Path())
		return &storage{
			documents: store.DocumentStore(),
			chunks:    store.ChunkStore(),
			ranker:    store.LexicalRanker(),
			pinger:    store,
			close:     store.Close,
		}, nil
	}
}

// newLogger builds the process logger from KB_LOG_FORMAT and KB_LOG_LEVEL
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "sercha-kb", "version", version), nil
}
