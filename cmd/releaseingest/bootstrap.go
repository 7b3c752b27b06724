package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"releaseingest/internal/catalog"
	"releaseingest/internal/config"
	"releaseingest/internal/httpx"
	"releaseingest/internal/ingest"
	"releaseingest/internal/platform/spotify"
)

type application struct {
	cfg          *config.Config
	logger       *slog.Logger
	controller   *ingest.Controller
	statusServer *http.Server
	closers      []func()
}

func (a *application) Close() {
	if a.statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.statusServer.Shutdown(shutdownCtx)
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func bootstrap(ctx context.Context, cmd *cobra.Command, flags *flagValues) (*application, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	app := &application{cfg: cfg, logger: logger}

	repo, closeStore, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	corpus, err := ingest.LoadCorpus(cfg.Corpus.ArtistsFile, cfg.Corpus.QueriesFile)
	if err != nil {
		app.Close()
		return nil, err
	}

	status := ingest.NewStatusTracker()
	app.controller = newController(cfg, corpus, repo, status, logger)

	if cfg.Status.Addr != "" {
		app.statusServer = &http.Server{
			Addr:         cfg.Status.Addr,
			Handler:      newStatusRouter(status, repo, logger),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
	}
	return app, nil
}

func newController(cfg *config.Config, corpus ingest.CorpusState, repo catalog.Repository, status *ingest.StatusTracker, logger *slog.Logger) *ingest.Controller {
	httpClient := &http.Client{Timeout: cfg.Spotify.Timeout.Duration}

	creds := spotify.NewCredentials(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.TokenURL, httpClient)
	exec := spotify.NewExecutor(httpClient, spotify.ExecutorConfig{
		MaxRetries:        cfg.Pipeline.MaxRetries,
		InitialBackoff:    cfg.Pipeline.InitialBackoff.Duration,
		RateLimitWaitCap:  cfg.Pipeline.RateLimitWaitCap.Duration,
		RequestsPerSecond: cfg.Spotify.RequestsPerSecond,
	}, logger.With("component", "executor"))
	client := spotify.NewClient(exec, creds, spotify.ClientConfig{
		BaseURL:   cfg.Spotify.BaseURL,
		UserAgent: "releaseingest/1.0",
		Market:    cfg.Spotify.Market,
		PageSize:  cfg.Spotify.PageSize,
	}, logger.With("component", "spotify"))

	importer := ingest.NewImporter(repo, cfg.Pipeline.MinTracks, logger.With("component", "importer"))
	runner := ingest.NewBatchRunner(client, importer, cfg.Pipeline.BasePacingDelay.Duration, logger.With("component", "batch"))

	return ingest.NewController(ingest.Config{
		BatchSize:              cfg.Pipeline.BatchSize,
		BatchCooldown:          cfg.Pipeline.BatchCooldown.Duration,
		CycleCooldown:          cfg.Pipeline.CycleCooldown.Duration,
		CredentialRefreshEvery: cfg.Pipeline.CredentialRefreshEvery,
		MaxAuthFailures:        cfg.Pipeline.MaxAuthFailures,
	}, corpus, runner, repo, creds, status, logger.With("component", "cycle"))
}

func openStore(ctx context.Context, cfg config.Storage, logger *slog.Logger) (catalog.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := openDB(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("database connection OK", "dsn", config.RedactDSN(cfg.DSN))
		return catalog.NewPostgresRepo(pool), pool.Close, nil
	case config.DriverSQLite:
		repo, err := catalog.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite store opened", "path", cfg.SQLitePath)
		return repo, func() { _ = repo.Close() }, nil
	case config.DriverMemory:
		logger.Warn("using in-memory store; releases are lost on exit")
		return catalog.NewMemoryRepo(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", config.RedactDSN(dsn), err)
	}
	return pool, nil
}

func newStatusRouter(status *ingest.StatusTracker, repo catalog.Repository, logger *slog.Logger) http.Handler {
	ingestHandler := ingest.NewHTTPHandler(status, repo)
	catalogHandler := catalog.NewHTTPHandler(catalog.NewService(repo))

	router := http.NewServeMux()
	router.HandleFunc("GET /healthz", ingestHandler.Healthz)
	router.HandleFunc("GET /readyz", ingestHandler.Readyz)
	router.HandleFunc("GET /status", ingestHandler.Status)
	router.HandleFunc("GET /releases/count", catalogHandler.Count)
	router.HandleFunc("GET /releases/{spotify_id}", catalogHandler.GetBySpotifyID)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.RecoveryMiddleware(logger),
		httpx.AccessLogMiddleware(logger),
	)
}
