package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"releaseingest/internal/catalog"
	"releaseingest/internal/platform/clock"
	"releaseingest/internal/platform/spotify"
)

const (
	DefaultBatchSize              = 10
	DefaultBatchCooldown          = 30 * time.Second
	DefaultCycleCooldown          = 5 * time.Minute
	DefaultCredentialRefreshEvery = 100
	DefaultMaxAuthFailures        = 3
)

// CredentialSource performs one credential exchange per call.
type CredentialSource interface {
	Obtain(ctx context.Context) (*oauth2.Token, error)
}

type Config struct {
	BatchSize              int
	BatchCooldown          time.Duration
	CycleCooldown          time.Duration
	CredentialRefreshEvery int // items processed between credential refreshes; 0 disables
	MaxAuthFailures        int // consecutive failed cycles before Run gives up; 0 never gives up
}

// CycleStats are the in-memory counters reported at the end of each cycle.
type CycleStats struct {
	ID             string     `json:"id"`
	Sequence       int        `json:"sequence"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	CountAtStart   int        `json:"count_at_start"`
	CountAtEnd     int        `json:"count_at_end"`
	Imported       int        `json:"imported"`
	Cumulative     int        `json:"cumulative"`
	ItemsProcessed int        `json:"items_processed"`
	BatchesRun     int        `json:"batches_run"`
	Error          string     `json:"error,omitempty"`
}

// Controller owns the corpus and drives cycles of batches forever.
type Controller struct {
	cfg     Config
	corpus  CorpusState
	runner  *BatchRunner
	repo    catalog.Repository
	creds   CredentialSource
	status  *StatusTracker
	logger  *slog.Logger
	rng     *rand.Rand
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
	cycles  int
	imports int
}

func NewController(cfg Config, corpus CorpusState, runner *BatchRunner, repo catalog.Repository, creds CredentialSource, status *StatusTracker, logger *slog.Logger) *Controller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	if status == nil {
		status = NewStatusTracker()
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Controller{
		cfg:    cfg,
		corpus: corpus.Shuffled(rng),
		runner: runner,
		repo:   repo,
		creds:  creds,
		status: status,
		logger: logger,
		rng:    rng,
		sleep:  clock.Sleep,
		now:    time.Now,
	}
}

// Run repeats cycles until ctx is cancelled. A cycle that fails to obtain a
// credential is skipped; after MaxAuthFailures such cycles in a row Run
// returns the credential error.
func (c *Controller) Run(ctx context.Context) error {
	authFailures := 0
	for {
		stats, err := c.RunCycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, spotify.ErrAuthFailure) {
				authFailures++
				c.logger.Error("cycle aborted: credential failure",
					"cycle", stats.Sequence, "consecutive", authFailures, "error", err)
				if c.cfg.MaxAuthFailures > 0 && authFailures >= c.cfg.MaxAuthFailures {
					return fmt.Errorf("giving up after %d consecutive credential failures: %w", authFailures, err)
				}
			} else {
				c.logger.Error("cycle aborted", "cycle", stats.Sequence, "error", err)
			}
		} else {
			authFailures = 0
		}

		c.logger.Info("cycle cooldown", "wait", c.cfg.CycleCooldown)
		if err := c.sleep(ctx, c.cfg.CycleCooldown); err != nil {
			return err
		}
		c.corpus = c.corpus.Shuffled(c.rng)
	}
}

// RunCycle makes one pass over every artist and then every query.
func (c *Controller) RunCycle(ctx context.Context) (stats CycleStats, err error) {
	c.cycles++
	stats = CycleStats{
		ID:        uuid.NewString(),
		Sequence:  c.cycles,
		StartedAt: c.now(),
	}
	c.status.Begin(stats)
	defer func() {
		finished := c.now()
		stats.FinishedAt = &finished
		stats.Cumulative = c.imports
		if err != nil {
			stats.Error = err.Error()
		}
		c.status.Finish(stats)
	}()

	if stats.CountAtStart, err = c.repo.Count(ctx); err != nil {
		return stats, fmt.Errorf("count releases: %w", err)
	}

	c.logger.Info("cycle started",
		"cycle", stats.Sequence,
		"cycle_id", stats.ID,
		"artists", len(c.corpus.Entities),
		"queries", len(c.corpus.Queries),
		"releases", stats.CountAtStart,
	)

	if _, err = c.creds.Obtain(ctx); err != nil {
		return stats, err
	}

	sinceRefresh := 0
	for _, items := range [][]WorkItem{c.corpus.EntityItems(), c.corpus.QueryItems()} {
		for _, batch := range Batches(items, c.cfg.BatchSize) {
			n, runErr := c.runner.RunBatch(ctx, batch)
			stats.Imported += n
			c.imports += n
			stats.ItemsProcessed += len(batch)
			stats.BatchesRun++
			if runErr != nil {
				return stats, runErr
			}

			if n > 0 {
				c.logger.Info("batch complete", "cycle", stats.Sequence, "batch", stats.BatchesRun, "imported", n)
			} else {
				c.logger.Debug("batch complete", "cycle", stats.Sequence, "batch", stats.BatchesRun)
			}

			sinceRefresh += len(batch)
			if c.cfg.CredentialRefreshEvery > 0 && sinceRefresh >= c.cfg.CredentialRefreshEvery {
				if _, err = c.creds.Obtain(ctx); err != nil {
					return stats, err
				}
				c.logger.Debug("credential refreshed", "cycle", stats.Sequence, "items", stats.ItemsProcessed)
				sinceRefresh = 0
			}

			stats.Cumulative = c.imports
			c.status.Progress(stats)

			if err = c.sleep(ctx, c.cfg.BatchCooldown); err != nil {
				return stats, err
			}
		}
	}

	if stats.CountAtEnd, err = c.repo.Count(ctx); err != nil {
		return stats, fmt.Errorf("count releases: %w", err)
	}

	c.logger.Info("cycle finished",
		"cycle", stats.Sequence,
		"cycle_id", stats.ID,
		"imported", stats.Imported,
		"delta", stats.CountAtEnd-stats.CountAtStart,
		"cumulative", c.imports,
		"releases", stats.CountAtEnd,
		"duration", c.now().Sub(stats.StartedAt).Round(time.Second),
	)
	return stats, nil
}

// Corpus returns the current ordering.
func (c *Controller) Corpus() CorpusState {
	return c.corpus
}
