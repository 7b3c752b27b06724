package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"releaseingest/internal/platform/clock"
	"releaseingest/internal/platform/spotify"
)

const DefaultBasePacingDelay = 600 * time.Millisecond

// CatalogClient is the best-effort upstream surface the pipeline drives.
type CatalogClient interface {
	ResolveArtist(ctx context.Context, name string) (spotify.Artist, bool)
	ArtistAlbums(ctx context.Context, artistID string) []spotify.Album
	SearchAlbums(ctx context.Context, query string) []spotify.Album
}

// BatchRunner processes work items strictly one after another, pausing a
// fixed delay after each item whatever its outcome.
type BatchRunner struct {
	client   CatalogClient
	importer *Importer
	pacing   time.Duration
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewBatchRunner(client CatalogClient, importer *Importer, pacing time.Duration, logger *slog.Logger) *BatchRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchRunner{
		client:   client,
		importer: importer,
		pacing:   pacing,
		logger:   logger,
		sleep:    clock.Sleep,
	}
}

// RunBatch returns the number of releases imported. The only error it
// returns is the context's, when processing stops early.
func (b *BatchRunner) RunBatch(ctx context.Context, items []WorkItem) (int, error) {
	imported := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return imported, err
		}

		n, err := b.runItem(ctx, item)
		imported += n
		if err != nil && ctx.Err() == nil {
			b.logger.Error("work item failed", "item", item.String(), "imported", n, "error", err)
		}

		if err := b.sleep(ctx, b.pacing); err != nil {
			return imported, err
		}
	}
	return imported, nil
}

func (b *BatchRunner) runItem(ctx context.Context, item WorkItem) (imported int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	var albums []spotify.Album
	switch item.Kind {
	case KindNamedEntity:
		artist, ok := b.client.ResolveArtist(ctx, item.Value)
		if !ok {
			b.logger.Debug("no artist match", "item", item.String())
			return 0, nil
		}
		albums = b.client.ArtistAlbums(ctx, artist.ID)
	case KindFreeTextQuery:
		albums = b.client.SearchAlbums(ctx, item.Value)
	default:
		return 0, fmt.Errorf("unknown work item kind %v", item.Kind)
	}

	for _, album := range albums {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		if b.importer.Import(ctx, album) == OutcomeImported {
			imported++
		}
	}
	return imported, nil
}
