package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"releaseingest/internal/catalog"
	"releaseingest/internal/platform/spotify"
)

const DefaultMinTracks = 4

type Outcome int

const (
	OutcomeImported Outcome = iota
	OutcomeShortForm
	OutcomeCompilation
	OutcomeExists
	OutcomeStorageError
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeImported:
		return "imported"
	case OutcomeShortForm:
		return "skipped_short_form"
	case OutcomeCompilation:
		return "skipped_compilation"
	case OutcomeExists:
		return "skipped_exists"
	case OutcomeStorageError:
		return "skipped_storage_error"
	case OutcomeInvalid:
		return "skipped_invalid"
	default:
		return "unknown"
	}
}

// Importer applies the inclusion policy to a candidate album and persists it
// when it is new. It never returns an error; failures become skips.
type Importer struct {
	repo      catalog.Repository
	minTracks int
	logger    *slog.Logger
	now       func() time.Time
}

func NewImporter(repo catalog.Repository, minTracks int, logger *slog.Logger) *Importer {
	if minTracks <= 0 {
		minTracks = DefaultMinTracks
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		repo:      repo,
		minTracks: minTracks,
		logger:    logger,
		now:       time.Now,
	}
}

func (im *Importer) Import(ctx context.Context, album spotify.Album) Outcome {
	if strings.TrimSpace(album.ID) == "" {
		im.logger.Warn("candidate without spotify id dropped", "title", album.Name)
		return OutcomeInvalid
	}
	if album.AlbumType == spotify.AlbumTypeSingle && album.TotalTracks < im.minTracks {
		return OutcomeShortForm
	}
	if album.AlbumType == spotify.AlbumTypeCompilation || album.AlbumGroup == spotify.AlbumTypeCompilation {
		return OutcomeCompilation
	}

	existing, err := im.repo.FindBySpotifyID(ctx, album.ID)
	if err != nil {
		im.logger.Error("existence check failed", "album_id", album.ID, "error", err)
		return OutcomeStorageError
	}
	if existing != nil {
		return OutcomeExists
	}

	rel := im.toRelease(album)
	if err := im.repo.Create(ctx, rel); err != nil {
		if errors.Is(err, catalog.ErrAlreadyExists) {
			return OutcomeExists
		}
		im.logger.Error("persist release failed", "album_id", album.ID, "error", err)
		return OutcomeStorageError
	}

	im.logger.Debug("release imported", "album_id", album.ID, "title", rel.Title, "artist", rel.ArtistName)
	return OutcomeImported
}

func (im *Importer) toRelease(a spotify.Album) *catalog.Release {
	large, medium, small := deriveImages(a.Images)

	names := make([]string, 0, len(a.Artists))
	for _, artist := range a.Artists {
		names = append(names, artist.Name)
	}
	var artistID string
	if len(a.Artists) > 0 {
		artistID = a.Artists[0].ID
	}

	spotifyURL := a.ExternalURLs.Spotify
	if spotifyURL == "" {
		spotifyURL = "https://open.spotify.com/album/" + a.ID
	}

	return &catalog.Release{
		SpotifyID:       a.ID,
		Title:           a.Name,
		ArtistName:      strings.Join(names, ", "),
		ArtistSpotifyID: artistID,
		ImageLarge:      large,
		ImageMedium:     medium,
		ImageSmall:      small,
		ReleaseDate:     parseReleaseDate(a.ReleaseDate, a.ReleaseDatePrecision, im.now),
		Genres:          []string{},
		TotalTracks:     a.TotalTracks,
		SpotifyURL:      spotifyURL,
	}
}

// deriveImages orders images by width, widest first, and maps positions
// 0, 1 and 2 to large, medium and small. Missing positions stay empty.
func deriveImages(images []spotify.Image) (large, medium, small string) {
	sorted := append([]spotify.Image(nil), images...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Width > sorted[j].Width })

	urls := make([]string, 3)
	for i := 0; i < len(sorted) && i < 3; i++ {
		urls[i] = sorted[i].URL
	}
	return urls[0], urls[1], urls[2]
}

var releaseDateLayouts = map[string]string{
	"day":   "2006-01-02",
	"month": "2006-01",
	"year":  "2006",
}

// parseReleaseDate honors the declared precision and falls back to trying
// every layout. Absent or unparsable values become now.
func parseReleaseDate(value, precision string, now func() time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value != "" {
		if layout, ok := releaseDateLayouts[precision]; ok {
			if t, err := time.Parse(layout, value); err == nil {
				return t
			}
		}
		for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
			if t, err := time.Parse(layout, value); err == nil {
				return t
			}
		}
	}
	return now().UTC()
}
