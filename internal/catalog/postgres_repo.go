package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM catalog_releases").Scan(&count)
	return count, err
}

func (r *PostgresRepo) FindBySpotifyID(ctx context.Context, spotifyID string) (*Release, error) {
	const query = `
		SELECT spotify_id, title, artist_name, artist_spotify_id,
			COALESCE(image_large, ''), COALESCE(image_medium, ''), COALESCE(image_small, ''),
			release_date, genres, total_tracks, spotify_url, created_at
		FROM catalog_releases
		WHERE spotify_id = $1`

	var rel Release
	err := r.db.QueryRow(ctx, query, spotifyID).Scan(
		&rel.SpotifyID, &rel.Title, &rel.ArtistName, &rel.ArtistSpotifyID,
		&rel.ImageLarge, &rel.ImageMedium, &rel.ImageSmall,
		&rel.ReleaseDate, &rel.Genres, &rel.TotalTracks, &rel.SpotifyURL, &rel.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find release %s: %w", spotifyID, err)
	}
	return &rel, nil
}

// Create inserts rel. The unique constraint on spotify_id backs up the
// caller's existence check when several writers race.
func (r *PostgresRepo) Create(ctx context.Context, rel *Release) error {
	const query = `
		INSERT INTO catalog_releases (
			spotify_id, title, artist_name, artist_spotify_id,
			image_large, image_medium, image_small,
			release_date, genres, total_tracks, spotify_url, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11, now())
		ON CONFLICT (spotify_id) DO NOTHING
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		rel.SpotifyID, rel.Title, rel.ArtistName, rel.ArtistSpotifyID,
		rel.ImageLarge, rel.ImageMedium, rel.ImageSmall,
		rel.ReleaseDate, genresOrEmpty(rel.Genres), rel.TotalTracks, rel.SpotifyURL,
	).Scan(&rel.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert release %s: %w", rel.SpotifyID, err)
	}
	return nil
}
