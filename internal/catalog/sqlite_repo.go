package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS catalog_releases (
	spotify_id        TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	artist_name       TEXT NOT NULL,
	artist_spotify_id TEXT NOT NULL,
	image_large       TEXT,
	image_medium      TEXT,
	image_small       TEXT,
	release_date      TEXT NOT NULL,
	genres            TEXT NOT NULL DEFAULT '[]',
	total_tracks      INTEGER NOT NULL DEFAULT 0,
	spotify_url       TEXT NOT NULL,
	created_at        TEXT NOT NULL
)`

const sqliteDateLayout = "2006-01-02"

// SQLiteRepo stores releases in a single SQLite file for single-host deployments.
type SQLiteRepo struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteRepo, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog_releases").Scan(&count)
	return count, err
}

func (r *SQLiteRepo) FindBySpotifyID(ctx context.Context, spotifyID string) (*Release, error) {
	const query = `
		SELECT spotify_id, title, artist_name, artist_spotify_id,
			COALESCE(image_large, ''), COALESCE(image_medium, ''), COALESCE(image_small, ''),
			release_date, genres, total_tracks, spotify_url, created_at
		FROM catalog_releases
		WHERE spotify_id = ?`

	var rel Release
	var releaseDate, genres, createdAt string
	err := r.db.QueryRowContext(ctx, query, spotifyID).Scan(
		&rel.SpotifyID, &rel.Title, &rel.ArtistName, &rel.ArtistSpotifyID,
		&rel.ImageLarge, &rel.ImageMedium, &rel.ImageSmall,
		&releaseDate, &genres, &rel.TotalTracks, &rel.SpotifyURL, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find release %s: %w", spotifyID, err)
	}

	if rel.ReleaseDate, err = time.Parse(sqliteDateLayout, releaseDate); err != nil {
		return nil, fmt.Errorf("parse release_date for %s: %w", spotifyID, err)
	}
	if rel.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", spotifyID, err)
	}
	if err := json.Unmarshal([]byte(genres), &rel.Genres); err != nil {
		return nil, fmt.Errorf("decode genres for %s: %w", spotifyID, err)
	}
	return &rel, nil
}

func (r *SQLiteRepo) Create(ctx context.Context, rel *Release) error {
	const query = `
		INSERT INTO catalog_releases (
			spotify_id, title, artist_name, artist_spotify_id,
			image_large, image_medium, image_small,
			release_date, genres, total_tracks, spotify_url, created_at)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?, ?)
		ON CONFLICT (spotify_id) DO NOTHING`

	genres, err := json.Marshal(genresOrEmpty(rel.Genres))
	if err != nil {
		return fmt.Errorf("encode genres: %w", err)
	}
	createdAt := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, query,
		rel.SpotifyID, rel.Title, rel.ArtistName, rel.ArtistSpotifyID,
		rel.ImageLarge, rel.ImageMedium, rel.ImageSmall,
		rel.ReleaseDate.Format(sqliteDateLayout), string(genres), rel.TotalTracks, rel.SpotifyURL,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert release %s: %w", rel.SpotifyID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert release %s: %w", rel.SpotifyID, err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	rel.CreatedAt = createdAt
	return nil
}
