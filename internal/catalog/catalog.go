package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyExists is returned by Create when the unique SpotifyID is taken.
	ErrAlreadyExists = errors.New("catalog: release already exists")
	ErrNotFound      = errors.New("catalog: release not found")
)

// Release is the durable catalog row. SpotifyID is the unique key.
type Release struct {
	SpotifyID       string    `json:"spotify_id"`
	Title           string    `json:"title"`
	ArtistName      string    `json:"artist_name"`
	ArtistSpotifyID string    `json:"artist_spotify_id"`
	ImageLarge      string    `json:"image_large,omitempty"`
	ImageMedium     string    `json:"image_medium,omitempty"`
	ImageSmall      string    `json:"image_small,omitempty"`
	ReleaseDate     time.Time `json:"release_date"`
	Genres          []string  `json:"genres"`
	TotalTracks     int       `json:"total_tracks"`
	SpotifyURL      string    `json:"spotify_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// Repository is the storage boundary used by the ingestion pipeline.
// FindBySpotifyID returns (nil, nil) when no row exists.
type Repository interface {
	Count(ctx context.Context) (int, error)
	FindBySpotifyID(ctx context.Context, spotifyID string) (*Release, error)
	Create(ctx context.Context, r *Release) error
}

func genresOrEmpty(g []string) []string {
	if g == nil {
		return []string{}
	}
	return g
}
