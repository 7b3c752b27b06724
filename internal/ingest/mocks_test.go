package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"releaseingest/internal/catalog"
	"releaseingest/internal/platform/spotify"
	"releaseingest/internal/testutil"
)

type mockCatalogClient struct {
	mock.Mock
}

func (m *mockCatalogClient) ResolveArtist(ctx context.Context, name string) (spotify.Artist, bool) {
	args := m.Called(ctx, name)
	return args.Get(0).(spotify.Artist), args.Bool(1)
}

func (m *mockCatalogClient) ArtistAlbums(ctx context.Context, artistID string) []spotify.Album {
	args := m.Called(ctx, artistID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]spotify.Album)
}

func (m *mockCatalogClient) SearchAlbums(ctx context.Context, query string) []spotify.Album {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]spotify.Album)
}

type mockCredentials struct {
	mock.Mock
}

func (m *mockCredentials) Obtain(ctx context.Context) (*oauth2.Token, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth2.Token), args.Error(1)
}

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockCatalogRepo) FindBySpotifyID(ctx context.Context, spotifyID string) (*catalog.Release, error) {
	args := m.Called(ctx, spotifyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Release), args.Error(1)
}

func (m *mockCatalogRepo) Create(ctx context.Context, r *catalog.Release) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func (s *sleepRecorder) count(d time.Duration) int {
	n := 0
	for _, w := range s.waits {
		if w == d {
			n++
		}
	}
	return n
}

func discardLogger() *slog.Logger {
	return testutil.DiscardLogger()
}

func validToken() *oauth2.Token {
	return &oauth2.Token{AccessToken: "tok", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
}

func album(id, albumType string, tracks int) spotify.Album {
	a := spotify.Album{
		ID:                   id,
		Name:                 "Album " + id,
		AlbumType:            albumType,
		TotalTracks:          tracks,
		ReleaseDate:          "2020-02-14",
		ReleaseDatePrecision: "day",
		Artists:              []spotify.Artist{{ID: "artist-1", Name: "Artist One"}},
	}
	a.ExternalURLs.Spotify = "https://open.spotify.com/album/" + id
	return a
}
