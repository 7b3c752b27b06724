package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"releaseingest/internal/catalog"
	"releaseingest/internal/platform/spotify"
)

func newTestRunner(client CatalogClient) (*BatchRunner, *catalog.MemoryRepo, *sleepRecorder) {
	repo := catalog.NewMemoryRepo()
	rec := &sleepRecorder{}
	runner := NewBatchRunner(client, NewImporter(repo, DefaultMinTracks, discardLogger()), DefaultBasePacingDelay, discardLogger())
	runner.sleep = rec.sleep
	return runner, repo, rec
}

func TestBatchRunner_ArtistAndQueryItems(t *testing.T) {
	ctx := context.Background()
	client := new(mockCatalogClient)
	client.On("ResolveArtist", ctx, "Radiohead").Return(spotify.Artist{ID: "rh", Name: "Radiohead"}, true)
	client.On("ArtistAlbums", ctx, "rh").Return([]spotify.Album{
		album("okc", spotify.AlbumTypeAlbum, 12),
		album("single", spotify.AlbumTypeSingle, 2),
	})
	client.On("SearchAlbums", ctx, "shoegaze").Return([]spotify.Album{
		album("loveless", spotify.AlbumTypeAlbum, 11),
		album("hits", spotify.AlbumTypeCompilation, 18),
	})

	runner, repo, rec := newTestRunner(client)
	n, err := runner.RunBatch(ctx, []WorkItem{NamedEntity("Radiohead"), FreeTextQuery("shoegaze")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, rec.count(DefaultBasePacingDelay))
	client.AssertExpectations(t)
}

func TestBatchRunner_UnresolvedArtistSkipsListing(t *testing.T) {
	ctx := context.Background()
	client := new(mockCatalogClient)
	client.On("ResolveArtist", ctx, "Nobody At All").Return(spotify.Artist{}, false)

	runner, _, rec := newTestRunner(client)
	n, err := runner.RunBatch(ctx, []WorkItem{NamedEntity("Nobody At All")})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	client.AssertNotCalled(t, "ArtistAlbums", mock.Anything, mock.Anything)
	assert.Equal(t, 1, rec.count(DefaultBasePacingDelay))
}

func TestBatchRunner_ItemFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	client := new(mockCatalogClient)
	client.On("SearchAlbums", ctx, "first").Return([]spotify.Album{album("a1", spotify.AlbumTypeAlbum, 9)})
	client.On("SearchAlbums", ctx, "second").Panic("decoder blew up")
	client.On("SearchAlbums", ctx, "third").Return([]spotify.Album{album("a3", spotify.AlbumTypeAlbum, 9)})

	runner, repo, rec := newTestRunner(client)
	n, err := runner.RunBatch(ctx, []WorkItem{
		FreeTextQuery("first"),
		FreeTextQuery("second"),
		FreeTextQuery("third"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// pacing applies after the failed item too
	assert.Equal(t, 3, rec.count(DefaultBasePacingDelay))
	client.AssertNumberOfCalls(t, "SearchAlbums", 3)
}

func TestBatchRunner_EmptyResultsStillPaced(t *testing.T) {
	ctx := context.Background()
	client := new(mockCatalogClient)
	client.On("SearchAlbums", ctx, mock.Anything).Return(nil)

	runner, _, rec := newTestRunner(client)
	n, err := runner.RunBatch(ctx, []WorkItem{FreeTextQuery("a"), FreeTextQuery("b"), FreeTextQuery("c"), FreeTextQuery("d")})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, rec.waits, 4)
	for _, w := range rec.waits {
		assert.Equal(t, DefaultBasePacingDelay, w)
	}
}

func TestBatchRunner_DuplicatesWithinBatch(t *testing.T) {
	ctx := context.Background()
	shared := album("shared", spotify.AlbumTypeAlbum, 10)
	client := new(mockCatalogClient)
	client.On("SearchAlbums", ctx, "one").Return([]spotify.Album{shared})
	client.On("SearchAlbums", ctx, "two").Return([]spotify.Album{shared})

	runner, repo, _ := newTestRunner(client)
	n, err := runner.RunBatch(ctx, []WorkItem{FreeTextQuery("one"), FreeTextQuery("two")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBatchRunner_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := new(mockCatalogClient)
	client.On("SearchAlbums", mock.Anything, "first").Return([]spotify.Album{album("a1", spotify.AlbumTypeAlbum, 9)}).
		Run(func(mock.Arguments) { cancel() })

	runner, repo, _ := newTestRunner(client)
	n, err := runner.RunBatch(ctx, []WorkItem{FreeTextQuery("first"), FreeTextQuery("second")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	client.AssertNotCalled(t, "SearchAlbums", mock.Anything, "second")
}

func TestBatchRunner_EmptyBatch(t *testing.T) {
	runner, _, rec := newTestRunner(new(mockCatalogClient))
	n, err := runner.RunBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, rec.waits)
}

type fixedBearer string

func (b fixedBearer) Bearer() string { return string(b) }

func TestBatchRunner_NullUpstreamItemsNeverPersisted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"albums":{"items":[null,{"id":"a1","name":"Loveless","album_type":"album","total_tracks":11,
			"release_date":"1991-11-04","release_date_precision":"day","artists":[{"id":"mbv","name":"My Bloody Valentine"}]}]}}`))
	}))
	defer srv.Close()

	exec := spotify.NewExecutor(srv.Client(), spotify.ExecutorConfig{}, discardLogger())
	client := spotify.NewClient(exec, fixedBearer("Bearer tok"), spotify.ClientConfig{BaseURL: srv.URL}, discardLogger())
	runner, repo, _ := newTestRunner(client)

	n, err := runner.RunBatch(context.Background(), []WorkItem{FreeTextQuery("shoegaze")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rel, err := repo.FindBySpotifyID(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, rel)
}
