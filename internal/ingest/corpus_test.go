package ingest

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseList(t *testing.T) {
	in := `
# comment
Radiohead
  Björk  

Radiohead
#also a comment
year:1997 genre:rock
`
	got, err := parseList(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Radiohead", "Björk", "year:1997 genre:rock"}, got)
}

func TestLoadCorpus_Defaults(t *testing.T) {
	c, err := LoadCorpus("", "")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Entities)
	assert.NotEmpty(t, c.Queries)
	assert.Contains(t, c.Entities, "Radiohead")
	for _, e := range c.Entities {
		assert.False(t, strings.HasPrefix(e, "#"))
	}
}

func TestLoadCorpus_FromFiles(t *testing.T) {
	dir := t.TempDir()
	artists := filepath.Join(dir, "artists.txt")
	queries := filepath.Join(dir, "queries.txt")
	require.NoError(t, os.WriteFile(artists, []byte("Portishead\nMassive Attack\n"), 0o644))
	require.NoError(t, os.WriteFile(queries, []byte("trip hop\n"), 0o644))

	c, err := LoadCorpus(artists, queries)
	require.NoError(t, err)
	assert.Equal(t, []string{"Portishead", "Massive Attack"}, c.Entities)
	assert.Equal(t, []string{"trip hop"}, c.Queries)
	assert.Equal(t, 3, c.Size())

	_, err = LoadCorpus(filepath.Join(dir, "missing.txt"), "")
	assert.ErrorContains(t, err, "load artists corpus")
}

func TestCorpusState_ShuffledIsACopy(t *testing.T) {
	c := CorpusState{
		Entities: []string{"a", "b", "c", "d", "e", "f"},
		Queries:  []string{"q1", "q2", "q3"},
	}
	shuffled := c.Shuffled(rand.New(rand.NewSource(42)))

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, c.Entities)
	assert.ElementsMatch(t, c.Entities, shuffled.Entities)
	assert.ElementsMatch(t, c.Queries, shuffled.Queries)

	shuffled.Entities[0] = "mutated"
	assert.NotContains(t, c.Entities, "mutated")

	empty := CorpusState{}.Shuffled(rand.New(rand.NewSource(1)))
	assert.Zero(t, empty.Size())
}

func TestCorpusState_Items(t *testing.T) {
	c := CorpusState{Entities: []string{"Radiohead"}, Queries: []string{"shoegaze"}}

	assert.Equal(t, []WorkItem{NamedEntity("Radiohead")}, c.EntityItems())
	assert.Equal(t, []WorkItem{FreeTextQuery("shoegaze")}, c.QueryItems())
	assert.Equal(t, "artist:Radiohead", c.EntityItems()[0].String())
	assert.Equal(t, "query:shoegaze", c.QueryItems()[0].String())
}

func TestBatches(t *testing.T) {
	items := []WorkItem{
		FreeTextQuery("1"), FreeTextQuery("2"), FreeTextQuery("3"),
		FreeTextQuery("4"), FreeTextQuery("5"),
	}

	batches := Batches(items, 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Equal(t, []WorkItem{FreeTextQuery("5")}, batches[2])

	assert.Len(t, Batches(items, 10), 1)
	assert.Len(t, Batches(items, 0), 1)
	assert.Empty(t, Batches(nil, 3))
}
