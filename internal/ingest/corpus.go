package ingest

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
)

//go:embed corpus/artists.txt
var defaultArtists string

//go:embed corpus/queries.txt
var defaultQueries string

type Kind int

const (
	KindNamedEntity Kind = iota
	KindFreeTextQuery
)

func (k Kind) String() string {
	switch k {
	case KindNamedEntity:
		return "artist"
	case KindFreeTextQuery:
		return "query"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// WorkItem is one unit of discovery work: an artist name to resolve or a
// free-text album search to run directly.
type WorkItem struct {
	Kind  Kind
	Value string
}

func NamedEntity(name string) WorkItem   { return WorkItem{Kind: KindNamedEntity, Value: name} }
func FreeTextQuery(text string) WorkItem { return WorkItem{Kind: KindFreeTextQuery, Value: text} }

func (w WorkItem) String() string {
	return w.Kind.String() + ":" + w.Value
}

// CorpusState holds both work corpora in their current order. It is a value:
// Shuffled returns a reordered copy and leaves the receiver untouched.
type CorpusState struct {
	Entities []string
	Queries  []string
}

func (c CorpusState) Shuffled(rng *rand.Rand) CorpusState {
	out := CorpusState{
		Entities: append([]string(nil), c.Entities...),
		Queries:  append([]string(nil), c.Queries...),
	}
	rng.Shuffle(len(out.Entities), func(i, j int) { out.Entities[i], out.Entities[j] = out.Entities[j], out.Entities[i] })
	rng.Shuffle(len(out.Queries), func(i, j int) { out.Queries[i], out.Queries[j] = out.Queries[j], out.Queries[i] })
	return out
}

func (c CorpusState) EntityItems() []WorkItem {
	items := make([]WorkItem, len(c.Entities))
	for i, name := range c.Entities {
		items[i] = NamedEntity(name)
	}
	return items
}

func (c CorpusState) QueryItems() []WorkItem {
	items := make([]WorkItem, len(c.Queries))
	for i, q := range c.Queries {
		items[i] = FreeTextQuery(q)
	}
	return items
}

func (c CorpusState) Size() int {
	return len(c.Entities) + len(c.Queries)
}

// Batches splits items into consecutive slices of at most size elements.
func Batches(items []WorkItem, size int) [][]WorkItem {
	if size <= 0 {
		size = len(items)
	}
	var out [][]WorkItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// LoadCorpus reads the artist and query lists. An empty path selects the
// built-in list.
func LoadCorpus(artistsPath, queriesPath string) (CorpusState, error) {
	entities, err := loadList(artistsPath, defaultArtists)
	if err != nil {
		return CorpusState{}, fmt.Errorf("load artists corpus: %w", err)
	}
	queries, err := loadList(queriesPath, defaultQueries)
	if err != nil {
		return CorpusState{}, fmt.Errorf("load queries corpus: %w", err)
	}
	return CorpusState{Entities: entities, Queries: queries}, nil
}

func loadList(path, fallback string) ([]string, error) {
	if path == "" {
		return parseList(strings.NewReader(fallback))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseList(f)
}

// parseList returns trimmed, de-duplicated lines, skipping blanks and # comments.
func parseList(r io.Reader) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return out, sc.Err()
}
