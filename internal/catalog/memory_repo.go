package catalog

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps releases in process memory. Used for dry runs and tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	releases map[string]Release
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{releases: make(map[string]Release)}
}

func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.releases), nil
}

func (r *MemoryRepo) FindBySpotifyID(ctx context.Context, spotifyID string) (*Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rel, ok := r.releases[spotifyID]
	if !ok {
		return nil, nil
	}
	return &rel, nil
}

func (r *MemoryRepo) Create(ctx context.Context, rel *Release) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.releases[rel.SpotifyID]; ok {
		return ErrAlreadyExists
	}
	rel.CreatedAt = time.Now().UTC()
	stored := *rel
	stored.Genres = append([]string{}, genresOrEmpty(rel.Genres)...)
	r.releases[rel.SpotifyID] = stored
	return nil
}
