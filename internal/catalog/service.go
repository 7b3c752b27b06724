package catalog

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) GetBySpotifyID(ctx context.Context, spotifyID string) (Release, error) {
	r, err := s.repo.FindBySpotifyID(ctx, spotifyID)
	if err != nil {
		return Release{}, err
	}
	if r == nil {
		return Release{}, fmt.Errorf("%w: %s", ErrNotFound, spotifyID)
	}
	return *r, nil
}
