package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/repository"
	"github.com/pharmintel/pharmintel/internal/server"
)

// WatchlistService manages user watchlists. Every operation is scoped to
// the calling user; the repositories enforce ownership in SQL.
type WatchlistService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewWatchlistService(s *server.Server, repos *repository.Repositories) *WatchlistService {
	return &WatchlistService{
		server: s,
		repos:  repos,
	}
}

func (s *WatchlistService) Create(ctx context.Context, userID, name string) (*model.Watchlist, error) {
	return s.repos.Watchlists.Create(ctx, userID, name)
}

func (s *WatchlistService) List(ctx context.Context, userID string) ([]model.Watchlist, error) {
	return s.repos.Watchlists.ListByUser(ctx, userID)
}

func (s *WatchlistService) Get(ctx context.Context, userID string, id uuid.UUID) (*model.Watchlist, error) {
	return s.repos.Watchlists.Get(ctx, userID, id)
}

func (s *WatchlistService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return s.repos.Watchlists.Delete(ctx, userID, id)
}

// AddDrug puts a drug on a watchlist. The drug is loaded first so an
// unknown drug ID surfaces as a drug 404, not a foreign-key violation.
func (s *WatchlistService) AddDrug(ctx context.Context, userID string, watchlistID uuid.UUID, drugID int64) (*model.Watchlist, error) {
	if _, err := s.repos.Drugs.GetByID(ctx, drugID); err != nil {
		return nil, err
	}
	if err := s.repos.Watchlists.AddItem(ctx, userID, watchlistID, drugID); err != nil {
		return nil, err
	}
	return s.repos.Watchlists.Get(ctx, userID, watchlistID)
}

// RemoveDrug takes a drug off a watchlist.
func (s *WatchlistService) RemoveDrug(ctx context.Context, userID string, watchlistID uuid.UUID, drugID int64) error {
	return s.repos.Watchlists.RemoveItem(ctx, userID, watchlistID, drugID)
}
