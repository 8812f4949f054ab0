package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/duel-services/internal/duelsvc/apperr"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

const maxLeaderboardLimit = 100

type LeaderboardService struct {
	store store.Store
	clock clockwork.Clock
}

func NewLeaderboardService(s store.Store, clock clockwork.Clock) *LeaderboardService {
	return &LeaderboardService{store: s, clock: clock}
}

// GetLeaderboard pages the board ordered by wins, stake won, then username.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, limit, offset int) ([]*models.LeaderboardEntry, error) {
	if limit < 1 || limit > maxLeaderboardLimit {
		return nil, apperr.Validation("limit must be between 1 and %d", maxLeaderboardLimit)
	}
	if offset < 0 {
		return nil, apperr.Validation("offset must not be negative")
	}

	standings, err := s.store.ListStandings(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}

	entries := make([]*models.LeaderboardEntry, 0, len(standings))
	for i, st := range standings {
		e := &models.LeaderboardEntry{
			Standing:      *st,
			WinPercentage: models.WinPercentage(st.Wins, st.Losses),
		}
		e.Rank = offset + i + 1
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *LeaderboardService) GetPlayerStanding(ctx context.Context, username string) (*models.LeaderboardEntry, error) {
	st, err := s.store.GetStanding(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ErrPlayerNotRanked
		}
		return nil, fmt.Errorf("get standing: %w", err)
	}
	return &models.LeaderboardEntry{
		Standing:      *st,
		WinPercentage: models.WinPercentage(st.Wins, st.Losses),
	}, nil
}

// RefreshRanks stores the current ordering as current_rank, shifting the
// old value into previous_rank.
func (s *LeaderboardService) RefreshRanks(ctx context.Context) (int, error) {
	n, err := s.store.RefreshRanks(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("refresh ranks: %w", err)
	}
	log.Infof("leaderboard ranks refreshed for %d players", n)
	return n, nil
}
