package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avvvet/duel-services/internal/duelsvc/apperr"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
)

type UserService struct {
	store store.Store
	clock clockwork.Clock
}

func NewUserService(s store.Store, clock clockwork.Clock) *UserService {
	return &UserService{store: s, clock: clock}
}

// RegisterPlayer creates the user with zeroed stats and portfolio.
func (s *UserService) RegisterPlayer(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return nil, apperr.Validation("username must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}

	u := &models.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: s.clock.Now(),
	}
	u.UpdatedAt = u.CreatedAt

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Newf(apperr.CodeUsernameTaken, "username %s is already taken", username)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Infof("player registered %s (%s)", u.Username, u.ID)
	return u, nil
}

// Resolve maps an authenticated username to its user record.
func (s *UserService) Resolve(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, apperr.Validation("username is required")
	}
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, userErr(err)
	}
	return u, nil
}

func (s *UserService) Profile(ctx context.Context, username string) (*models.PlayerProfile, error) {
	u, err := s.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetPortfolio(ctx, u.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ErrPlayerNotRanked
		}
		return nil, fmt.Errorf("get portfolio: %w", err)
	}

	return &models.PlayerProfile{
		Username:       u.Username,
		Wins:           u.Wins,
		Losses:         u.Losses,
		TotalStakeWon:  p.TotalStakeWon,
		TotalStakeLost: p.TotalStakeLost,
		WinPercentage:  models.WinPercentage(u.Wins, u.Losses),
	}, nil
}
