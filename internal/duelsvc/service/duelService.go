package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/duel-services/internal/comm"
	"github.com/avvvet/duel-services/internal/duelsvc/apperr"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultDuelTTL        = 30 * time.Minute
	MaxDuelTTL            = 7 * 24 * time.Hour
	DefaultSweepBatchSize = 500

	defaultListLimit = 50
	maxListLimit     = 500
)

// DuelService drives the duel state machine. Each transition and its fund
// movement commit in one store transaction.
type DuelService struct {
	store      store.Store
	clock      clockwork.Clock
	events     EventPublisher
	ttl        time.Duration
	sweepBatch int
}

func NewDuelService(s store.Store, clock clockwork.Clock, events EventPublisher, ttl time.Duration, sweepBatch int) *DuelService {
	if events == nil {
		events = nopPublisher{}
	}
	if ttl <= 0 {
		ttl = DefaultDuelTTL
	}
	if sweepBatch <= 0 {
		sweepBatch = DefaultSweepBatchSize
	}
	return &DuelService{
		store:      s,
		clock:      clock,
		events:     events,
		ttl:        ttl,
		sweepBatch: sweepBatch,
	}
}

// CreateDuel opens a duel and locks the creator's stake with it.
func (s *DuelService) CreateDuel(ctx context.Context, req models.CreateDuelRequest) (*models.Duel, error) {
	if req.Username == "" {
		return nil, apperr.Validation("username is required")
	}
	if !req.StakeAmount.IsPositive() {
		return nil, apperr.Newf(apperr.CodeInvalidAmount, "stake amount must be greater than 0")
	}
	token := strings.TrimSpace(req.TokenMint)
	if token == "" {
		return nil, apperr.Validation("token mint is required")
	}
	if req.ExpiresIn < 0 {
		return nil, apperr.Validation("expires in must be greater than 0")
	}
	if req.ExpiresIn > MaxDuelTTL {
		return nil, apperr.Validation("expires in must not exceed %s", MaxDuelTTL)
	}
	ttl := req.ExpiresIn
	if ttl == 0 {
		ttl = s.ttl
	}
	var gameID *string
	if req.GameID != nil && strings.TrimSpace(*req.GameID) != "" {
		g := strings.TrimSpace(*req.GameID)
		gameID = &g
	}

	creator, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, userErr(err)
	}

	now := s.clock.Now()
	duel := &models.Duel{
		ID:              uuid.NewString(),
		Status:          models.StatusOpen,
		Player1ID:       creator.ID,
		Player1Username: creator.Username,
		StakeAmount:     req.StakeAmount,
		TokenMint:       token,
		GameID:          gameID,
		ExpiresAt:       now.Add(ttl),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.store.WithTx(ctx, func(q store.Queries) error {
		if err := q.InsertDuel(ctx, duel); err != nil {
			return fmt.Errorf("insert duel: %w", err)
		}
		_, err := lockStake(ctx, q, creator.ID, token, duel.StakeAmount, &duel.ID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"duel_id": duel.ID,
		"user_id": creator.ID,
		"token":   token,
		"amount":  duel.StakeAmount.String(),
	}).Info("duel created")
	s.emit(comm.EventDuelCreated, duel, creator.Username)
	return duel, nil
}

// JoinDuel takes the open seat and locks the joiner's stake. Of two racing
// joiners exactly one wins; the other sees DUEL_NOT_OPEN.
func (s *DuelService) JoinDuel(ctx context.Context, duelID, username string) (*models.Duel, error) {
	if username == "" {
		return nil, apperr.Validation("username is required")
	}
	joiner, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, userErr(err)
	}
	d, err := s.loadDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	switch {
	case d.Player1ID == joiner.ID:
		return nil, apperr.ErrCannotJoinOwnDuel
	case d.Status != models.StatusOpen || d.Player2ID != nil:
		return nil, apperr.ErrDuelNotOpen
	case !now.Before(d.ExpiresAt):
		return nil, apperr.ErrDuelExpired
	}

	var joined *models.Duel
	err = s.store.WithTx(ctx, func(q store.Queries) error {
		var err error
		joined, err = q.JoinDuel(ctx, duelID, joiner.ID, joiner.Username, now)
		if err != nil {
			if errors.Is(err, store.ErrGuardFailed) {
				return apperr.ErrDuelNotOpen
			}
			return duelErr(err)
		}
		_, err = lockStake(ctx, q, joiner.ID, joined.TokenMint, joined.StakeAmount, &joined.ID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"duel_id": joined.ID,
		"user_id": joiner.ID,
		"token":   joined.TokenMint,
		"amount":  joined.StakeAmount.String(),
	}).Info("duel joined")
	s.emit(comm.EventDuelJoined, joined, joiner.Username)
	return joined, nil
}

// SubmitResult records the caller's claim. When both claims are in, agreeing
// claims settle the duel and differing ones mark it DISPUTED.
func (s *DuelService) SubmitResult(ctx context.Context, duelID, username, claimedWinner string) (*models.SubmitResult, error) {
	if username == "" {
		return nil, apperr.Validation("username is required")
	}
	d, err := s.loadDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}

	slot := d.SlotOf(username)
	switch {
	case slot == models.NoSlot:
		return nil, apperr.ErrNotParticipant
	case !d.IsParticipant(claimedWinner):
		return nil, apperr.Newf(apperr.CodeInvalidClaim, "claimed winner %q is not a participant", claimedWinner)
	case d.Claim(slot) != nil:
		return nil, apperr.ErrAlreadySubmitted
	case d.Status != models.StatusActive:
		return nil, apperr.InvalidTransition(string(d.Status), "submit result for")
	}

	now := s.clock.Now()
	res := &models.SubmitResult{Outcome: models.OutcomePending}
	err = s.store.WithTx(ctx, func(q store.Queries) error {
		claimed, err := q.SubmitClaim(ctx, duelID, slot, claimedWinner, now)
		if err != nil {
			return s.claimRejected(ctx, q, duelID, slot, err)
		}
		res.Duel = claimed

		if !claimed.BothClaimed() {
			return nil
		}

		res.Resolved = true
		if claimed.ClaimsAgree() {
			settled, err := settle(ctx, q, claimed, models.StatusActive, *claimed.Player1SubmittedWinner, now)
			if err != nil {
				return err
			}
			res.Duel = settled
			res.Outcome = models.OutcomeSettled
			return nil
		}

		disputed, err := q.MarkDisputed(ctx, duelID, now)
		if err != nil {
			return fmt.Errorf("mark duel disputed: %w", err)
		}
		res.Duel = disputed
		res.Outcome = models.OutcomeDisputed
		return nil
	})
	if err != nil {
		log.WithFields(log.Fields{"duel_id": duelID, "user": username}).Warnf("submit result failed: %s", err)
		return nil, err
	}

	switch res.Outcome {
	case models.OutcomeSettled:
		s.logSettled(res.Duel)
		s.emit(comm.EventDuelSettled, res.Duel, username)
	case models.OutcomeDisputed:
		log.WithField("duel_id", duelID).Info("duel disputed")
		s.emit(comm.EventDuelDisputed, res.Duel, username)
	default:
		s.emit(comm.EventDuelResultPending, res.Duel, username)
	}
	return res, nil
}

// claimRejected explains a claim write whose guard no longer held.
func (s *DuelService) claimRejected(ctx context.Context, q store.Queries, duelID string, slot models.ClaimSlot, err error) error {
	if !errors.Is(err, store.ErrGuardFailed) {
		return duelErr(err)
	}
	current, err := q.GetDuel(ctx, duelID)
	if err != nil {
		return duelErr(err)
	}
	if current.Claim(slot) != nil {
		return apperr.ErrAlreadySubmitted
	}
	return apperr.InvalidTransition(string(current.Status), "submit result for")
}

// CancelDuel cancels an unjoined duel on behalf of its creator and releases
// the creator's stake.
func (s *DuelService) CancelDuel(ctx context.Context, duelID, username string) (*models.Duel, error) {
	d, err := s.loadDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if username == "" || username != d.Player1Username {
		return nil, apperr.ErrNotCreator
	}
	if d.Status != models.StatusOpen || d.Player2ID != nil {
		return nil, apperr.InvalidTransition(string(d.Status), "cancel")
	}

	now := s.clock.Now()
	var cancelled *models.Duel
	err = s.store.WithTx(ctx, func(q store.Queries) error {
		var err error
		cancelled, err = cancelOpen(ctx, q, duelID, now)
		if err != nil {
			if errors.Is(err, store.ErrGuardFailed) {
				current, gerr := q.GetDuel(ctx, duelID)
				if gerr != nil {
					return duelErr(gerr)
				}
				return apperr.InvalidTransition(string(current.Status), "cancel")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"duel_id": duelID,
		"user_id": cancelled.Player1ID,
		"token":   cancelled.TokenMint,
		"amount":  cancelled.StakeAmount.String(),
	}).Info("duel cancelled")
	s.emit(comm.EventDuelCancelled, cancelled, username)
	return cancelled, nil
}

// cancelOpen moves an unjoined OPEN duel to CANCELLED and releases the
// creator's stake. A guard miss is returned as store.ErrGuardFailed.
func cancelOpen(ctx context.Context, q store.Queries, duelID string, now time.Time) (*models.Duel, error) {
	cancelled, err := q.CancelOpenDuel(ctx, duelID, now)
	if err != nil {
		if errors.Is(err, store.ErrGuardFailed) {
			return nil, err
		}
		return nil, duelErr(err)
	}
	if _, err := releaseStake(ctx, q, cancelled.Player1ID, cancelled.TokenMint, cancelled.StakeAmount, &cancelled.ID, now); err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *DuelService) GetDuel(ctx context.Context, duelID string) (*models.Duel, error) {
	return s.loadDuel(ctx, duelID)
}

// loadDuel reads a duel by id. Ids that are not UUIDs cannot exist and never
// reach the store.
func (s *DuelService) loadDuel(ctx context.Context, duelID string) (*models.Duel, error) {
	if !validID(duelID) {
		return nil, apperr.ErrDuelNotFound
	}
	d, err := s.store.GetDuel(ctx, duelID)
	if err != nil {
		return nil, duelErr(err)
	}
	return d, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ListDuels returns duels in status, oldest first.
func (s *DuelService) ListDuels(ctx context.Context, status models.DuelStatus, limit int) ([]*models.Duel, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown duel status %q", status)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	duels, err := s.store.ListDuels(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list duels: %w", err)
	}
	return duels, nil
}

func (s *DuelService) logSettled(d *models.Duel) {
	fields := log.Fields{
		"duel_id": d.ID,
		"token":   d.TokenMint,
		"amount":  d.StakeAmount.String(),
	}
	if d.WinnerID != nil {
		fields["user_id"] = *d.WinnerID
	}
	log.WithFields(fields).Info("duel settled")
}
