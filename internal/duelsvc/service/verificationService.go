package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/duel-services/internal/duelsvc/matchrecord"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	log "github.com/sirupsen/logrus"
)

const ReasonManualReview = "cannot determine winner automatically, manual review required"

// VerificationService breaks disputes using each participant's latest
// recorded match for the duel's game.
type VerificationService struct {
	store  store.Store
	source matchrecord.Source
	duels  *DuelService
}

func NewVerificationService(s store.Store, source matchrecord.Source, duels *DuelService) *VerificationService {
	return &VerificationService{store: s, source: source, duels: duels}
}

// VerifyDispute settles a DISPUTED duel when exactly one participant's latest
// match is a win. Expected misses come back as Verified=false with a reason;
// only store, source or settlement failures are returned as errors.
func (s *VerificationService) VerifyDispute(ctx context.Context, duelID string) (*models.VerificationResult, error) {
	res := &models.VerificationResult{DuelID: duelID}
	if !validID(duelID) {
		res.Reason = "duel not found"
		return res, nil
	}

	d, err := s.store.GetDuel(ctx, duelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			res.Reason = "duel not found"
			return res, nil
		}
		return nil, fmt.Errorf("load duel: %w", err)
	}
	res.Duel = d

	switch {
	case d.Status != models.StatusDisputed:
		res.Reason = fmt.Sprintf("wrong state: duel is %s, not %s", d.Status, models.StatusDisputed)
		return res, nil
	case d.GameID == nil:
		res.Reason = "missing linkage: duel has no game id"
		return res, nil
	case d.Player2ID == nil || d.Player2Username == nil:
		res.Reason = "missing linkage: duel has no second participant"
		return res, nil
	}

	p1Won, err := s.latestWon(ctx, d.Player1ID, *d.GameID)
	if err != nil {
		return nil, err
	}
	p2Won, err := s.latestWon(ctx, *d.Player2ID, *d.GameID)
	if err != nil {
		return nil, err
	}

	var winner string
	switch {
	case p1Won != nil && p2Won != nil && *p1Won && !*p2Won:
		winner = d.Player1Username
	case p1Won != nil && p2Won != nil && *p2Won && !*p1Won:
		winner = *d.Player2Username
	default:
		res.Reason = ReasonManualReview
		log.WithField("duel_id", duelID).Warn("dispute left for manual review")
		return res, nil
	}

	settled, err := s.duels.settleDisputed(ctx, d, winner)
	if err != nil {
		return nil, err
	}

	res.Verified = true
	res.WinnerUsername = &winner
	res.Duel = settled
	res.Reason = "winner determined from match records"
	return res, nil
}

// latestWon returns nil when the user has no profile or no match for gameID,
// or when their latest matches tie on played_at.
func (s *VerificationService) latestWon(ctx context.Context, userID, gameID string) (*bool, error) {
	profileID, err := s.source.ProfileID(ctx, userID, gameID)
	if err != nil {
		if errors.Is(err, matchrecord.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup game profile: %w", err)
	}

	match, err := s.source.LatestMatch(ctx, profileID)
	if err != nil {
		if errors.Is(err, matchrecord.ErrNotFound) || errors.Is(err, matchrecord.ErrAmbiguous) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup latest match: %w", err)
	}
	return &match.Won, nil
}

// RecheckDisputed runs VerifyDispute over up to limit DISPUTED duels and
// returns how many were settled.
func (s *VerificationService) RecheckDisputed(ctx context.Context, limit int) (int, error) {
	duels, err := s.duels.ListDuels(ctx, models.StatusDisputed, limit)
	if err != nil {
		return 0, err
	}

	verified := 0
	for _, d := range duels {
		res, err := s.VerifyDispute(ctx, d.ID)
		if err != nil {
			log.WithField("duel_id", d.ID).Errorf("recheck dispute: %s", err)
			continue
		}
		if res.Verified {
			verified++
		}
	}
	return verified, nil
}
