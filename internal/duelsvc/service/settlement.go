package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/duel-services/internal/comm"
	"github.com/avvvet/duel-services/internal/duelsvc/apperr"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
)

// settle applies every settlement effect inside q's transaction: the status
// flip guarded on from, the loser's stake paid to the winner, the winner's own
// stake released, and both players' stats. Any failure aborts the whole unit
// and leaves the duel in from.
func settle(ctx context.Context, q store.Queries, d *models.Duel, from models.DuelStatus, winner string, now time.Time) (*models.Duel, error) {
	winnerID, loserID, _, ok := d.Sides(winner)
	if !ok {
		return nil, apperr.Newf(apperr.CodeInvalidClaim, "winner %q is not a participant", winner)
	}

	settled, err := q.SettleDuel(ctx, d.ID, from, winnerID, winner, now)
	if err != nil {
		if errors.Is(err, store.ErrGuardFailed) {
			current, gerr := q.GetDuel(ctx, d.ID)
			if gerr != nil {
				return nil, duelErr(gerr)
			}
			return nil, apperr.InvalidTransition(string(current.Status), "settle")
		}
		return nil, duelErr(err)
	}

	stake := settled.StakeAmount
	token := settled.TokenMint
	if err := payout(ctx, q, loserID, winnerID, token, stake, &settled.ID, now); err != nil {
		return nil, err
	}
	if _, err := releaseStake(ctx, q, winnerID, token, stake, &settled.ID, now); err != nil {
		return nil, err
	}

	// stats rows are written in user id order, the order LockWallets uses
	win := func() error { return q.RecordWin(ctx, winnerID, stake, now) }
	loss := func() error { return q.RecordLoss(ctx, loserID, stake, now) }
	first, second := win, loss
	if loserID < winnerID {
		first, second = loss, win
	}
	if err := first(); err != nil {
		return nil, statsErr(err)
	}
	if err := second(); err != nil {
		return nil, statsErr(err)
	}
	return settled, nil
}

func statsErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrUserNotFound
	}
	return fmt.Errorf("record result: %w", err)
}

// settleDisputed settles a DISPUTED duel for winner. Only the dispute
// verifier calls it.
func (s *DuelService) settleDisputed(ctx context.Context, d *models.Duel, winner string) (*models.Duel, error) {
	now := s.clock.Now()
	var settled *models.Duel
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		var err error
		settled, err = settle(ctx, q, d, models.StatusDisputed, winner, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logSettled(settled)
	s.emit(comm.EventDuelSettled, settled, "")
	return settled, nil
}
