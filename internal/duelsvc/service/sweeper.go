package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/duel-services/internal/comm"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	log "github.com/sirupsen/logrus"
)

// SweepExpired cancels OPEN duels past their expiry and releases the
// creators' stakes. Each duel runs in its own transaction with the same guard
// as a manual cancel, so a duel joined meanwhile is skipped. A duel that is
// skipped or fails is counted once and not retried until the next sweep.
// Only a failure to list candidates fails the sweep.
func (s *DuelService) SweepExpired(ctx context.Context) (*models.SweepResult, error) {
	res := &models.SweepResult{}
	var done []string // skipped or failed; listed again only by the next sweep

	for {
		now := s.clock.Now()
		batch, err := s.store.ListExpiredOpen(ctx, now, done, s.sweepBatch)
		if err != nil {
			return res, fmt.Errorf("list expired duels: %w", err)
		}

		cancelled := 0
		for _, d := range batch {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			var swept *models.Duel
			err := s.store.WithTx(ctx, func(q store.Queries) error {
				var err error
				swept, err = cancelOpen(ctx, q, d.ID, now)
				return err
			})
			switch {
			case err == nil:
				cancelled++
				s.emit(comm.EventDuelExpired, swept, "")
			case errors.Is(err, store.ErrGuardFailed):
				res.Skipped++
				done = append(done, d.ID)
			default:
				res.Failed++
				done = append(done, d.ID)
				log.WithField("duel_id", d.ID).Errorf("expire duel: %s", err)
			}
		}
		res.Cancelled += cancelled

		if len(batch) < s.sweepBatch {
			break
		}
	}

	if res.Cancelled > 0 || res.Failed > 0 {
		log.Infof("expiry sweep cancelled %d, skipped %d, failed %d", res.Cancelled, res.Skipped, res.Failed)
	}
	return res, nil
}
