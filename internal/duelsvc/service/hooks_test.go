package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	"github.com/avvvet/duel-services/internal/duelsvc/store/memstore"
	"github.com/shopspring/decimal"
)

var errUnlockDown = errors.New("unlock unavailable")

// hookStore wraps the memstore so tests can fail or observe individual
// primitives inside transactions.
type hookStore struct {
	*memstore.Store

	mu         sync.Mutex
	failUnlock map[string]bool // user ids whose UnlockFunds fails
	statOrder  []string        // user ids in RecordWin/RecordLoss call order
}

func newHookStore(s *memstore.Store) *hookStore {
	return &hookStore{Store: s, failUnlock: map[string]bool{}}
}

func (h *hookStore) WithTx(ctx context.Context, fn func(q store.Queries) error) error {
	return h.Store.WithTx(ctx, func(q store.Queries) error {
		return fn(&hookQueries{Queries: q, h: h})
	})
}

func (h *hookStore) stats() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.statOrder...)
}

type hookQueries struct {
	store.Queries
	h *hookStore
}

func (q *hookQueries) UnlockFunds(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	q.h.mu.Lock()
	fail := q.h.failUnlock[userID]
	q.h.mu.Unlock()
	if fail {
		return nil, errUnlockDown
	}
	return q.Queries.UnlockFunds(ctx, userID, token, amount, now)
}

func (q *hookQueries) RecordWin(ctx context.Context, userID string, amount decimal.Decimal, now time.Time) error {
	q.h.record(userID)
	return q.Queries.RecordWin(ctx, userID, amount, now)
}

func (q *hookQueries) RecordLoss(ctx context.Context, userID string, amount decimal.Decimal, now time.Time) error {
	q.h.record(userID)
	return q.Queries.RecordLoss(ctx, userID, amount, now)
}

func (h *hookStore) record(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statOrder = append(h.statOrder, userID)
}
