package memstore

import (
	"context"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	"github.com/shopspring/decimal"
)

// Calls made outside WithTx behave like single-statement transactions.

func do[T any](ctx context.Context, s *Store, fn func(v *view) (T, error)) (T, error) {
	var out T
	err := s.WithTx(ctx, func(q store.Queries) error {
		var err error
		out, err = fn(q.(*view))
		return err
	})
	return out, err
}

func exec(ctx context.Context, s *Store, fn func(v *view) error) error {
	return s.WithTx(ctx, func(q store.Queries) error {
		return fn(q.(*view))
	})
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return exec(ctx, s, func(v *view) error { return v.CreateUser(ctx, u) })
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return do(ctx, s, func(v *view) (*models.User, error) { return v.GetUserByID(ctx, id) })
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return do(ctx, s, func(v *view) (*models.User, error) { return v.GetUserByUsername(ctx, username) })
}

func (s *Store) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	return do(ctx, s, func(v *view) (*models.Portfolio, error) { return v.GetPortfolio(ctx, userID) })
}

func (s *Store) RecordWin(ctx context.Context, userID string, amount decimal.Decimal, now time.Time) error {
	return exec(ctx, s, func(v *view) error { return v.RecordWin(ctx, userID, amount, now) })
}

func (s *Store) RecordLoss(ctx context.Context, userID string, amount decimal.Decimal, now time.Time) error {
	return exec(ctx, s, func(v *view) error { return v.RecordLoss(ctx, userID, amount, now) })
}

func (s *Store) CreateWallet(ctx context.Context, w *models.Wallet) error {
	return exec(ctx, s, func(v *view) error { return v.CreateWallet(ctx, w) })
}

func (s *Store) GetWallet(ctx context.Context, userID, token string) (*models.Wallet, error) {
	return do(ctx, s, func(v *view) (*models.Wallet, error) { return v.GetWallet(ctx, userID, token) })
}

func (s *Store) LockWallets(ctx context.Context, token string, userIDs ...string) error {
	return exec(ctx, s, func(v *view) error { return v.LockWallets(ctx, token, userIDs...) })
}

func (s *Store) LockFunds(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	return do(ctx, s, func(v *view) (*models.Wallet, error) { return v.LockFunds(ctx, userID, token, amount, now) })
}

func (s *Store) UnlockFunds(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	return do(ctx, s, func(v *view) (*models.Wallet, error) { return v.UnlockFunds(ctx, userID, token, amount, now) })
}

func (s *Store) DebitLocked(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	return do(ctx, s, func(v *view) (*models.Wallet, error) { return v.DebitLocked(ctx, userID, token, amount, now) })
}

func (s *Store) CreditAvailable(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	return do(ctx, s, func(v *view) (*models.Wallet, error) { return v.CreditAvailable(ctx, userID, token, amount, now) })
}

func (s *Store) DebitAvailable(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	return do(ctx, s, func(v *view) (*models.Wallet, error) { return v.DebitAvailable(ctx, userID, token, amount, now) })
}

func (s *Store) InsertLedgerEntry(ctx context.Context, e *models.LedgerEntry) error {
	return exec(ctx, s, func(v *view) error { return v.InsertLedgerEntry(ctx, e) })
}

func (s *Store) ListLedgerEntries(ctx context.Context, userID, token string, limit int) ([]*models.LedgerEntry, error) {
	return do(ctx, s, func(v *view) ([]*models.LedgerEntry, error) { return v.ListLedgerEntries(ctx, userID, token, limit) })
}

func (s *Store) InsertDuel(ctx context.Context, d *models.Duel) error {
	return exec(ctx, s, func(v *view) error { return v.InsertDuel(ctx, d) })
}

func (s *Store) GetDuel(ctx context.Context, id string) (*models.Duel, error) {
	return do(ctx, s, func(v *view) (*models.Duel, error) { return v.GetDuel(ctx, id) })
}

func (s *Store) ListDuels(ctx context.Context, status models.DuelStatus, limit int) ([]*models.Duel, error) {
	return do(ctx, s, func(v *view) ([]*models.Duel, error) { return v.ListDuels(ctx, status, limit) })
}

func (s *Store) ListExpiredOpen(ctx context.Context, now time.Time, exclude []string, limit int) ([]*models.Duel, error) {
	return do(ctx, s, func(v *view) ([]*models.Duel, error) { return v.ListExpiredOpen(ctx, now, exclude, limit) })
}

func (s *Store) JoinDuel(ctx context.Context, id, userID, username string, now time.Time) (*models.Duel, error) {
	return do(ctx, s, func(v *view) (*models.Duel, error) { return v.JoinDuel(ctx, id, userID, username, now) })
}

func (s *Store) SubmitClaim(ctx context.Context, id string, slot models.ClaimSlot, claim string, now time.Time) (*models.Duel, error) {
	return do(ctx, s, func(v *view) (*models.Duel, error) { return v.SubmitClaim(ctx, id, slot, claim, now) })
}

func (s *Store) MarkDisputed(ctx context.Context, id string, now time.Time) (*models.Duel, error) {
	return do(ctx, s, func(v *view) (*models.Duel, error) { return v.MarkDisputed(ctx, id, now) })
}

func (s *Store) SettleDuel(ctx context.Context, id string, from models.DuelStatus, winnerID, winnerUsername string, now time.Time) (*models.Duel, error) {
	return do(ctx, s, func(v *view) (*models.Duel, error) {
		return v.SettleDuel(ctx, id, from, winnerID, winnerUsername, now)
	})
}

func (s *Store) CancelOpenDuel(ctx context.Context, id string, now time.Time) (*models.Duel, error) {
	return do(ctx, s, func(v *view) (*models.Duel, error) { return v.CancelOpenDuel(ctx, id, now) })
}

func (s *Store) ListStandings(ctx context.Context, limit, offset int) ([]*models.Standing, error) {
	return do(ctx, s, func(v *view) ([]*models.Standing, error) { return v.ListStandings(ctx, limit, offset) })
}

func (s *Store) GetStanding(ctx context.Context, username string) (*models.Standing, error) {
	return do(ctx, s, func(v *view) (*models.Standing, error) { return v.GetStanding(ctx, username) })
}

func (s *Store) RefreshRanks(ctx context.Context, now time.Time) (int, error) {
	return do(ctx, s, func(v *view) (int, error) { return v.RefreshRanks(ctx, now) })
}
