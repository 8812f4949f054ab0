package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/apperr"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	defaultEntryLimit = 50
	maxEntryLimit     = 500
)

// LedgerService owns the escrow wallets. Every movement writes a journal
// entry in the same transaction.
type LedgerService struct {
	store store.Store
	clock clockwork.Clock
}

func NewLedgerService(s store.Store, clock clockwork.Clock) *LedgerService {
	return &LedgerService{store: s, clock: clock}
}

func (s *LedgerService) CreateWallet(ctx context.Context, userID, token string) (*models.Wallet, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Validation("token is required")
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, userErr(err)
	}

	w := &models.Wallet{
		ID:               uuid.NewString(),
		UserID:           userID,
		Token:            token,
		AvailableBalance: decimal.Zero,
		LockedBalance:    decimal.Zero,
		CreatedAt:        s.clock.Now(),
	}
	w.UpdatedAt = w.CreatedAt

	if err := s.store.CreateWallet(ctx, w); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Newf(apperr.CodeWalletExists, "wallet for %s already exists", token)
		}
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	log.WithFields(log.Fields{"user_id": userID, "token": token}).Info("wallet created")
	return w, nil
}

func (s *LedgerService) GetWallet(ctx context.Context, userID, token string) (*models.Wallet, error) {
	w, err := s.store.GetWallet(ctx, userID, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func (s *LedgerService) Deposit(ctx context.Context, userID, token string, amount decimal.Decimal) (*models.Wallet, error) {
	return s.apply(ctx, "deposit", userID, token, amount, func(q store.Queries, now time.Time) (*models.Wallet, error) {
		w, err := q.CreditAvailable(ctx, userID, token, amount, now)
		if err != nil {
			return nil, walletErr(err, apperr.ErrInsufficientFunds)
		}
		return w, journal(ctx, q, models.EntryDeposit, userID, nil, token, amount, nil, now)
	})
}

func (s *LedgerService) Withdraw(ctx context.Context, userID, token string, amount decimal.Decimal) (*models.Wallet, error) {
	return s.apply(ctx, "withdraw", userID, token, amount, func(q store.Queries, now time.Time) (*models.Wallet, error) {
		w, err := q.DebitAvailable(ctx, userID, token, amount, now)
		if err != nil {
			return nil, walletErr(err, apperr.ErrInsufficientFunds)
		}
		return w, journal(ctx, q, models.EntryWithdraw, userID, nil, token, amount, nil, now)
	})
}

func (s *LedgerService) Lock(ctx context.Context, userID, token string, amount decimal.Decimal) (*models.Wallet, error) {
	return s.apply(ctx, "lock", userID, token, amount, func(q store.Queries, now time.Time) (*models.Wallet, error) {
		return lockStake(ctx, q, userID, token, amount, nil, now)
	})
}

func (s *LedgerService) Unlock(ctx context.Context, userID, token string, amount decimal.Decimal) (*models.Wallet, error) {
	return s.apply(ctx, "unlock", userID, token, amount, func(q store.Queries, now time.Time) (*models.Wallet, error) {
		return releaseStake(ctx, q, userID, token, amount, nil, now)
	})
}

// Transfer moves amount out of from's locked balance into to's available
// balance. Both writes commit together.
func (s *LedgerService) Transfer(ctx context.Context, fromUserID, toUserID, token string, amount decimal.Decimal) error {
	if fromUserID == toUserID {
		return apperr.Validation("cannot transfer to the same wallet")
	}
	_, err := s.apply(ctx, "transfer", fromUserID, token, amount, func(q store.Queries, now time.Time) (*models.Wallet, error) {
		return nil, payout(ctx, q, fromUserID, toUserID, token, amount, nil, now)
	})
	return err
}

func (s *LedgerService) ListEntries(ctx context.Context, userID, token string, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultEntryLimit
	}
	if limit > maxEntryLimit {
		limit = maxEntryLimit
	}
	entries, err := s.store.ListLedgerEntries(ctx, userID, token, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

func (s *LedgerService) apply(ctx context.Context, op, userID, token string, amount decimal.Decimal,
	fn func(q store.Queries, now time.Time) (*models.Wallet, error)) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperr.ErrInvalidAmount
	}

	now := s.clock.Now()
	var w *models.Wallet
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		var err error
		w, err = fn(q, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"token":   token,
		"amount":  amount.String(),
	}).Infof("ledger %s applied", op)
	return w, nil
}

// lockStake moves amount from available to locked.
func lockStake(ctx context.Context, q store.Queries, userID, token string, amount decimal.Decimal, duelID *string, now time.Time) (*models.Wallet, error) {
	w, err := q.LockFunds(ctx, userID, token, amount, now)
	if err != nil {
		return nil, walletErr(err, apperr.ErrInsufficientFunds)
	}
	return w, journal(ctx, q, models.EntryStakeLock, userID, nil, token, amount, duelID, now)
}

// releaseStake moves amount from locked back to available.
func releaseStake(ctx context.Context, q store.Queries, userID, token string, amount decimal.Decimal, duelID *string, now time.Time) (*models.Wallet, error) {
	w, err := q.UnlockFunds(ctx, userID, token, amount, now)
	if err != nil {
		return nil, walletErr(err, apperr.ErrInsufficientLockedFunds)
	}
	return w, journal(ctx, q, models.EntryStakeRelease, userID, nil, token, amount, duelID, now)
}

// payout debits from's locked balance and credits to's available balance.
// Wallet rows are locked in a stable order first.
func payout(ctx context.Context, q store.Queries, fromUserID, toUserID, token string, amount decimal.Decimal, duelID *string, now time.Time) error {
	if err := q.LockWallets(ctx, token, fromUserID, toUserID); err != nil {
		return fmt.Errorf("lock wallets: %w", err)
	}
	if _, err := q.DebitLocked(ctx, fromUserID, token, amount, now); err != nil {
		return walletErr(err, apperr.ErrInsufficientLockedFunds)
	}
	if _, err := q.CreditAvailable(ctx, toUserID, token, amount, now); err != nil {
		return walletErr(err, apperr.ErrInsufficientFunds)
	}
	return journal(ctx, q, models.EntryStakePayout, fromUserID, &toUserID, token, amount, duelID, now)
}

func journal(ctx context.Context, q store.Queries, kind models.EntryKind, userID string, counterparty *string,
	token string, amount decimal.Decimal, duelID *string, now time.Time) error {
	err := q.InsertLedgerEntry(ctx, &models.LedgerEntry{
		ID:             uuid.NewString(),
		UserID:         userID,
		CounterpartyID: counterparty,
		Token:          token,
		DuelID:         duelID,
		Kind:           kind,
		Amount:         amount,
		CreatedAt:      now,
	})
	if err != nil {
		return fmt.Errorf("journal %s: %w", kind, err)
	}
	return nil
}
