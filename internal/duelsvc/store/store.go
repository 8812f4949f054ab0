// Package store persists users, wallets, duels and the ledger journal.
//
// Every state change is a conditional single-statement update: it matches
// the row only while its guard (status, empty claim slot, sufficient balance)
// still holds. A guard that no longer holds yields ErrGuardFailed, a missing
// row ErrNotFound. Compound effects run through WithTx and commit together.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrGuardFailed = errors.New("conditional update rejected")
	ErrConflict    = errors.New("record already exists")
)

type UserQueries interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error)
	// RecordWin adds one win and amount to the stake-won total.
	RecordWin(ctx context.Context, userID string, amount decimal.Decimal, now time.Time) error
	// RecordLoss adds one loss and amount to the stake-lost total.
	RecordLoss(ctx context.Context, userID string, amount decimal.Decimal, now time.Time) error
}

type WalletQueries interface {
	CreateWallet(ctx context.Context, w *models.Wallet) error
	GetWallet(ctx context.Context, userID, token string) (*models.Wallet, error)
	// LockWallets takes row locks on the given wallets in a stable order so
	// two-wallet movements cannot deadlock each other.
	LockWallets(ctx context.Context, token string, userIDs ...string) error
	LockFunds(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error)
	UnlockFunds(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error)
	DebitLocked(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error)
	CreditAvailable(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error)
	DebitAvailable(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error)
	InsertLedgerEntry(ctx context.Context, e *models.LedgerEntry) error
	ListLedgerEntries(ctx context.Context, userID, token string, limit int) ([]*models.LedgerEntry, error)
}

type DuelQueries interface {
	InsertDuel(ctx context.Context, d *models.Duel) error
	GetDuel(ctx context.Context, id string) (*models.Duel, error)
	ListDuels(ctx context.Context, status models.DuelStatus, limit int) ([]*models.Duel, error)
	// ListExpiredOpen lists OPEN duels past expiry, oldest expiry first,
	// leaving out the ids in exclude.
	ListExpiredOpen(ctx context.Context, now time.Time, exclude []string, limit int) ([]*models.Duel, error)
	// JoinDuel moves OPEN to ACTIVE while unexpired, unjoined and not joined
	// by the creator.
	JoinDuel(ctx context.Context, id, userID, username string, now time.Time) (*models.Duel, error)
	// SubmitClaim fills an empty claim slot of an ACTIVE duel.
	SubmitClaim(ctx context.Context, id string, slot models.ClaimSlot, claim string, now time.Time) (*models.Duel, error)
	// MarkDisputed moves ACTIVE to DISPUTED once both claims are present.
	MarkDisputed(ctx context.Context, id string, now time.Time) (*models.Duel, error)
	// SettleDuel moves from to SETTLED and records the winner.
	SettleDuel(ctx context.Context, id string, from models.DuelStatus, winnerID, winnerUsername string, now time.Time) (*models.Duel, error)
	// CancelOpenDuel moves an unjoined OPEN duel to CANCELLED.
	CancelOpenDuel(ctx context.Context, id string, now time.Time) (*models.Duel, error)
}

type LeaderboardQueries interface {
	ListStandings(ctx context.Context, limit, offset int) ([]*models.Standing, error)
	GetStanding(ctx context.Context, username string) (*models.Standing, error)
	// RefreshRanks shifts current_rank into previous_rank and stores the
	// fresh rank for every portfolio in one statement.
	RefreshRanks(ctx context.Context, now time.Time) (int, error)
}

// Queries is the full set of primitives, usable inside or outside a transaction.
type Queries interface {
	UserQueries
	WalletQueries
	DuelQueries
	LeaderboardQueries
}

// Store runs primitives directly or groups them in a transaction. fn's
// effects commit only if it returns nil.
type Store interface {
	Queries
	WithTx(ctx context.Context, fn func(q Queries) error) error
}
