package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the escrow balance of one user for one stake token.
type Wallet struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Token            string          `json:"token"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	LockedBalance    decimal.Decimal `json:"locked_balance"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Total is available plus locked.
func (w *Wallet) Total() decimal.Decimal {
	return w.AvailableBalance.Add(w.LockedBalance)
}

type EntryKind string

const (
	EntryDeposit      EntryKind = "DEPOSIT"
	EntryWithdraw     EntryKind = "WITHDRAW"
	EntryStakeLock    EntryKind = "STAKE_LOCK"
	EntryStakeRelease EntryKind = "STAKE_RELEASE"
	EntryStakePayout  EntryKind = "STAKE_PAYOUT"
)

// LedgerEntry is one journal row written alongside a balance movement.
// For payouts UserID is the payer and CounterpartyID the payee.
type LedgerEntry struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	CounterpartyID *string         `json:"counterparty_id,omitempty"`
	Token          string          `json:"token"`
	DuelID         *string         `json:"duel_id,omitempty"`
	Kind           EntryKind       `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      time.Time       `json:"created_at"`
}
