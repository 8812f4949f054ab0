package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, user_id, token, available_balance, locked_balance, created_at, updated_at`

const walletExistsSQL = `SELECT EXISTS(SELECT 1 FROM wallets WHERE user_id = $1 AND token = $2)`

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	w := &models.Wallet{}
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Token,
		&w.AvailableBalance,
		&w.LockedBalance,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	return w, err
}

func (q *pgQueries) CreateWallet(ctx context.Context, w *models.Wallet) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO wallets (id, user_id, token, available_balance, locked_balance, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4, $4)
	`, w.ID, w.UserID, w.Token, w.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("could not create wallet: %w", err)
	}
	return nil
}

func (q *pgQueries) GetWallet(ctx context.Context, userID, token string) (*models.Wallet, error) {
	w, err := scanWallet(q.db.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = $1 AND token = $2
	`, userID, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

func (q *pgQueries) LockWallets(ctx context.Context, token string, userIDs ...string) error {
	ids := append([]string(nil), userIDs...)
	sort.Strings(ids)

	rows, err := q.db.Query(ctx, `
		SELECT id
		FROM wallets
		WHERE token = $1 AND user_id = ANY($2)
		ORDER BY user_id
		FOR UPDATE
	`, token, ids)
	if err != nil {
		return fmt.Errorf("lock wallet rows: %w", err)
	}
	rows.Close()
	return rows.Err()
}

// LockFunds moves amount from available to locked while available covers it.
func (q *pgQueries) LockFunds(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	return q.moveFunds(ctx, `
		UPDATE wallets
		SET available_balance = available_balance - $3,
		    locked_balance = locked_balance + $3,
		    updated_at = $4
		WHERE user_id = $1 AND token = $2 AND available_balance >= $3
		RETURNING `+walletColumns, userID, token, amount, now)
}

// UnlockFunds moves amount from locked back to available while locked covers it.
func (q *pgQueries) UnlockFunds(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	return q.moveFunds(ctx, `
		UPDATE wallets
		SET available_balance = available_balance + $3,
		    locked_balance = locked_balance - $3,
		    updated_at = $4
		WHERE user_id = $1 AND token = $2 AND locked_balance >= $3
		RETURNING `+walletColumns, userID, token, amount, now)
}

func (q *pgQueries) DebitLocked(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	return q.moveFunds(ctx, `
		UPDATE wallets
		SET locked_balance = locked_balance - $3,
		    updated_at = $4
		WHERE user_id = $1 AND token = $2 AND locked_balance >= $3
		RETURNING `+walletColumns, userID, token, amount, now)
}

func (q *pgQueries) CreditAvailable(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	return q.moveFunds(ctx, `
		UPDATE wallets
		SET available_balance = available_balance + $3,
		    updated_at = $4
		WHERE user_id = $1 AND token = $2
		RETURNING `+walletColumns, userID, token, amount, now)
}

func (q *pgQueries) DebitAvailable(ctx context.Context, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	return q.moveFunds(ctx, `
		UPDATE wallets
		SET available_balance = available_balance - $3,
		    updated_at = $4
		WHERE user_id = $1 AND token = $2 AND available_balance >= $3
		RETURNING `+walletColumns, userID, token, amount, now)
}

func (q *pgQueries) moveFunds(ctx context.Context, sql, userID, token string, amount decimal.Decimal, now time.Time) (*models.Wallet, error) {
	w, err := scanWallet(q.db.QueryRow(ctx, sql, userID, token, amount, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, q.guardMiss(ctx, walletExistsSQL, userID, token)
		}
		return nil, fmt.Errorf("update wallet: %w", err)
	}
	return w, nil
}

func (q *pgQueries) InsertLedgerEntry(ctx context.Context, e *models.LedgerEntry) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO ledger_entries (id, user_id, counterparty_id, token, duel_id, kind, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.UserID, e.CounterpartyID, e.Token, e.DuelID, string(e.Kind), e.Amount, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (q *pgQueries) ListLedgerEntries(ctx context.Context, userID, token string, limit int) ([]*models.LedgerEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, counterparty_id, token, duel_id, kind, amount, created_at
		FROM ledger_entries
		WHERE (user_id = $1 OR counterparty_id = $1) AND token = $2
		ORDER BY created_at DESC, id
		LIMIT $3
	`, userID, token, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		var kind string
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.CounterpartyID,
			&e.Token,
			&e.DuelID,
			&kind,
			&e.Amount,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Kind = models.EntryKind(kind)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
