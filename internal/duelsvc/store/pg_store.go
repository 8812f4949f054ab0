package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgQueries implements Queries against a pool or an open transaction.
type pgQueries struct {
	db dbtx
}

// PgStore is the PostgreSQL-backed Store.
type PgStore struct {
	*pgQueries
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pgQueries: &pgQueries{db: pool}, pool: pool}
}

// WithTx runs fn in a READ COMMITTED transaction. Guarded UPDATEs re-check
// their WHERE clause against the latest committed row version after waiting
// on its lock, which is what makes the conditional transitions race-free.
func (s *PgStore) WithTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgQueries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// guardMiss tells a missing row apart from a rejected guard after a
// conditional update returned no rows.
func (q *pgQueries) guardMiss(ctx context.Context, existsSQL string, args ...any) error {
	var exists bool
	if err := q.db.QueryRow(ctx, existsSQL, args...).Scan(&exists); err != nil {
		return fmt.Errorf("check existence: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrGuardFailed
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isInvalidText reports a value the column type could not parse, such as a
// malformed uuid. No row can match it.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
