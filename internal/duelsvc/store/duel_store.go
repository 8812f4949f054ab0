package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/jackc/pgx/v5"
)

const duelColumns = `
	id, status, player1_id, player1_username, player2_id, player2_username,
	stake_amount, token_mint, winner_id, winner_username,
	player1_submitted_winner, player2_submitted_winner, game_id,
	expires_at, created_at, updated_at`

const duelExistsSQL = `SELECT EXISTS(SELECT 1 FROM duels WHERE id = $1)`

func scanDuel(row pgx.Row) (*models.Duel, error) {
	d := &models.Duel{}
	var status string
	err := row.Scan(
		&d.ID,
		&status,
		&d.Player1ID,
		&d.Player1Username,
		&d.Player2ID,
		&d.Player2Username,
		&d.StakeAmount,
		&d.TokenMint,
		&d.WinnerID,
		&d.WinnerUsername,
		&d.Player1SubmittedWinner,
		&d.Player2SubmittedWinner,
		&d.GameID,
		&d.ExpiresAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	d.Status = models.DuelStatus(status)
	return d, err
}

func (q *pgQueries) InsertDuel(ctx context.Context, d *models.Duel) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO duels (
			id, status, player1_id, player1_username,
			stake_amount, token_mint, game_id,
			expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, d.ID, string(d.Status), d.Player1ID, d.Player1Username,
		d.StakeAmount, d.TokenMint, d.GameID, d.ExpiresAt, d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert duel: %w", err)
	}
	return nil
}

func (q *pgQueries) GetDuel(ctx context.Context, id string) (*models.Duel, error) {
	d, err := scanDuel(q.db.QueryRow(ctx, `SELECT `+duelColumns+` FROM duels WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get duel by ID: %w", err)
	}
	return d, nil
}

func (q *pgQueries) ListDuels(ctx context.Context, status models.DuelStatus, limit int) ([]*models.Duel, error) {
	return q.listDuels(ctx, `
		SELECT `+duelColumns+`
		FROM duels
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2
	`, string(status), limit)
}

func (q *pgQueries) ListExpiredOpen(ctx context.Context, now time.Time, exclude []string, limit int) ([]*models.Duel, error) {
	// a NULL array would make the ALL comparison NULL and match nothing
	skip := append([]string{}, exclude...)
	return q.listDuels(ctx, `
		SELECT `+duelColumns+`
		FROM duels
		WHERE status = 'OPEN' AND expires_at < $1
		  AND id::text <> ALL($2::text[])
		ORDER BY expires_at, id
		LIMIT $3
	`, now, skip, limit)
}

func (q *pgQueries) listDuels(ctx context.Context, sql string, args ...any) ([]*models.Duel, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list duels: %w", err)
	}
	defer rows.Close()

	var duels []*models.Duel
	for rows.Next() {
		d, err := scanDuel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan duel row: %w", err)
		}
		duels = append(duels, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return duels, nil
}

func (q *pgQueries) JoinDuel(ctx context.Context, id, userID, username string, now time.Time) (*models.Duel, error) {
	return q.transition(ctx, `
		UPDATE duels
		SET status = 'ACTIVE', player2_id = $2, player2_username = $3, updated_at = $4
		WHERE id = $1
		  AND status = 'OPEN'
		  AND player2_id IS NULL
		  AND player1_id <> $2
		  AND expires_at > $4
		RETURNING `+duelColumns, id, userID, username, now)
}

func (q *pgQueries) SubmitClaim(ctx context.Context, id string, slot models.ClaimSlot, claim string, now time.Time) (*models.Duel, error) {
	var column string
	switch slot {
	case models.Player1Slot:
		column = "player1_submitted_winner"
	case models.Player2Slot:
		column = "player2_submitted_winner"
	default:
		return nil, fmt.Errorf("invalid claim slot %d", slot)
	}

	return q.transition(ctx, `
		UPDATE duels
		SET `+column+` = $2, updated_at = $3
		WHERE id = $1
		  AND status = 'ACTIVE'
		  AND `+column+` IS NULL
		RETURNING `+duelColumns, id, claim, now)
}

func (q *pgQueries) MarkDisputed(ctx context.Context, id string, now time.Time) (*models.Duel, error) {
	return q.transition(ctx, `
		UPDATE duels
		SET status = 'DISPUTED', updated_at = $2
		WHERE id = $1
		  AND status = 'ACTIVE'
		  AND player1_submitted_winner IS NOT NULL
		  AND player2_submitted_winner IS NOT NULL
		RETURNING `+duelColumns, id, now)
}

func (q *pgQueries) SettleDuel(ctx context.Context, id string, from models.DuelStatus, winnerID, winnerUsername string, now time.Time) (*models.Duel, error) {
	return q.transition(ctx, `
		UPDATE duels
		SET status = 'SETTLED', winner_id = $3, winner_username = $4, updated_at = $5
		WHERE id = $1
		  AND status = $2
		  AND player2_id IS NOT NULL
		  AND $3 IN (player1_id, player2_id)
		RETURNING `+duelColumns, id, string(from), winnerID, winnerUsername, now)
}

func (q *pgQueries) CancelOpenDuel(ctx context.Context, id string, now time.Time) (*models.Duel, error) {
	return q.transition(ctx, `
		UPDATE duels
		SET status = 'CANCELLED', updated_at = $2
		WHERE id = $1
		  AND status = 'OPEN'
		  AND player2_id IS NULL
		RETURNING `+duelColumns, id, now)
}

func (q *pgQueries) transition(ctx context.Context, sql, id string, args ...any) (*models.Duel, error) {
	d, err := scanDuel(q.db.QueryRow(ctx, sql, append([]any{id}, args...)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, q.guardMiss(ctx, duelExistsSQL, id)
		}
		if isInvalidText(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update duel %s: %w", id, err)
	}
	return d, nil
}
