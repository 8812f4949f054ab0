package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CreateUser inserts the user together with an empty portfolio row.
func (q *pgQueries) CreateUser(ctx context.Context, u *models.User) error {
	_, err := q.db.Exec(ctx, `
		WITH new_user AS (
			INSERT INTO users (user_id, username, wins, losses, created_at, updated_at)
			VALUES ($1, $2, 0, 0, $3, $3)
			RETURNING user_id
		)
		INSERT INTO portfolio (user_id, total_stake_won, total_stake_lost, current_rank, previous_rank, updated_at)
		SELECT user_id, 0, 0, 0, 0, $3 FROM new_user
	`, u.ID, u.Username, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("could not create user: %w", err)
	}
	return nil
}

func (q *pgQueries) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return q.getUser(ctx, `WHERE user_id = $1`, id)
}

func (q *pgQueries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return q.getUser(ctx, `WHERE username = $1`, username)
}

func (q *pgQueries) getUser(ctx context.Context, where string, arg string) (*models.User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT user_id, username, wins, losses, created_at, updated_at
		FROM users `+where, arg)

	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Wins,
		&u.Losses,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (q *pgQueries) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	p := &models.Portfolio{}
	err := q.db.QueryRow(ctx, `
		SELECT user_id, total_stake_won, total_stake_lost, current_rank, previous_rank, updated_at
		FROM portfolio
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID,
		&p.TotalStakeWon,
		&p.TotalStakeLost,
		&p.CurrentRank,
		&p.PreviousRank,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return p, nil
}

func (q *pgQueries) RecordWin(ctx context.Context, userID string, amount decimal.Decimal, now time.Time) error {
	return q.recordResult(ctx, userID, amount, now, true)
}

func (q *pgQueries) RecordLoss(ctx context.Context, userID string, amount decimal.Decimal, now time.Time) error {
	return q.recordResult(ctx, userID, amount, now, false)
}

func (q *pgQueries) recordResult(ctx context.Context, userID string, amount decimal.Decimal, now time.Time, won bool) error {
	userSQL := `UPDATE users SET losses = losses + 1, updated_at = $2 WHERE user_id = $1`
	portfolioSQL := `UPDATE portfolio SET total_stake_lost = total_stake_lost + $2, updated_at = $3 WHERE user_id = $1`
	if won {
		userSQL = `UPDATE users SET wins = wins + 1, updated_at = $2 WHERE user_id = $1`
		portfolioSQL = `UPDATE portfolio SET total_stake_won = total_stake_won + $2, updated_at = $3 WHERE user_id = $1`
	}

	tag, err := q.db.Exec(ctx, userSQL, userID, now)
	if err != nil {
		return fmt.Errorf("update user stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	tag, err = q.db.Exec(ctx, portfolioSQL, userID, amount, now)
	if err != nil {
		return fmt.Errorf("update portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
