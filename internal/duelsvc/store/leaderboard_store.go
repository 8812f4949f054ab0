package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/jackc/pgx/v5"
)

// standingsSQL ranks every user that has a portfolio row.
const standingsSQL = `
	SELECT
		ROW_NUMBER() OVER (ORDER BY u.wins DESC, p.total_stake_won DESC, u.username ASC) AS rank,
		u.user_id, u.username, u.wins, u.losses,
		p.total_stake_won, p.total_stake_lost, p.current_rank, p.previous_rank
	FROM users u
	INNER JOIN portfolio p ON p.user_id = u.user_id`

func scanStanding(row pgx.Row) (*models.Standing, error) {
	s := &models.Standing{}
	err := row.Scan(
		&s.Rank,
		&s.UserID,
		&s.Username,
		&s.Wins,
		&s.Losses,
		&s.TotalStakeWon,
		&s.TotalStakeLost,
		&s.CurrentRank,
		&s.PreviousRank,
	)
	return s, err
}

func (q *pgQueries) ListStandings(ctx context.Context, limit, offset int) ([]*models.Standing, error) {
	rows, err := q.db.Query(ctx, `
		SELECT * FROM (`+standingsSQL+`) ranked
		ORDER BY rank
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}
	defer rows.Close()

	var standings []*models.Standing
	for rows.Next() {
		s, err := scanStanding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

func (q *pgQueries) GetStanding(ctx context.Context, username string) (*models.Standing, error) {
	s, err := scanStanding(q.db.QueryRow(ctx, `
		SELECT * FROM (`+standingsSQL+`) ranked
		WHERE username = $1
	`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get standing: %w", err)
	}
	return s, nil
}

func (q *pgQueries) RefreshRanks(ctx context.Context, now time.Time) (int, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE portfolio p
		SET previous_rank = p.current_rank,
		    current_rank = ranked.rank,
		    updated_at = $1
		FROM (`+standingsSQL+`) ranked
		WHERE p.user_id = ranked.user_id
	`, now)
	if err != nil {
		return 0, fmt.Errorf("refresh ranks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
