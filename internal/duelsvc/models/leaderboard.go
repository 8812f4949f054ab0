package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// Standing is one user's row in leaderboard order (wins desc, stake won desc,
// username asc). Rank is 1-based over the whole board.
type Standing struct {
	Rank           int             `json:"rank"`
	UserID         string          `json:"user_id"`
	Username       string          `json:"username"`
	Wins           int             `json:"wins"`
	Losses         int             `json:"losses"`
	TotalStakeWon  decimal.Decimal `json:"total_stake_won"`
	TotalStakeLost decimal.Decimal `json:"total_stake_lost"`
	CurrentRank    int             `json:"current_rank"`
	PreviousRank   int             `json:"previous_rank"`
}

type LeaderboardEntry struct {
	Standing
	WinPercentage float64 `json:"win_percentage"`
}

// WinPercentage is wins over games played, in percent with two decimals.
func WinPercentage(wins, losses int) float64 {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(total)*10000) / 100
}
