package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the account record; owned by the account subsystem, duels only
// read it and bump its stats.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Portfolio holds stake totals and rank snapshots per user.
type Portfolio struct {
	UserID         string          `json:"user_id"`
	TotalStakeWon  decimal.Decimal `json:"total_stake_won"`
	TotalStakeLost decimal.Decimal `json:"total_stake_lost"`
	CurrentRank    int             `json:"current_rank"`
	PreviousRank   int             `json:"previous_rank"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type PlayerProfile struct {
	Username       string          `json:"username"`
	Wins           int             `json:"wins"`
	Losses         int             `json:"losses"`
	TotalStakeWon  decimal.Decimal `json:"total_stake_won"`
	TotalStakeLost decimal.Decimal `json:"total_stake_lost"`
	WinPercentage  float64         `json:"win_percentage"`
}
