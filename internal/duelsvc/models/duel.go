package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DuelStatus string

const (
	StatusOpen      DuelStatus = "OPEN"
	StatusActive    DuelStatus = "ACTIVE"
	StatusDisputed  DuelStatus = "DISPUTED"
	StatusSettled   DuelStatus = "SETTLED"
	StatusCancelled DuelStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed.
func (s DuelStatus) Terminal() bool {
	return s == StatusSettled || s == StatusCancelled
}

func (s DuelStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusActive, StatusDisputed, StatusSettled, StatusCancelled:
		return true
	}
	return false
}

// Duel is a two-party staked match.
type Duel struct {
	ID                     string          `json:"id"`
	Status                 DuelStatus      `json:"status"`
	Player1ID              string          `json:"player1_id"`
	Player1Username        string          `json:"player1_username"`
	Player2ID              *string         `json:"player2_id"`
	Player2Username        *string         `json:"player2_username"`
	StakeAmount            decimal.Decimal `json:"stake_amount"`
	TokenMint              string          `json:"token_mint"`
	WinnerID               *string         `json:"winner_id"`
	WinnerUsername         *string         `json:"winner_username"`
	Player1SubmittedWinner *string         `json:"player1_submitted_winner"`
	Player2SubmittedWinner *string         `json:"player2_submitted_winner"`
	GameID                 *string         `json:"game_id"`
	ExpiresAt              time.Time       `json:"expires_at"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// ClaimSlot identifies which claim column belongs to a participant.
type ClaimSlot int

const (
	NoSlot ClaimSlot = iota
	Player1Slot
	Player2Slot
)

// SlotOf returns the claim slot owned by username, or NoSlot.
func (d *Duel) SlotOf(username string) ClaimSlot {
	switch {
	case username == "":
		return NoSlot
	case username == d.Player1Username:
		return Player1Slot
	case d.Player2Username != nil && username == *d.Player2Username:
		return Player2Slot
	}
	return NoSlot
}

func (d *Duel) IsParticipant(username string) bool {
	return d.SlotOf(username) != NoSlot
}

// Claim returns the claim stored in slot, if any.
func (d *Duel) Claim(slot ClaimSlot) *string {
	switch slot {
	case Player1Slot:
		return d.Player1SubmittedWinner
	case Player2Slot:
		return d.Player2SubmittedWinner
	}
	return nil
}

// BothClaimed reports whether both participants have submitted.
func (d *Duel) BothClaimed() bool {
	return d.Player1SubmittedWinner != nil && d.Player2SubmittedWinner != nil
}

// ClaimsAgree reports whether both claims are present and name the same winner.
func (d *Duel) ClaimsAgree() bool {
	return d.BothClaimed() && *d.Player1SubmittedWinner == *d.Player2SubmittedWinner
}

// Sides resolves winner and loser (id, username) for a winning username.
// ok is false if winner is not a participant or player 2 has not joined.
func (d *Duel) Sides(winner string) (winnerID, loserID, loserUsername string, ok bool) {
	if d.Player2ID == nil || d.Player2Username == nil {
		return "", "", "", false
	}
	switch winner {
	case d.Player1Username:
		return d.Player1ID, *d.Player2ID, *d.Player2Username, true
	case *d.Player2Username:
		return *d.Player2ID, d.Player1ID, d.Player1Username, true
	}
	return "", "", "", false
}

// CreateDuelRequest carries the inputs of a create call.
type CreateDuelRequest struct {
	Username    string          `json:"username"`
	StakeAmount decimal.Decimal `json:"stake_amount"`
	TokenMint   string          `json:"token_mint"`
	GameID      *string         `json:"game_id,omitempty"`
	ExpiresIn   time.Duration   `json:"expires_in,omitempty"`
}

// SubmitOutcome describes what a result submission did to the duel.
type SubmitOutcome string

const (
	OutcomePending  SubmitOutcome = "pending"
	OutcomeSettled  SubmitOutcome = "settled"
	OutcomeDisputed SubmitOutcome = "disputed"
)

type SubmitResult struct {
	Duel     *Duel         `json:"duel"`
	Resolved bool          `json:"resolved"`
	Outcome  SubmitOutcome `json:"outcome"`
}

// SweepResult reports one expiry sweep.
type SweepResult struct {
	Cancelled int `json:"cancelled"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
