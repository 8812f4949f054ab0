package models

import "time"

// GameProfile links a user to their identity in an external game.
type GameProfile struct {
	ID       string `json:"id" bson:"_id"`
	UserID   string `json:"user_id" bson:"user_id"`
	GameID   string `json:"game_id" bson:"game_id"`
	PlayerID string `json:"player_id" bson:"player_id"`
}

// MatchRecord is one recorded match outcome for a game profile.
type MatchRecord struct {
	ID            string    `json:"id" bson:"_id"`
	GameProfileID string    `json:"game_profile_id" bson:"game_profile_id"`
	Won           bool      `json:"won" bson:"won"`
	MVP           bool      `json:"mvp" bson:"mvp"`
	PlayedAt      time.Time `json:"played_at" bson:"played_at"`
}

// VerificationResult is the outcome of checking a disputed duel against
// external match records.
type VerificationResult struct {
	DuelID         string  `json:"duel_id"`
	Verified       bool    `json:"verified"`
	WinnerUsername *string `json:"winner_username"`
	Reason         string  `json:"reason"`
	Duel           *Duel   `json:"duel,omitempty"`
}
