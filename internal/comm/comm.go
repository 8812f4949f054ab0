package comm

import "encoding/json"

// WSMessage is the envelope every service publishes and consumes on NATS.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "duel-settled", "deposit"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// Duel event types published on the duel.service subject.
const (
	EventDuelCreated       = "duel-created"
	EventDuelJoined        = "duel-joined"
	EventDuelResultPending = "duel-result-pending"
	EventDuelSettled       = "duel-settled"
	EventDuelDisputed      = "duel-disputed"
	EventDuelCancelled     = "duel-cancelled"
	EventDuelExpired       = "duel-expired"
)

type DuelEvent struct {
	Type      string `json:"type"`
	DuelID    string `json:"duel_id"`
	Status    string `json:"status"`
	Winner    string `json:"winner,omitempty"`
	Actor     string `json:"actor,omitempty"` // username that caused the transition, empty for jobs
	Timestamp int64  `json:"timestamp"`
}

// ClaimRequest arrives on duel.claim.
type ClaimRequest struct {
	DuelID   string `json:"duel_id"`
	Username string `json:"username"`
	Winner   string `json:"winner"`
}

// PaymentRequest arrives on payment.service for deposits and withdrawals
// confirmed outside this system.
type PaymentRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
	Amount   string `json:"amount"`
}

type WalletData struct {
	Username  string `json:"username"`
	Token     string `json:"token"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
}

type Res struct {
	Status bool   `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}
