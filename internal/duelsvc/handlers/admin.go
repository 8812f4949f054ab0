package handlers

import (
	"context"
	"net/http"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

type walletRequest struct {
	Username string          `json:"username"`
	Token    string          `json:"token"`
	Amount   decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Token  string          `json:"token"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) SweepExpired(w http.ResponseWriter, r *http.Request) {
	res, err := h.duels.SweepExpired(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "sweep complete", res)
}

func (h *Handler) VerifyDispute(w http.ResponseWriter, r *http.Request) {
	res, err := h.verifier.VerifyDispute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res.Reason, res)
}

func (h *Handler) RefreshRanks(w http.ResponseWriter, r *http.Request) {
	n, err := h.board.RefreshRanks(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "ranks refreshed", map[string]int{"updated": n})
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.walletOp(w, r, h.ledger.Deposit)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.walletOp(w, r, h.ledger.Withdraw)
}

func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	h.walletOp(w, r, h.ledger.Lock)
}

func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	h.walletOp(w, r, h.ledger.Unlock)
}

type walletFunc func(ctx context.Context, userID, token string, amount decimal.Decimal) (*models.Wallet, error)

func (h *Handler) walletOp(w http.ResponseWriter, r *http.Request, op walletFunc) {
	var req walletRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.users.Resolve(r.Context(), req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	wallet, err := op(r.Context(), user.ID, req.Token, req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "wallet updated", wallet)
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	from, err := h.users.Resolve(r.Context(), req.From)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := h.users.Resolve(r.Context(), req.To)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.ledger.Transfer(r.Context(), from.ID, to.ID, req.Token, req.Amount); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "transfer complete", nil)
}
