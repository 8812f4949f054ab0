package handlers

import (
	"net/http"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/apperr"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/avvvet/duel-services/internal/duelsvc/service"
	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

type createDuelRequest struct {
	StakeAmount      decimal.Decimal `json:"stake_amount"`
	TokenMint        string          `json:"token_mint"`
	GameID           *string         `json:"game_id"`
	ExpiresInSeconds int64           `json:"expires_in_seconds"`
}

type submitResultRequest struct {
	Winner string `json:"winner"`
}

func (h *Handler) CreateDuel(w http.ResponseWriter, r *http.Request) {
	var req createDuelRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	// bounded before conversion so the duration cannot overflow
	maxSeconds := int64(service.MaxDuelTTL / time.Second)
	if req.ExpiresInSeconds < 0 || req.ExpiresInSeconds > maxSeconds {
		h.fail(w, r, apperr.Validation("expires_in_seconds must be between 0 and %d", maxSeconds))
		return
	}

	duel, err := h.duels.CreateDuel(r.Context(), models.CreateDuelRequest{
		Username:    username(r),
		StakeAmount: req.StakeAmount,
		TokenMint:   req.TokenMint,
		GameID:      req.GameID,
		ExpiresIn:   time.Duration(req.ExpiresInSeconds) * time.Second,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "duel created", Code: http.StatusCreated, Data: duel})
}

func (h *Handler) JoinDuel(w http.ResponseWriter, r *http.Request) {
	duel, err := h.duels.JoinDuel(r.Context(), chi.URLParam(r, "id"), username(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "duel joined", duel)
}

func (h *Handler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var req submitResultRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.duels.SubmitResult(r.Context(), chi.URLParam(r, "id"), username(r), req.Winner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "result "+string(res.Outcome), res)
}

func (h *Handler) CancelDuel(w http.ResponseWriter, r *http.Request) {
	duel, err := h.duels.CancelDuel(r.Context(), chi.URLParam(r, "id"), username(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "duel cancelled", duel)
}

func (h *Handler) GetDuel(w http.ResponseWriter, r *http.Request) {
	duel, err := h.duels.GetDuel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "duel", duel)
}

func (h *Handler) ListDuels(w http.ResponseWriter, r *http.Request) {
	status := models.DuelStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusOpen
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	duels, err := h.duels.ListDuels(r.Context(), status, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "duels", duels)
}
