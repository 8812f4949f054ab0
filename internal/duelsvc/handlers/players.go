package handlers

import (
	"net/http"

	"github.com/go-chi/chi"
)

type createWalletRequest struct {
	Token string `json:"token"`
}

// RegisterPlayer creates the account for the token's username.
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.RegisterPlayer(r.Context(), username(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "player registered", Code: http.StatusCreated, Data: user})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Profile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "profile", profile)
}

func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.users.Resolve(r.Context(), username(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	wallet, err := h.ledger.CreateWallet(r.Context(), user.ID, req.Token)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "wallet created", Code: http.StatusCreated, Data: wallet})
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Resolve(r.Context(), username(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	wallet, err := h.ledger.GetWallet(r.Context(), user.ID, chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "wallet", wallet)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.users.Resolve(r.Context(), username(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entries, err := h.ledger.ListEntries(r.Context(), user.ID, chi.URLParam(r, "token"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "ledger entries", entries)
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entries, err := h.board.GetLeaderboard(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "leaderboard", entries)
}

func (h *Handler) GetStanding(w http.ResponseWriter, r *http.Request) {
	entry, err := h.board.GetPlayerStanding(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "standing", entry)
}
