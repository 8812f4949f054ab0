package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/avvvet/duel-services/internal/duelsvc/apperr"
	"github.com/avvvet/duel-services/internal/duelsvc/service"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth

	users    *service.UserService
	ledger   *service.LedgerService
	duels    *service.DuelService
	verifier *service.VerificationService
	board    *service.LeaderboardService
}

func NewHandler(users *service.UserService, ledger *service.LedgerService, duels *service.DuelService,
	verifier *service.VerificationService, board *service.LeaderboardService) *Handler {
	return &Handler{
		users:    users,
		ledger:   ledger,
		duels:    duels,
		verifier: verifier,
		board:    board,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
	ErrCode string      `json:"error_code,omitempty"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) ok(w http.ResponseWriter, message string, data interface{}) {
	h.CreateResponse(w, Response{Message: message, Code: http.StatusOK, Data: data})
}

// fail writes err with the status its kind maps to.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	rsp := Response{
		Message: http.StatusText(status),
		Code:    status,
		ErrCode: string(apperr.CodeOf(err)),
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		rsp.Error = appErr.Error()
	} else {
		// internal details stay in the log
		log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
		rsp.Error = "internal error"
	}
	h.CreateResponse(w, rsp)
}

// StatusFor maps an error's kind to an HTTP status.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindInsufficientFunds, apperr.KindInsufficientLockedFunds:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body: %s", err)
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", key)
	}
	return n, nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.ok(w, "duel service is running", nil)
}
