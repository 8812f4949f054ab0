package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
)

const (
	claimUsername = "username"
	claimAdmin    = "admin"
)

func (h *Handler) InitAuth(secret []byte) {
	h.tokenAuth = jwtauth.New("HS256", secret, nil)
}

// IssueToken signs a token for username, for operators and tests.
func (h *Handler) IssueToken(username string, admin bool, ttl time.Duration) (string, error) {
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		claimUsername: username,
		claimAdmin:    admin,
		"exp":         time.Now().Add(ttl).Unix(),
	})
	return tokenString, err
}

// username is the authenticated caller; empty when the claim is missing.
func username(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return ""
	}
	name, _ := claims[claimUsername].(string)
	return name
}

// AdminOnly rejects tokens without admin=true.
func (h *Handler) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			h.CreateResponse(w, Response{Message: "unauthorized", Code: http.StatusUnauthorized})
			return
		}
		if admin, _ := claims[claimAdmin].(bool); !admin {
			h.CreateResponse(w, Response{Message: "forbidden", Code: http.StatusForbidden, Error: "admin token required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser rejects tokens that carry no username.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if username(r) == "" {
			h.CreateResponse(w, Response{Message: "unauthorized", Code: http.StatusUnauthorized, Error: "token has no username"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
