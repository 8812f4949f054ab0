package handlers

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Group(func(r chi.Router) {
				r.Use(h.requireUser)

				r.Post("/players", h.RegisterPlayer)
				r.Get("/players/{username}", h.GetProfile)

				r.Post("/wallets", h.CreateWallet)
				r.Get("/wallets/{token}", h.GetWallet)
				r.Get("/wallets/{token}/entries", h.ListEntries)

				r.Post("/duels", h.CreateDuel)
				r.Get("/duels", h.ListDuels)
				r.Get("/duels/{id}", h.GetDuel)
				r.Post("/duels/{id}/join", h.JoinDuel)
				r.Post("/duels/{id}/result", h.SubmitResult)
				r.Post("/duels/{id}/cancel", h.CancelDuel)

				r.Get("/leaderboard", h.GetLeaderboard)
				r.Get("/leaderboard/{username}", h.GetStanding)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.AdminOnly)

				r.Post("/duels/sweep", h.SweepExpired)
				r.Post("/duels/{id}/verify", h.VerifyDispute)
				r.Post("/leaderboard/refresh", h.RefreshRanks)

				r.Post("/wallets/deposit", h.Deposit)
				r.Post("/wallets/withdraw", h.Withdraw)
				r.Post("/wallets/lock", h.Lock)
				r.Post("/wallets/unlock", h.Unlock)
				r.Post("/wallets/transfer", h.Transfer)
			})
		})
	})
}
