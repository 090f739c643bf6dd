package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/amezhanin/affilibot/internal/app/handlers"
	middlware "github.com/amezhanin/affilibot/internal/app/middleware"
)

func NewAppRouter(ph *handlers.PostbackHandler, ah *handlers.AdminHandler, am middlware.AuthMiddleware) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middlware.RequestLogger)
	r.Use(middlware.ResponseLogger)

	r.Get("/postback", ph.Postback)
	r.Post("/api/admin/login", ah.Login)

	r.Group(func(r chi.Router) {
		r.Use(am.Authenticate)

		r.Get("/api/admin/withdrawals", ah.ListWithdrawals)
		r.Post("/api/admin/withdrawals/{id}/decide", ah.DecideWithdrawal)
		r.Get("/api/admin/campaigns", ah.ListCampaigns)
		r.Post("/api/admin/campaigns", ah.CreateCampaign)
	})
	return r
}
