package httpserver

import (
	"net/http"
	"time"

	"policy-records-go/internal/config"
	"policy-records-go/internal/transport/httpserver/handler"
	authmw "policy-records-go/internal/transport/httpserver/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, auth *authmw.SessionAuth) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Get("/plans", handlers.ListPlans)
		r.Post("/referrals/validate", handlers.ValidateReferral)
		r.Post("/auth/signup", handlers.Signup)
		r.Post("/auth/login", handlers.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/auth/logout", handlers.Logout)
			r.Get("/auth/me", handlers.AuthMe)
			r.Patch("/profile", handlers.UpdateProfile)

			r.Get("/records", handlers.ListRecords)
			r.Post("/records", handlers.CreateRecord)
			r.Get("/records/template", handlers.RecordTemplate)
			r.Get("/records/{id}", handlers.GetRecord)
			r.Patch("/records/{id}", handlers.UpdateRecord)
			r.Delete("/records/{id}", handlers.DeleteRecord)

			r.Get("/plans/{plan_id}/quote", handlers.QuotePlan)
			r.Post("/plans/{plan_id}/purchase", handlers.PurchasePlan)

			r.Get("/referrals/stats", handlers.ReferralStats)
			r.Post("/referrals/stats/rebuild", handlers.RebuildReferralStats)
			r.Get("/referrals/transactions", handlers.ReferralTransactions)
			r.Get("/referrals/link", handlers.ReferralLink)
		})
	})

	return r
}
