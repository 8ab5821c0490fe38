package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/expense-portal/internal/expense"
	"github.com/frahmantamala/expense-portal/internal/profile"
	"github.com/frahmantamala/expense-portal/internal/refdata"
	"github.com/frahmantamala/expense-portal/internal/session"
	"github.com/frahmantamala/expense-portal/internal/transport/middleware"
	"github.com/frahmantamala/expense-portal/internal/transport/swagger"
)

// Dependencies is everything the router needs wired in by the composition
// root.
type Dependencies struct {
	APIKey         string
	AllowedOrigins string
	TokenValidator middleware.TokenValidator
	Profiles       profile.Repository
	SessionHandler *session.Handler
	ExpenseHandler *expense.Handler
	RefDataHandler *refdata.Handler
	HealthHandler  *HealthHandler
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))

	// OpenAPI spec and swagger UI live outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", deps.HealthHandler.healthCheckHandler)
		r.Get("/ping", deps.HealthHandler.pingHandler)

		// everything below requires the backend's public API key
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKey(deps.APIKey))

			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", deps.SessionHandler.Login)
				sr.Post("/signup", deps.SessionHandler.SignUp)
				sr.Post("/logout", deps.SessionHandler.Logout)
				sr.Get("/session", deps.SessionHandler.Session)
				sr.Post("/resume", deps.SessionHandler.Resume)
			})

			// authenticated API
			r.Group(func(ar chi.Router) {
				ar.Use(middleware.Authenticate(deps.TokenValidator, deps.Profiles, deps.Logger))

				ar.Route("/expenses", func(er chi.Router) {
					er.Get("/", deps.ExpenseHandler.List)
					er.Post("/", deps.ExpenseHandler.Create)
					er.Get("/{id}", deps.ExpenseHandler.Get)
					er.Patch("/{id}/status", deps.ExpenseHandler.UpdateStatus)
					er.Patch("/{id}/payment", deps.ExpenseHandler.UpdatePaymentStatus)
					er.Delete("/{id}", deps.ExpenseHandler.Delete)
				})

				ar.Get("/receipts/url", deps.ExpenseHandler.ReceiptURL)
				ar.Get("/categories", deps.RefDataHandler.ListCategories)
				ar.Get("/cost-centers", deps.RefDataHandler.ListCostCenters)
			})
		})
	})
}
