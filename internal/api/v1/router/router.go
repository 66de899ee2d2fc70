package router

import (
	"context"
	"net/http"
	"time"

	"backoffice/internal/api/v1/handler"
	"backoffice/internal/app"
	"backoffice/internal/config"
	"backoffice/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New mounts the API under /v1. The application form, the Stripe webhook
// and the dead-letter push endpoint are public; everything else requires an
// admin token.
func New(cfg *config.Config, s *app.Services, logger zerolog.Logger) http.Handler {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	validate := validator.New(validator.WithRequiredStructEnabled())

	customerHandler := handler.NewCustomerHandler(s.Customers, validate, logger)
	accountHandler := handler.NewAccountHandler(s.Accounts, validate, logger)
	invoiceHandler := handler.NewInvoiceHandler(s.Invoices, validate, logger)
	formHandler := handler.NewFormHandler(s.Forms, validate, logger)
	companyHandler := handler.NewCompanyHandler(s.Company, validate, logger)
	dashboardHandler := handler.NewDashboardHandler(s.Dashboard, logger)
	dlqHandler := handler.NewDLQHandler(s.DLQ, logger)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, cfg.IsAdmin, logger)
	isLocalDev := cfg.PubSubEmulatorHost != ""
	pubsubAuthMiddleware := middleware.PubSubAuthMiddleware(isLocalDev, cfg.DLQEndpointURL, cfg.PubSubPushServiceAccount, logger)

	r := chi.NewRouter()
	r.Use(middleware.LoggerMiddleware(logger, s.Metrics))

	r.Get("/healthz", healthz(s))
	r.Handle("/metrics", s.Metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		formHandler.RegisterPublicRoutes(r)
		r.Post("/stripe/webhook", stripeWebhook(s))
		r.Group(func(r chi.Router) {
			r.Use(pubsubAuthMiddleware)
			dlqHandler.RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			customerHandler.RegisterRoutes(r)
			accountHandler.RegisterRoutes(r)
			invoiceHandler.RegisterRoutes(r)
			formHandler.RegisterRoutes(r)
			companyHandler.RegisterRoutes(r)
			dashboardHandler.RegisterRoutes(r)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func healthz(s *app.Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := s.DB.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	}
}

func stripeWebhook(s *app.Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.StripeWebhook == nil {
			http.Error(w, "Stripe is not configured", http.StatusServiceUnavailable)
			return
		}
		s.StripeWebhook.HandleWebhook(w, r)
	}
}
