package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bnp/financing/internal/adapter/http/handler"
	"github.com/bnp/financing/internal/adapter/http/middleware"
	"github.com/bnp/financing/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LoanHandler        *handler.LoanHandler
	PaymentHandler     *handler.PaymentHandler
	PayoffHandler      *handler.PayoffHandler
	DelinquencyHandler *handler.DelinquencyHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	RateLimiter        *middleware.RateLimiter
	Logging            *middleware.LoggingMiddleware
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.Logging != nil {
		r.Use(cfg.Logging.Wrap)
	} else {
		r.Use(chimiddleware.Logger)
	}
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", cfg.LoanHandler.Originate)
			r.Get("/", cfg.LoanHandler.List)
			r.Get("/consistency", cfg.LoanHandler.CheckConsistency)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.LoanHandler.Get)
				r.Get("/installments", cfg.LoanHandler.ListInstallments)
				r.Post("/activate", cfg.LoanHandler.Activate)
				r.Post("/normalize", cfg.LoanHandler.Normalize)
				r.Post("/cancel", cfg.LoanHandler.Cancel)
				r.Post("/payments", cfg.PaymentHandler.RecordPayment)
				r.Post("/installments/{number}/delinquent", cfg.PaymentHandler.MarkDelinquent)
				r.Post("/installments/{number}/litigation", cfg.PaymentHandler.MarkInLitigation)
				r.Get("/payoff", cfg.PayoffHandler.Quote)
				r.Post("/payoff", cfg.PayoffHandler.Apply)
			})
		})

		r.Post("/delinquency/sweep", cfg.DelinquencyHandler.Sweep)
	})

	return r
}
