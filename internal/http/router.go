package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"moneymate/internal/log"
	"moneymate/internal/middleware/security"
	"moneymate/internal/services"
)

func newRouter(svc *services.LedgerService, opts Options) http.Handler {
	h := &handler{
		svc:     svc,
		log:     log.NewStructuredLogger(opts.Logger),
		metrics: opts.Metrics,
		now:     opts.Now,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(log.Middleware(opts.Logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return chimiddleware.GetReqID(r.Context())
	}))
	r.Use(h.accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	if opts.Metrics != nil {
		r.Use(h.instrument)
	}

	r.Get("/healthz", h.liveness)
	r.Get("/readyz", h.readiness)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api/v1/users/{userID}", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware(clientIP, h.rateLimited))
		}

		r.Get("/ledger", h.getLedger)
		r.Get("/transactions", h.listTransactions)
		r.Post("/transactions", h.createTransaction)
		r.Post("/goals", h.createGoal)
		r.Patch("/goals/{goalID}", h.updateGoal)
		r.Put("/allowance", h.setAllowance)
		r.Post("/recurring", h.createRecurring)
		r.Post("/owings", h.createOwing)
		r.Get("/dashboard", h.dashboard)
		r.Get("/insights", h.insights)
		r.Get("/export", h.exportMonth)
		r.Post("/import", h.importCSV)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed here")
	})
	return r
}
