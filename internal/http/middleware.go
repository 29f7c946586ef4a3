package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// accessLog writes one structured line per request once it completes.
func (h *handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.LogHTTPEnd(r.Context(), r, status(ww), time.Since(start).Milliseconds(), clientIP(r))
	})
}

// instrument records request counts and latency labelled by route pattern,
// so path parameters do not explode label cardinality.
func (h *handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.metrics.HTTPInFlight.Inc()
		defer h.metrics.HTTPInFlight.Dec()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		h.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status(ww))).Inc()
		h.metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (h *handler) rateLimited(w http.ResponseWriter, r *http.Request) {
	if h.metrics != nil {
		h.metrics.RateLimitRejects.Inc()
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
}

func status(ww chimiddleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
