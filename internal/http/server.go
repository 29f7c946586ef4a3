// Package http exposes the ledger service as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"moneymate/internal/log"
	"moneymate/internal/metrics"
	"moneymate/internal/middleware/ratelimit"
	"moneymate/internal/services"
)

// Options carries the optional collaborators of a Server.
type Options struct {
	Logger  *log.Logger
	Metrics *metrics.Metrics
	// Limiter throttles /api requests per client IP. Nil disables it.
	Limiter *ratelimit.Limiter
	// Now is the clock "today" is derived from.
	Now func() time.Time
	// OnShutdown runs once after the listener has stopped.
	OnShutdown func()
}

type Server struct {
	http.Server
	limiter      *ratelimit.Limiter
	onShutdown   func()
	shutdownOnce sync.Once
}

func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           newRouter(svc, opts),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		limiter:    opts.Limiter,
		onShutdown: opts.OnShutdown,
	}
	return s
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the rate limiter. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
		if s.limiter != nil {
			s.limiter.Stop()
		}
		if s.onShutdown != nil {
			s.onShutdown()
		}
	})
	return shutdownErr
}
