package middleware

import (
	"github.com/deppfellow/produto-service/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Middlewares groups all middleware components used by the HTTP server,
// built once from the application container and reused by the router.
type Middlewares struct {
	// Global: CORS, request logging, recovery, secure headers and the
	// echo error handler.
	Global *GlobalMiddlewares

	// ContextEnhancer attaches a request-scoped logger (request_id, method,
	// path, ip, optional trace metadata).
	ContextEnhancer *ContextEnhancer

	// Tracing starts New Relic transactions and adds request attributes.
	Tracing *TracingMiddleware

	// RateLimit enforces server.rate_limit per client IP and records
	// RateLimitHit events.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs every middleware component.
//
// When New Relic is not configured nrApp is nil and the tracing
// middleware degrades into a pass-through.
func NewMiddlewares(s *server.Server) *Middlewares {
	// LoggerService owns the New Relic application; GetApplication returns
	// nil when the license key is missing.
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
