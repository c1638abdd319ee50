package middleware

import (
	"github.com/deppfellow/produto-service/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// TracingMiddleware owns the New Relic echo middleware.
//
// It has two layers:
//  1. NewRelicMiddleware() -> starts a transaction per request
//  2. EnhanceTracing()     -> adds custom attributes and notices errors
//
// The pipeline picks the transaction up with newrelic.FromContext instead
// of starting its own, so one HTTP request is one transaction.
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application // nil when New Relic is disabled
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware returns nrecho.Middleware, which:
//   - starts a transaction for each request
//   - stores it in the request context
//   - records timing and status codes
//
// If nrApp is nil it is a pass-through.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing adds request attributes to the transaction started by
// NewRelicMiddleware (must run after it).
//
// What it adds:
//   - client IP and user agent
//   - service environment
//   - request id (if RequestID ran)
//   - response status code (after the handler)
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// nil when New Relic is disabled or the middleware order is wrong.
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			txn.AddAttribute("http.real_ip", c.RealIP())
			txn.AddAttribute("http.user_agent", c.Request().UserAgent())
			txn.AddAttribute("service.environment", tm.server.Config.Primary.Env)

			if requestID := GetRequestID(c); requestID != "" {
				txn.AddAttribute("request.id", requestID)
			}

			err := next(c)

			// Pipeline failures are answered as envelopes and never surface
			// here; this catches echo errors (404, 405, panics). The error is
			// still returned so GlobalErrorHandler writes the response.
			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}

			// Known only after the handler ran.
			txn.AddAttribute("http.status_code", c.Response().Status)

			return err
		}
	}
}
