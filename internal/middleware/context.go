package middleware

import (
	"github.com/deppfellow/produto-service/internal/logger"
	"github.com/deppfellow/produto-service/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// LoggerKey is the echo context key of the request-scoped logger.
const LoggerKey = "logger"

// ContextEnhancer builds a request-scoped logger with:
//   - request_id
//   - method, path (route template), ip
//   - trace.id/span.id when a New Relic transaction exists
//
// The access log and GlobalErrorHandler read it back through GetLogger.
// The pipeline derives its own per-invocation logger from the server
// logger, so endpoint lines do not depend on this middleware.
type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext returns an echo middleware.
//
// For every request, it:
//  1. reads the request ID set by RequestID (must run first)
//  2. creates a child logger with the request fields
//  3. adds trace context if NewRelicMiddleware started a transaction
//  4. stores the logger on the echo context
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contextLogger := ce.server.Logger.With().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Path()). // route template, e.g. /products/:product_id
				Str("ip", c.RealIP()).
				Logger()

			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			c.Set(LoggerKey, &contextLogger)

			return next(c)
		}
	}
}

// GetLogger returns the request logger.
//
// If EnhanceContext did not run (e.g. in a test context), it returns a
// no-op logger so callers never nil-check.
func GetLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return logger
	}

	logger := zerolog.Nop()
	return &logger
}
