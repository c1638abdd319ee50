package middleware

import (
	"net/http"

	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/deppfellow/produto-service/internal/pipeline"
	"github.com/deppfellow/produto-service/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware limits requests per client IP with echo's in-memory
// store. A zero server.rate_limit disables it.
type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Limit returns echo's rate limiter.
//
// Behavior:
//   - server.rate_limit requests per second per client IP (burst equals the rate)
//   - a denied request gets a 429 failure envelope
//   - every denial records a RateLimitHit New Relic event
//
// The in-memory store is per process; limits are not shared between
// replicas. The Lambda transport relies on API Gateway throttling instead.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	perSecond := r.server.Config.Server.RateLimit
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStore(rate.Limit(perSecond)),
		// RealIP honours X-Forwarded-For / X-Real-IP behind a proxy.
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			GetLogger(c).Warn().Str("client", identifier).Msg("rate limit exceeded")
			return c.JSON(http.StatusTooManyRequests, pipeline.Envelope{
				Status: http.StatusTooManyRequests,
				Code:   errs.MakeUpperCaseWithUnderscores(http.StatusText(http.StatusTooManyRequests)),
				Error:  "Rate limit exceeded",
			})
		},
	})
}

// RecordRateLimitHit records a New Relic custom event for the endpoint.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if app := r.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("RateLimitHit", map[string]any{
			"endpoint": endpoint,
		})
	}
}
