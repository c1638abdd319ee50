package middleware

import (
	"net/http"

	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/deppfellow/produto-service/internal/pipeline"
	"github.com/deppfellow/produto-service/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// GlobalMiddlewares groups the middleware applied to every route and the
// echo error handler.
//
// It keeps a pointer to *server.Server so each middleware can read config
// (CORS origins, environment) at construction time.
type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS returns echo's CORS middleware restricted to
// server.cors_allowed_origins.
//
// The origins come from a comma separated env var; see config.LoadConfig.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
	})
}

// RequestLogger writes one "API" access log line per request.
//
// Behavior:
//   - 5xx -> Error (with the error attached)
//   - 4xx -> Warn
//   - anything else -> Info
//
// Endpoint outcomes are logged by the pipeline itself ("request completed"
// / "request failed"); this line is the transport view of the same request.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,

		// LogValuesFunc runs after the handler chain returned.
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// When a handler returns an error, the final status is written
			// later by GlobalErrorHandler, so v.Status may still read 200.
			// Derive it from the error instead.
			if v.Error != nil {
				var httpErr *errs.HTTPError
				var echoErr *echo.HTTPError

				if errors.As(v.Error, &httpErr) {
					statusCode = httpErr.Status
				} else if errors.As(v.Error, &echoErr) {
					statusCode = echoErr.Code
				}
			}

			// Request-scoped logger from ContextEnhancer: request_id, method,
			// path and ip are already attached.
			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover turns a panic outside the pipeline into an error for
// GlobalErrorHandler. Panics inside an endpoint are already recovered by
// the pipeline and never reach it.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

// Secure sets the standard security headers (X-XSS-Protection,
// X-Content-Type-Options, X-Frame-Options).
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// GlobalErrorHandler is the error funnel for everything echo raises
// outside the pipeline: unknown routes, wrong methods, recovered panics.
//
// Mapping:
//   - *errs.HTTPError: unchanged
//   - echo 404: 404 "Route not found" (same message as the Lambda router)
//   - other echo 4xx: the echo status with its message
//   - anything else: pipeline.Classify (driver errors, deadlines, 500)
//
// The response uses the same failure envelope as the pipeline.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	var httpErr *errs.HTTPError

	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
	case errors.As(err, &echoErr) && echoErr.Code == http.StatusNotFound:
		httpErr = errs.NewNotFoundError("Route not found", false, nil)
	case errors.As(err, &echoErr) && echoErr.Code < http.StatusInternalServerError:
		// echo messages are usually strings; normalize anything else to the
		// status text.
		message, ok := echoErr.Message.(string)
		if !ok {
			message = http.StatusText(echoErr.Code)
		}
		httpErr = &errs.HTTPError{
			Code:    errs.MakeUpperCaseWithUnderscores(http.StatusText(echoErr.Code)),
			Message: message,
			Status:  echoErr.Code,
		}
	default:
		httpErr = pipeline.Classify(err)
	}

	// Log the original error, not the client-facing one.
	event := GetLogger(c).Warn()
	if httpErr.Status >= http.StatusInternalServerError {
		event = GetLogger(c).Error().Stack()
	}
	event.
		Err(err).
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(httpErr.Message)

	// A handler may already have streamed a response.
	if !c.Response().Committed {
		_ = c.JSON(httpErr.Status, pipeline.Failure(httpErr))
	}
}
