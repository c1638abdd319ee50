package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/deppfellow/produto-service/internal/pipeline"
	"github.com/deppfellow/produto-service/internal/server"
	"github.com/rs/zerolog"
)

// HealthHandler serves the liveness (/health) and dependency (/status) checks.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// Health reports that the process is up. It touches no dependency and
// needs no credentials.
func (h *HealthHandler) Health() pipeline.Endpoint {
	return pipeline.Endpoint{
		Operation: "health_check",
		Handler: func(context.Context, *pipeline.Invocation) (*pipeline.Result, error) {
			cfg := h.server.Config
			return pipeline.OK(map[string]any{
				"status":      "healthy",
				"service":     cfg.Primary.Service,
				"version":     cfg.Primary.Version,
				"environment": cfg.Primary.Env,
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
			}), nil
		},
	}
}

// Status pings the configured dependencies.
//
// It answers 503 when the database is down. Redis is reported but does
// not change the status: the service runs without it.
func (h *HealthHandler) Status() pipeline.Endpoint {
	return pipeline.Endpoint{
		Operation: "status_check",
		Handler: func(ctx context.Context, inv *pipeline.Invocation) (*pipeline.Result, error) {
			return h.checkStatus(ctx, inv.Logger), nil
		},
	}
}

func (h *HealthHandler) checkStatus(ctx context.Context, logger *zerolog.Logger) *pipeline.Result {
	start := time.Now()
	hc := h.server.Config.Observability.HealthChecks

	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.server.Config.Primary.Env,
	}
	if !hc.Enabled {
		return pipeline.OK(response)
	}

	checks := make(map[string]any)
	response["checks"] = checks
	isHealthy := true

	if slices.Contains(hc.Checks, "database") {
		check := h.runCheck(ctx, logger, "database", hc.Timeout, h.server.DB.Ping)
		checks["database"] = check
		if check["status"] != "healthy" {
			isHealthy = false
		}
	}

	if slices.Contains(hc.Checks, "redis") && h.server.Redis != nil {
		checks["redis"] = h.runCheck(ctx, logger, "redis", hc.Timeout, func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		return &pipeline.Result{Status: http.StatusServiceUnavailable, Data: response}
	}

	return pipeline.OK(response)
}

func (h *HealthHandler) runCheck(
	ctx context.Context,
	logger *zerolog.Logger,
	name string,
	timeout time.Duration,
	ping func(context.Context) error,
) map[string]any {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error().
			Err(err).
			Str("check", name).
			Dur("response_time", elapsed).
			Msg("health check failed")

		if app := h.server.LoggerService.GetApplication(); app != nil {
			app.RecordCustomEvent("HealthCheckError", map[string]any{
				"check_type":       name,
				"operation":        "health_check",
				"error_type":       name + "_unhealthy",
				"response_time_ms": elapsed.Milliseconds(),
				"error_message":    err.Error(),
			})
		}

		return map[string]any{
			"status":        "unhealthy",
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}
	}

	logger.Debug().
		Str("check", name).
		Dur("response_time", elapsed).
		Msg("health check passed")

	return map[string]any{
		"status":        "healthy",
		"response_time": elapsed.String(),
	}
}
