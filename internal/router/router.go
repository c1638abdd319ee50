// Package router exposes the route table over two transports:
//
//   - NewRouter: an echo server for `produto serve`
//   - LambdaHandler: API Gateway proxy events for the Lambda entrypoint
//
// Both build a pipeline.Request and hand it to the same Pipeline.
package router

import (
	"io"
	"net/http"
	"strings"

	"github.com/deppfellow/produto-service/internal/handler"
	"github.com/deppfellow/produto-service/internal/middleware"
	"github.com/deppfellow/produto-service/internal/pipeline"
	"github.com/deppfellow/produto-service/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the echo server with the global middleware chain and
// every route of h.
func NewRouter(s *server.Server, h *handler.Handlers, p *pipeline.Pipeline) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.RateLimit.Limit(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	for _, route := range h.Routes() {
		router.Add(route.Method, echoPath(route.Path), echoHandler(p, route))
	}

	return router
}

// echoPath turns "/products/{product_id}" into "/products/:product_id".
func echoPath(resource string) string {
	segments := strings.Split(resource, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			segments[i] = ":" + strings.TrimSuffix(strings.TrimPrefix(segment, "{"), "}")
		}
	}
	return strings.Join(segments, "/")
}

func echoHandler(p *pipeline.Pipeline, route handler.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Could not read request body")
		}

		params := make(map[string]string, len(c.ParamNames()))
		for i, name := range c.ParamNames() {
			params[name] = c.ParamValues()[i]
		}

		req := pipeline.Request{
			Method:      c.Request().Method,
			Route:       route.Path,
			Body:        body,
			PathParams:  params,
			QueryParams: firstValues(c.QueryParams()),
			Headers:     firstValues(c.Request().Header),
			RequestID:   middleware.GetRequestID(c),
			TraceID:     c.Request().Header.Get(traceHeader),
		}

		env := p.Run(c.Request().Context(), route.Endpoint, req)
		return c.JSON(env.Status, env)
	}
}

func firstValues(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, vs := range values {
		if len(vs) > 0 {
			out[key] = vs[0]
		}
	}
	return out
}
