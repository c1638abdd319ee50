package router

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/deppfellow/produto-service/internal/handler"
	"github.com/deppfellow/produto-service/internal/pipeline"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const traceHeader = "X-Amzn-Trace-Id"

// LambdaHandler adapts API Gateway proxy events to the pipeline.
//
// Events are routed by HTTPMethod and Resource ("/products/{product_id}").
// Proxy integrations ("/{proxy+}") fall back to matching Path against the
// route templates.
type LambdaHandler struct {
	pipeline *pipeline.Pipeline
	routes   []handler.Route
	logger   *zerolog.Logger
}

func NewLambdaHandler(p *pipeline.Pipeline, routes []handler.Route, logger *zerolog.Logger) *LambdaHandler {
	return &LambdaHandler{pipeline: p, routes: routes, logger: logger}
}

// Handle never returns an error: every failure is answered with an envelope.
func (h *LambdaHandler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := requestIDFrom(ctx, event)

	route, params, ok := h.match(event)
	if !ok {
		h.logger.Warn().
			Str("request_id", requestID).
			Str("method", event.HTTPMethod).
			Str("path", event.Path).
			Str("resource", event.Resource).
			Msg("route not found")
		return respond(requestID, pipeline.Failure(errs.NewNotFoundError("Route not found", false, nil))), nil
	}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return respond(requestID, pipeline.Failure(errs.NewBadRequestError("Invalid base64 body", true, nil, nil, nil))), nil
		}
		body = decoded
	}

	headers := event.Headers
	if len(headers) == 0 {
		headers = firstValues(event.MultiValueHeaders)
	}

	query := event.QueryStringParameters
	if len(query) == 0 {
		query = firstValues(event.MultiValueQueryStringParameters)
	}

	req := pipeline.Request{
		Method:      event.HTTPMethod,
		Route:       route.Path,
		Body:        body,
		PathParams:  params,
		QueryParams: query,
		Headers:     headers,
		RequestID:   requestID,
		TraceID:     headerLookup(headers, traceHeader),
	}

	return respond(requestID, h.pipeline.Run(ctx, route.Endpoint, req)), nil
}

func (h *LambdaHandler) match(event events.APIGatewayProxyRequest) (handler.Route, map[string]string, bool) {
	for _, route := range h.routes {
		if route.Method == event.HTTPMethod && route.Path == event.Resource {
			params := event.PathParameters
			if params == nil {
				params = map[string]string{}
			}
			return route, params, true
		}
	}

	for _, route := range h.routes {
		if route.Method != event.HTTPMethod {
			continue
		}
		if params, ok := matchTemplate(route.Path, event.Path); ok {
			return route, params, true
		}
	}

	return handler.Route{}, nil, false
}

// matchTemplate matches "/products/abc" against "/products/{product_id}".
func matchTemplate(template, path string) (map[string]string, bool) {
	want := strings.Split(strings.Trim(template, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return nil, false
	}

	params := map[string]string{}
	for i, segment := range want {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			if got[i] == "" {
				return nil, false
			}
			params[strings.Trim(segment, "{}")] = got[i]
			continue
		}
		if segment != got[i] {
			return nil, false
		}
	}

	return params, true
}

func requestIDFrom(ctx context.Context, event events.APIGatewayProxyRequest) string {
	if event.RequestContext.RequestID != "" {
		return event.RequestContext.RequestID
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}

func headerLookup(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

func respond(requestID string, env pipeline.Envelope) events.APIGatewayProxyResponse {
	headers := map[string]string{
		"Content-Type": "application/json",
		"X-Request-ID": requestID,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers,
			Body:       `{"status":500,"code":"INTERNAL_SERVER_ERROR","error":"Internal server error"}`,
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: env.Status,
		Headers:    headers,
		Body:       string(body),
	}
}
