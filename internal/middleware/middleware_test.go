package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/produto-service/internal/config"
	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/deppfellow/produto-service/internal/pipeline"
	"github.com/deppfellow/produto-service/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(rateLimit float64) *server.Server {
	log := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "local"},
			Server:  config.ServerConfig{RateLimit: rateLimit, CORSAllowedOrigins: []string{"*"}},
		},
		Logger: &log,
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) pipeline.Envelope {
	t.Helper()
	var env pipeline.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/x", func(c echo.Context) error {
		return c.String(http.StatusOK, GetRequestID(c))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.NotEmpty(t, rec.Body.String())
	assert.Equal(t, rec.Body.String(), rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "abc", rec.Body.String())
}

func TestGlobalErrorHandlerUnknownRoute(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(newTestServer(0)).GlobalErrorHandler

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Route not found", env.Error)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestGlobalErrorHandlerHidesInternalErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(newTestServer(0)).GlobalErrorHandler
	e.GET("/boom", func(echo.Context) error {
		return errors.New("password=hunter2")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
	assert.Equal(t, "Internal server error", decode(t, rec).Error)
}

func TestRequestLoggerUsesStatusOfReturnedError(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	s := newTestServer(0)
	s.Logger = &log

	global := NewGlobalMiddlewares(s)
	e := echo.New()
	e.HTTPErrorHandler = global.GlobalErrorHandler
	e.Use(RequestID(), NewContextEnhancer(s).EnhanceContext(), global.RequestLogger())
	e.GET("/conflict", func(echo.Context) error {
		return errs.NewConflictError("Product with SKU X already exists", true, nil)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	require.Equal(t, http.StatusConflict, rec.Code)

	var access map[string]any
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		if line["message"] == "API" {
			access = line
		}
	}

	require.NotNil(t, access)
	assert.Equal(t, float64(http.StatusConflict), access["status"])
	assert.Equal(t, "warn", access["level"])
	assert.NotEmpty(t, access["request_id"])
}

func TestRateLimitDeniesBurst(t *testing.T) {
	s := newTestServer(1)
	e := echo.New()
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	codes := map[int]int{}
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes[rec.Code]++
	}

	assert.Positive(t, codes[http.StatusOK])
	assert.Positive(t, codes[http.StatusTooManyRequests])
}

func TestRateLimitDisabledAtZero(t *testing.T) {
	e := echo.New()
	e.Use(NewRateLimitMiddleware(newTestServer(0)).Limit())
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
