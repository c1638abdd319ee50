// Package pipeline drives every endpoint through the same ordered stages:
//
//	auth -> pagination -> body -> session -> handler -> commit
//
// A failure at any stage stops the remaining ones, rolls back the session
// if one was opened, and is converted into an error Envelope exactly once.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/deppfellow/produto-service/internal/auth"
	"github.com/deppfellow/produto-service/internal/database"
	"github.com/deppfellow/produto-service/internal/logger"
	"github.com/deppfellow/produto-service/internal/validation"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Authenticator resolves the caller and checks required permissions.
// *auth.Gate satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, headers map[string]string, required []string) (*auth.Identity, error)
}

var errNoResult = errors.New("handler returned no result")

type Pipeline struct {
	auth     Authenticator
	sessions database.SessionProvider
	logger   *zerolog.Logger
	nrApp    *newrelic.Application
}

// New builds a Pipeline. nrApp may be nil.
func New(authn Authenticator, sessions database.SessionProvider, logger *zerolog.Logger, nrApp *newrelic.Application) *Pipeline {
	return &Pipeline{
		auth:     authn,
		sessions: sessions,
		logger:   logger,
		nrApp:    nrApp,
	}
}

// Run executes ep for req and always returns an Envelope.
func (p *Pipeline) Run(ctx context.Context, ep Endpoint, req Request) Envelope {
	start := time.Now()

	txn := newrelic.FromContext(ctx)
	if txn == nil && p.nrApp != nil {
		txn = p.nrApp.StartTransaction(ep.Operation)
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	logCtx := p.logger.With().
		Str("request_id", req.RequestID).
		Str("operation", ep.Operation).
		Str("method", req.Method).
		Str("route", req.Route)
	if req.TraceID != "" {
		logCtx = logCtx.Str("trace_id", req.TraceID)
	}
	for name, value := range req.PathParams {
		logCtx = logCtx.Str(name, value)
	}
	log := logger.WithTraceContext(logCtx.Logger(), txn)

	if txn != nil {
		txn.AddAttribute("handler.name", ep.Operation)
		txn.AddAttribute("request.id", req.RequestID)
	}

	inv := &Invocation{Request: req, Logger: &log}
	result, err := p.safeExecute(ctx, ep, inv)
	duration := time.Since(start)

	if err != nil {
		httpErr := Classify(err)

		event := log.Warn()
		if httpErr.Status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Err(err).
			Int("status", httpErr.Status).
			Str("code", httpErr.Code).
			Dur("total_duration", duration).
			Msg("request failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("http.status_code", httpErr.Status)
		}

		return Failure(httpErr)
	}

	env := Success(result)

	log.Info().
		Int("status", env.Status).
		Dur("total_duration", duration).
		Msg("request completed")

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("http.status_code", env.Status)
		txn.AddAttribute("total.duration_ms", duration.Milliseconds())
	}

	return env
}

// safeExecute turns a panic into an error. The session guard in execute
// has already rolled back by the time recover runs.
func (p *Pipeline) safeExecute(ctx context.Context, ep Endpoint, inv *Invocation) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = pkgerrors.Errorf("panic: %v", r)
		}
	}()

	return p.execute(ctx, ep, inv)
}

func (p *Pipeline) execute(ctx context.Context, ep Endpoint, inv *Invocation) (*Result, error) {
	if len(ep.Permissions) > 0 {
		identity, err := p.auth.Authenticate(ctx, inv.Request.Headers, ep.Permissions)
		if err != nil {
			return nil, err
		}
		inv.Identity = identity
	}

	if ep.Paginated {
		page, err := validation.ParsePagination(inv.Request.QueryParams)
		if err != nil {
			return nil, err
		}
		inv.Pagination = page
	}

	if ep.Body != nil {
		body := inv.Request.Body
		if ep.OptionalBody && len(bytes.TrimSpace(body)) == 0 {
			body = []byte("{}")
		}

		payload := ep.Body()
		if err := validation.ParseAndValidate(body, payload); err != nil {
			return nil, err
		}
		inv.Body = payload
	}

	if ep.NeedsDB {
		session, err := p.sessions.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		inv.Session = session

		// No-op after a successful commit.
		defer func() {
			if err := session.Rollback(); err != nil {
				inv.Logger.Warn().Err(err).Msg("rollback failed")
			}
		}()
	}

	result, err := ep.Handler(ctx, inv)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		return nil, errNoResult
	}

	if inv.Session != nil {
		if err := inv.Session.Commit(ctx); err != nil {
			return nil, err
		}
	}

	return result, nil
}
