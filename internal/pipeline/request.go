package pipeline

import (
	"context"

	"github.com/deppfellow/produto-service/internal/auth"
	"github.com/deppfellow/produto-service/internal/database"
	"github.com/deppfellow/produto-service/internal/validation"
	"github.com/rs/zerolog"
)

// Request is the transport-neutral view of one invocation.
// Adapters build it once; nothing in the pipeline mutates it.
type Request struct {
	Method      string
	Route       string
	Body        []byte
	PathParams  map[string]string
	QueryParams map[string]string
	Headers     map[string]string
	RequestID   string
	TraceID     string
}

// HandlerFunc is the body of an endpoint. It runs after every declared
// stage succeeded.
type HandlerFunc func(ctx context.Context, inv *Invocation) (*Result, error)

// Endpoint declares which stages run in front of Handler.
type Endpoint struct {
	// Operation names the endpoint in logs and traces.
	Operation string

	// Permissions must all be granted. Empty means no authentication.
	Permissions []string

	// Paginated parses skip/limit from the query string.
	Paginated bool

	// Body builds an empty DTO to decode into. Nil means the body is ignored.
	Body func() validation.Validatable

	// OptionalBody treats an empty body as "{}".
	OptionalBody bool

	// NeedsDB opens a session for the handler.
	NeedsDB bool

	Handler HandlerFunc
}

// Invocation carries what the stages produced to the handler.
type Invocation struct {
	Request    Request
	Identity   *auth.Identity
	Pagination validation.Pagination
	Body       validation.Validatable
	Session    *database.Session
	Logger     *zerolog.Logger
}

// PathParam returns the named path parameter, or "".
func (inv *Invocation) PathParam(name string) string {
	return inv.Request.PathParams[name]
}
