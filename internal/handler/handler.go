// Package handler is the first layer. The first entry point
// for business logic after the router.
//
// Each operation is declared as a pipeline.Endpoint: the permissions it
// needs, whether it paginates, which DTO its body decodes into and
// whether it runs in a database session. The handler body coerces path
// parameters, calls exactly one service method and maps the result.
package handler

import (
	"github.com/deppfellow/produto-service/internal/pipeline"
	"github.com/deppfellow/produto-service/internal/server"
)

// Handler is the base handler type that holds shared application dependencies.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// Route binds an API Gateway style resource path ("/products/{product_id}")
// and method to an endpoint.
type Route struct {
	Method   string
	Path     string
	Endpoint pipeline.Endpoint
}
