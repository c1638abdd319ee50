package handler

import (
	"net/http"

	"github.com/deppfellow/produto-service/internal/server"
	"github.com/deppfellow/produto-service/internal/service"
)

// Handlers groups all endpoint handlers.
type Handlers struct {
	Health  *HealthHandler
	Produto *ProdutoHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		Produto: NewProdutoHandler(s, services.Produto),
	}
}

// Routes is the route table shared by the Lambda adapter and the echo router.
// Literal segments are listed before the {product_id} wildcard.
func (h *Handlers) Routes() []Route {
	return []Route{
		{http.MethodGet, "/health", h.Health.Health()},
		{http.MethodGet, "/status", h.Health.Status()},

		{http.MethodPost, "/products", h.Produto.Create()},
		{http.MethodGet, "/products", h.Produto.List()},
		{http.MethodPost, "/products/search", h.Produto.Search()},
		{http.MethodGet, "/products/sku/{sku}", h.Produto.GetBySKU()},
		{http.MethodGet, "/products/category/{categoria}", h.Produto.ListByCategory()},
		{http.MethodGet, "/products/{product_id}", h.Produto.GetByID()},
		{http.MethodPut, "/products/{product_id}", h.Produto.Update()},
		{http.MethodPatch, "/products/{product_id}", h.Produto.Update()},
		{http.MethodDelete, "/products/{product_id}", h.Produto.Delete()},
	}
}
