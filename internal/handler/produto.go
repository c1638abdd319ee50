package handler

import (
	"context"
	"fmt"

	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/deppfellow/produto-service/internal/model"
	"github.com/deppfellow/produto-service/internal/pipeline"
	"github.com/deppfellow/produto-service/internal/server"
	"github.com/deppfellow/produto-service/internal/service"
	"github.com/deppfellow/produto-service/internal/validation"
)

// Permissions checked by the product endpoints.
const (
	PermissionCreate = "produto:create"
	PermissionRead   = "produto:read"
	PermissionUpdate = "produto:update"
	PermissionDelete = "produto:delete"
	PermissionSearch = "produto:search"
)

type ProdutoHandler struct {
	Handler
	produtos *service.ProdutoService
}

func NewProdutoHandler(s *server.Server, produtos *service.ProdutoService) *ProdutoHandler {
	return &ProdutoHandler{
		Handler:  NewHandler(s),
		produtos: produtos,
	}
}

func productNotFound(id string) error {
	return errs.NewNotFoundError(fmt.Sprintf("Product not found: %s", id), false, nil)
}

func (h *ProdutoHandler) Create() pipeline.Endpoint {
	return pipeline.Endpoint{
		Operation:   "create_product",
		Permissions: []string{PermissionCreate},
		Body:        func() validation.Validatable { return &model.ProdutoCreateDTO{} },
		NeedsDB:     true,
		Handler: func(ctx context.Context, inv *pipeline.Invocation) (*pipeline.Result, error) {
			p, err := h.produtos.Create(ctx, inv.Session, inv.Body.(*model.ProdutoCreateDTO))
			if err != nil {
				return nil, err
			}
			return pipeline.Created(p), nil
		},
	}
}

func (h *ProdutoHandler) GetByID() pipeline.Endpoint {
	return pipeline.Endpoint{
		Operation:   "get_product",
		Permissions: []string{PermissionRead},
		NeedsDB:     true,
		Handler: func(ctx context.Context, inv *pipeline.Invocation) (*pipeline.Result, error) {
			id, err := validation.ParseUUIDParam(inv.Request.PathParams, "product_id")
			if err != nil {
				return nil, err
			}

			p, err := h.produtos.GetByID(ctx, inv.Session, id)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, productNotFound(inv.PathParam("product_id"))
			}
			return pipeline.OK(p), nil
		},
	}
}

func (h *ProdutoHandler) GetBySKU() pipeline.Endpoint {
	return pipeline.Endpoint{
		Operation:   "get_product_by_sku",
		Permissions: []string{PermissionRead},
		NeedsDB:     true,
		Handler: func(ctx context.Context, inv *pipeline.Invocation) (*pipeline.Result, error) {
			sku, err := validation.RequireParam(inv.Request.PathParams, "sku")
			if err != nil {
				return nil, err
			}

			p, err := h.produtos.GetBySKU(ctx, inv.Session, sku)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, errs.NewNotFoundError(fmt.Sprintf("Product not found with SKU: %s", sku), false, nil)
			}
			return pipeline.OK(p), nil
		},
	}
}

func (h *ProdutoHandler) List() pipeline.Endpoint {
	return pipeline.Endpoint{
		Operation:   "list_products",
		Permissions: []string{PermissionRead},
		Paginated:   true,
		NeedsDB:     true,
		Handler: func(ctx context.Context, inv *pipeline.Invocation) (*pipeline.Result, error) {
			list, err := h.produtos.List(ctx, inv.Session, inv.Pagination.Skip, inv.Pagination.Limit)
			if err != nil {
				return nil, err
			}
			return page(list), nil
		},
	}
}

func (h *ProdutoHandler) ListByCategory() pipeline.Endpoint {
	return pipeline.Endpoint{
		Operation:   "list_products_by_category",
		Permissions: []string{PermissionRead},
		Paginated:   true,
		NeedsDB:     true,
		Handler: func(ctx context.Context, inv *pipeline.Invocation) (*pipeline.Result, error) {
			categoria, err := validation.RequireParam(inv.Request.PathParams, "categoria")
			if err != nil {
				return nil, err
			}

			list, err := h.produtos.ListByCategory(ctx, inv.Session, categoria, inv.Pagination.Skip, inv.Pagination.Limit)
			if err != nil {
				return nil, err
			}
			return page(list), nil
		},
	}
}

func (h *ProdutoHandler) Update() pipeline.Endpoint {
	return pipeline.Endpoint{
		Operation:   "update_product",
		Permissions: []string{PermissionUpdate},
		Body:        func() validation.Validatable { return &model.ProdutoUpdateDTO{} },
		NeedsDB:     true,
		Handler: func(ctx context.Context, inv *pipeline.Invocation) (*pipeline.Result, error) {
			id, err := validation.ParseUUIDParam(inv.Request.PathParams, "product_id")
			if err != nil {
				return nil, err
			}

			p, err := h.produtos.Update(ctx, inv.Session, id, inv.Body.(*model.ProdutoUpdateDTO))
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, productNotFound(inv.PathParam("product_id"))
			}
			return pipeline.OK(p), nil
		},
	}
}

func (h *ProdutoHandler) Delete() pipeline.Endpoint {
	return pipeline.Endpoint{
		Operation:   "delete_product",
		Permissions: []string{PermissionDelete},
		NeedsDB:     true,
		Handler: func(ctx context.Context, inv *pipeline.Invocation) (*pipeline.Result, error) {
			id, err := validation.ParseUUIDParam(inv.Request.PathParams, "product_id")
			if err != nil {
				return nil, err
			}

			deleted, err := h.produtos.Delete(ctx, inv.Session, id)
			if err != nil {
				return nil, err
			}
			if !deleted {
				return nil, productNotFound(inv.PathParam("product_id"))
			}
			return pipeline.Message("Product deleted successfully"), nil
		},
	}
}

// Search accepts an empty body as "no filters".
func (h *ProdutoHandler) Search() pipeline.Endpoint {
	return pipeline.Endpoint{
		Operation:    "search_products",
		Permissions:  []string{PermissionSearch},
		Paginated:    true,
		Body:         func() validation.Validatable { return &model.ProdutoSearchDTO{} },
		OptionalBody: true,
		NeedsDB:      true,
		Handler: func(ctx context.Context, inv *pipeline.Invocation) (*pipeline.Result, error) {
			list, err := h.produtos.Search(ctx, inv.Session, inv.Body.(*model.ProdutoSearchDTO), inv.Pagination.Skip, inv.Pagination.Limit)
			if err != nil {
				return nil, err
			}
			return page(list), nil
		},
	}
}

func page(list *model.ProdutoList) *pipeline.Result {
	return pipeline.Paginated(list, list.Skip, list.Limit, list.Total)
}
