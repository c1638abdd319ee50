package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/produto-service/internal/cache"
	"github.com/deppfellow/produto-service/internal/database"
	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/deppfellow/produto-service/internal/model"
	"github.com/deppfellow/produto-service/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LowStockNotifier is told about products whose stock reached the threshold.
type LowStockNotifier interface {
	EnqueueLowStock(ctx context.Context, p *model.Produto, threshold int) error
}

// ProdutoService holds the product use cases.
//
// Every operation runs on the caller's session. Side effects outside the
// database (cache writes, job enqueues) are registered as after-commit
// hooks so a rolled back invocation leaves no trace.
type ProdutoService struct {
	repo      *repository.ProdutoRepository
	cache     *cache.ProdutoCache
	notifier  LowStockNotifier
	threshold int
	log       *zerolog.Logger
}

func NewProdutoService(
	repo *repository.ProdutoRepository,
	produtoCache *cache.ProdutoCache,
	notifier LowStockNotifier,
	lowStockThreshold int,
	log *zerolog.Logger,
) *ProdutoService {
	return &ProdutoService{
		repo:      repo,
		cache:     produtoCache,
		notifier:  notifier,
		threshold: lowStockThreshold,
		log:       log,
	}
}

func (s *ProdutoService) Create(ctx context.Context, session *database.Session, dto *model.ProdutoCreateDTO) (*model.Produto, error) {
	q := session.Querier()

	existing, err := s.repo.GetBySKU(ctx, q, dto.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.NewBusinessRuleViolation(fmt.Sprintf("Product with SKU %s already exists", dto.SKU))
	}

	p, err := s.repo.Create(ctx, q, dto)
	if err != nil {
		return nil, err
	}

	created := *p
	tokens := s.cache.Reserve(ctx, p.ID, p.SKU)
	session.AfterCommit(func(ctx context.Context) {
		s.cache.Fill(ctx, &created, tokens...)
		s.notifyLowStock(ctx, &created)
	})

	return p, nil
}

// GetByID returns nil when no product has the id.
func (s *ProdutoService) GetByID(ctx context.Context, session *database.Session, id uuid.UUID) (*model.Produto, error) {
	p, token, ok := s.cache.GetByID(ctx, id)
	if ok {
		return p, nil
	}

	p, err := s.repo.GetByID(ctx, session.Querier(), id)
	if err != nil || p == nil {
		return nil, err
	}

	s.cache.Fill(ctx, p, token)
	return p, nil
}

// GetBySKU returns nil when no product has the sku.
func (s *ProdutoService) GetBySKU(ctx context.Context, session *database.Session, sku string) (*model.Produto, error) {
	p, token, ok := s.cache.GetBySKU(ctx, sku)
	if ok {
		return p, nil
	}

	p, err := s.repo.GetBySKU(ctx, session.Querier(), sku)
	if err != nil || p == nil {
		return nil, err
	}

	s.cache.Fill(ctx, p, token)
	return p, nil
}

func (s *ProdutoService) List(ctx context.Context, session *database.Session, skip, limit int) (*model.ProdutoList, error) {
	return s.repo.List(ctx, session.Querier(), skip, limit)
}

func (s *ProdutoService) ListByCategory(ctx context.Context, session *database.Session, categoria string, skip, limit int) (*model.ProdutoList, error) {
	return s.repo.ListByCategory(ctx, session.Querier(), categoria, skip, limit)
}

// Update returns nil when no product has the id.
func (s *ProdutoService) Update(ctx context.Context, session *database.Session, id uuid.UUID, dto *model.ProdutoUpdateDTO) (*model.Produto, error) {
	if dto.IsEmpty() {
		return nil, errs.NewValidationFailure("At least one field must be provided for update")
	}

	q := session.Querier()

	current, err := s.repo.GetByID(ctx, q, id)
	if err != nil || current == nil {
		return nil, err
	}

	if dto.SKU != nil && *dto.SKU != current.SKU {
		other, err := s.repo.GetBySKU(ctx, q, *dto.SKU)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, errs.NewBusinessRuleViolation(fmt.Sprintf("Product with SKU %s already exists", *dto.SKU))
		}
	}

	p, err := s.repo.Update(ctx, q, id, dto)
	if err != nil || p == nil {
		return nil, err
	}

	updated := *p
	oldSKU := current.SKU
	stockChanged := dto.QuantidadeEstoque != nil && *dto.QuantidadeEstoque != current.QuantidadeEstoque
	session.AfterCommit(func(ctx context.Context) {
		s.cache.Invalidate(ctx, id, oldSKU, updated.SKU)
		if stockChanged {
			s.notifyLowStock(ctx, &updated)
		}
	})

	return p, nil
}

// Delete reports whether the product existed.
func (s *ProdutoService) Delete(ctx context.Context, session *database.Session, id uuid.UUID) (bool, error) {
	q := session.Querier()

	current, err := s.repo.GetByID(ctx, q, id)
	if err != nil || current == nil {
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, q, id)
	if err != nil || !deleted {
		return false, err
	}

	sku := current.SKU
	session.AfterCommit(func(ctx context.Context) {
		s.cache.Invalidate(ctx, id, sku)
	})

	return true, nil
}

func (s *ProdutoService) Search(ctx context.Context, session *database.Session, dto *model.ProdutoSearchDTO, skip, limit int) (*model.ProdutoList, error) {
	if dto.PriceRangeInverted() {
		return nil, errs.NewValidationFailure("preco_min must not exceed preco_max")
	}

	return s.repo.Search(ctx, session.Querier(), dto, s.threshold, skip, limit)
}

// notifyLowStock runs after commit; failures are logged, never returned.
func (s *ProdutoService) notifyLowStock(ctx context.Context, p *model.Produto) {
	if s.notifier == nil || !p.LowStock(s.threshold) {
		return
	}

	if err := s.notifier.EnqueueLowStock(ctx, p, s.threshold); err != nil {
		s.log.Error().
			Err(err).
			Str("produto_id", p.ID.String()).
			Str("sku", p.SKU).
			Msg("failed to enqueue low stock alert")
	}
}
