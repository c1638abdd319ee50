package service

import (
	"github.com/deppfellow/produto-service/internal/cache"
	"github.com/deppfellow/produto-service/internal/repository"
	"github.com/deppfellow/produto-service/internal/server"
)

type Services struct {
	Produto *ProdutoService
}

// NewService wires the services from the shared server resources.
// The cache and the low-stock notifier are optional.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	produtoCache := cache.New(s.Redis, s.Config.Redis.CacheTTL, s.Logger)

	var notifier LowStockNotifier
	if s.Job != nil {
		notifier = s.Job
	}

	return &Services{
		Produto: NewProdutoService(repos.Produto, produtoCache, notifier, s.Config.Produto.LowStockThreshold, s.Logger),
	}, nil
}
