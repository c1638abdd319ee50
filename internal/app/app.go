// Package app wires the layers together: server resources, repositories,
// services, handlers and the request pipeline. Both binaries build one.
package app

import (
	"fmt"

	"github.com/deppfellow/produto-service/internal/auth"
	"github.com/deppfellow/produto-service/internal/config"
	"github.com/deppfellow/produto-service/internal/handler"
	"github.com/deppfellow/produto-service/internal/logger"
	"github.com/deppfellow/produto-service/internal/pipeline"
	"github.com/deppfellow/produto-service/internal/repository"
	"github.com/deppfellow/produto-service/internal/server"
	"github.com/deppfellow/produto-service/internal/service"
	"github.com/rs/zerolog"
)

type App struct {
	Server   *server.Server
	Handlers *handler.Handlers
	Pipeline *pipeline.Pipeline
}

func New(cfg *config.Config, log *zerolog.Logger, loggerService *logger.LoggerService) (*App, error) {
	provider, err := auth.NewProvider(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth provider: %w", err)
	}

	srv, err := server.New(cfg, log, loggerService)
	if err != nil {
		return nil, err
	}

	services, err := service.NewService(srv, repository.NewRepositories())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &App{
		Server:   srv,
		Handlers: handler.NewHandlers(srv, services),
		Pipeline: pipeline.New(auth.NewGate(provider), srv.DB, log, loggerService.GetApplication()),
	}, nil
}
