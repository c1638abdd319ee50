// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - The API side enqueues tasks (producer) using asynq.Client.
//   - The `produto worker` process runs an asynq.Server that executes them.
package job

import (
	"context"
	"errors"

	"github.com/deppfellow/produto-service/internal/config"
	"github.com/deppfellow/produto-service/internal/lib/email"
	"github.com/deppfellow/produto-service/internal/model"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// JobService holds the Asynq client (enqueue) and, in the worker process,
// the server executing tasks.
type JobService struct {
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger

	emailClient *email.Client
	alertTo     string
}

// NewJobService creates the enqueue side. The worker server is only
// created by StartWorker.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	return &JobService{
		Client:  client,
		logger:  logger,
		alertTo: cfg.Integration.AlertEmail,
	}
}

// InitHandlers sets up the dependencies task handlers need.
func (j *JobService) InitHandlers(cfg *config.Config) {
	if cfg.Integration.ResendAPIKey != "" {
		j.emailClient = email.NewClient(cfg, j.logger)
	}
}

// EnqueueLowStock queues a low stock alert for p.
func (j *JobService) EnqueueLowStock(ctx context.Context, p *model.Produto, threshold int) error {
	task, err := NewLowStockTask(LowStockPayload{
		ProdutoID:  p.ID.String(),
		Nome:       p.Nome,
		SKU:        p.SKU,
		Quantidade: p.QuantidadeEstoque,
		Limite:     threshold,
	})
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("produto_id", p.ID.String()).
		Msg("enqueued low stock alert")
	return nil
}

// StartWorker starts processing tasks in the background.
//
// Queue weights: critical 6, default 3, low 1.
func (j *JobService) StartWorker(cfg *config.Config) error {
	if j.server != nil {
		return errors.New("job worker already started")
	}

	j.server = asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Address},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskLowStock, j.handleLowStockTask)

	j.logger.Info().Msg("Starting background job server")

	return j.server.Start(mux)
}

// Stop stops the worker (if running) and closes the client.
func (j *JobService) Stop() {
	if j.server != nil {
		j.logger.Info().Msg("Stopping background job server")
		j.server.Shutdown()
	}
	if err := j.Client.Close(); err != nil {
		j.logger.Warn().Err(err).Msg("failed to close job client")
	}
}
