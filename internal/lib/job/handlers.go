package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/produto-service/internal/lib/email"
	"github.com/hibiken/asynq"
)

// handleLowStockTask emails the configured alert address.
//
// Without an alert address or email client the task is acknowledged and
// dropped so it does not retry forever.
func (j *JobService) handleLowStockTask(ctx context.Context, t *asynq.Task) error {
	var p LowStockPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal low stock payload: %w: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("type", TaskLowStock).
		Str("produto_id", p.ProdutoID).
		Str("sku", p.SKU).
		Logger()

	if j.emailClient == nil || j.alertTo == "" {
		log.Warn().Msg("low stock alert dropped, email not configured")
		return nil
	}

	log.Info().Int("quantidade", p.Quantidade).Msg("Processing low stock task")

	err := j.emailClient.SendLowStockAlert(j.alertTo, email.LowStockData{
		ProdutoID:  p.ProdutoID,
		Nome:       p.Nome,
		SKU:        p.SKU,
		Quantidade: p.Quantidade,
		Limite:     p.Limite,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to send low stock alert")
		return err
	}

	log.Info().Msg("Successfully sent low stock alert")
	return nil
}
