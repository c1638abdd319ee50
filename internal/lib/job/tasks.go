package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskLowStock is the task type for low stock alerts.
	TaskLowStock = "produto:estoque_baixo"
)

// LowStockPayload is the JSON payload of a TaskLowStock task.
type LowStockPayload struct {
	ProdutoID  string `json:"produto_id"`
	Nome       string `json:"nome"`
	SKU        string `json:"sku"`
	Quantidade int    `json:"quantidade"`
	Limite     int    `json:"limite"`
}

// NewLowStockTask builds a low stock task: up to 3 retries on the default
// queue, 30 seconds per attempt.
func NewLowStockTask(payload LowStockPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskLowStock,
		data,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
