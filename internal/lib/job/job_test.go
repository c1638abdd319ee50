package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/deppfellow/produto-service/internal/config"
	"github.com/deppfellow/produto-service/internal/lib/email"
	"github.com/deppfellow/produto-service/internal/model"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (f *fakeSender) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &resend.SendEmailResponse{Id: "1"}, nil
}

func newTestJobService(sender email.Sender, alertTo string) *JobService {
	log := zerolog.Nop()
	j := &JobService{logger: &log, alertTo: alertTo}
	if sender != nil {
		j.emailClient = email.NewClientWithSender(sender, "alertas@resend.dev", &log)
	}
	return j
}

func lowStockTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewLowStockTask(LowStockPayload{ProdutoID: "p-1", Nome: "Caneta", SKU: "CAN-01", Quantidade: 1, Limite: 5})
	require.NoError(t, err)
	return task
}

func TestNewLowStockTask(t *testing.T) {
	task := lowStockTask(t)

	assert.Equal(t, TaskLowStock, task.Type())

	var payload LowStockPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "CAN-01", payload.SKU)
	assert.Equal(t, 5, payload.Limite)
}

func TestHandleLowStockSendsEmail(t *testing.T) {
	sender := &fakeSender{}
	j := newTestJobService(sender, "ops@example.com")

	require.NoError(t, j.handleLowStockTask(context.Background(), lowStockTask(t)))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"ops@example.com"}, sender.sent[0].To)
}

func TestHandleLowStockRetriesOnSendFailure(t *testing.T) {
	j := newTestJobService(&fakeSender{err: errors.New("boom")}, "ops@example.com")

	assert.Error(t, j.handleLowStockTask(context.Background(), lowStockTask(t)))
}

func TestHandleLowStockWithoutEmailIsDropped(t *testing.T) {
	j := newTestJobService(nil, "")

	assert.NoError(t, j.handleLowStockTask(context.Background(), lowStockTask(t)))
}

func TestHandleLowStockBadPayloadSkipsRetry(t *testing.T) {
	j := newTestJobService(&fakeSender{}, "ops@example.com")

	err := j.handleLowStockTask(context.Background(), asynq.NewTask(TaskLowStock, []byte("{")))

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestEnqueueLowStockLandsInDefaultQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	log := zerolog.Nop()

	cfg := &config.Config{}
	cfg.Redis.Address = mr.Addr()

	j := NewJobService(&log, cfg)
	t.Cleanup(j.Stop)

	p := &model.Produto{ID: uuid.New(), Nome: "Caneta", SKU: "CAN-01", QuantidadeEstoque: 2}
	require.NoError(t, j.EnqueueLowStock(context.Background(), p, 5))

	pending, err := mr.List("asynq:{default}:pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
