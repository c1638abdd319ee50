package email

import (
	"errors"
	"testing"

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
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func TestRenderEveryPreview(t *testing.T) {
	for name, data := range PreviewData {
		html, err := Render(name, data)
		require.NoError(t, err, name)
		assert.NotEmpty(t, html)
	}
}

func TestSendLowStockAlert(t *testing.T) {
	sender := &fakeSender{}
	log := zerolog.Nop()
	client := NewClientWithSender(sender, "Produto Service <alertas@resend.dev>", &log)

	err := client.SendLowStockAlert("ops@example.com", PreviewData[TemplateLowStock].(LowStockData))

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"ops@example.com"}, msg.To)
	assert.Equal(t, "Estoque baixo: Caneta Azul (CAN-AZ-01)", msg.Subject)
	assert.Contains(t, msg.Html, "CAN-AZ-01")
	assert.Equal(t, "Produto Service <alertas@resend.dev>", msg.From)
}

func TestSendEmailWrapsProviderError(t *testing.T) {
	log := zerolog.Nop()
	client := NewClientWithSender(&fakeSender{err: errors.New("rate limited")}, "x@y", &log)

	err := client.SendLowStockAlert("ops@example.com", LowStockData{Nome: "a", SKU: "b"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
