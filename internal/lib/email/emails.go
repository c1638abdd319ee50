package email

import "fmt"

// LowStockData feeds the estoque_baixo template.
type LowStockData struct {
	ProdutoID  string
	Nome       string
	SKU        string
	Quantidade int
	Limite     int
}

// SendLowStockAlert tells `to` that a product reached the stock threshold.
func (c *Client) SendLowStockAlert(to string, data LowStockData) error {
	return c.SendEmail(
		to,
		fmt.Sprintf("Estoque baixo: %s (%s)", data.Nome, data.SKU),
		TemplateLowStock,
		data,
	)
}
