package email

// PreviewData holds sample data for every template, used to preview
// renders and in tests.
var PreviewData = map[Template]any{
	TemplateLowStock: LowStockData{
		ProdutoID:  "6f1c2a8e-4a55-4a37-9d5c-2d0f4d6b9a11",
		Nome:       "Caneta Azul",
		SKU:        "CAN-AZ-01",
		Quantidade: 2,
		Limite:     5,
	},
}
