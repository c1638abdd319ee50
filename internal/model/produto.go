// Package model holds the product entity and the request DTOs that the
// body validator builds from incoming payloads.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Produto is a catalogue product as stored in the `produtos` table.
type Produto struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	Nome              string          `json:"nome" db:"nome"`
	SKU               string          `json:"sku" db:"sku"`
	Descricao         *string         `json:"descricao" db:"descricao"`
	Categoria         string          `json:"categoria" db:"categoria"`
	Preco             decimal.Decimal `json:"preco" db:"preco"`
	QuantidadeEstoque int             `json:"quantidade_estoque" db:"quantidade_estoque"`
	Ativo             bool            `json:"ativo" db:"ativo"`
	CriadoEm          time.Time       `json:"criado_em" db:"criado_em"`
	AtualizadoEm      time.Time       `json:"atualizado_em" db:"atualizado_em"`
}

// LowStock reports whether the stock is at or below threshold.
func (p *Produto) LowStock(threshold int) bool {
	return p.QuantidadeEstoque <= threshold
}

// ProdutoList is one page of products plus the total matching count.
type ProdutoList struct {
	Items []Produto `json:"items"`
	Total int       `json:"total"`
	Skip  int       `json:"skip"`
	Limit int       `json:"limit"`
}
