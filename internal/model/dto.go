package model

import (
	"encoding/json"

	"github.com/deppfellow/produto-service/internal/validation"
	"github.com/shopspring/decimal"
)

// ProdutoCreateDTO is the body of POST /products.
type ProdutoCreateDTO struct {
	Nome              string           `json:"nome" validate:"required,min=1,max=200"`
	SKU               string           `json:"sku" validate:"required,min=1,max=50,sku"`
	Descricao         *string          `json:"descricao" validate:"omitempty,max=1000"`
	Categoria         string           `json:"categoria" validate:"required,min=1,max=100"`
	Preco             *decimal.Decimal `json:"preco" validate:"required,gt=0"`
	QuantidadeEstoque int              `json:"quantidade_estoque" validate:"min=0"`
	Ativo             bool             `json:"ativo"`
}

// UnmarshalJSON defaults Ativo to true when the field is absent.
func (d *ProdutoCreateDTO) UnmarshalJSON(data []byte) error {
	type alias ProdutoCreateDTO
	tmp := alias{Ativo: true}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*d = ProdutoCreateDTO(tmp)
	return nil
}

func (d *ProdutoCreateDTO) Validate() error {
	return validation.Struct(d)
}

// ProdutoUpdateDTO is the body of PUT/PATCH /products/{product_id}.
// Nil fields are left unchanged.
type ProdutoUpdateDTO struct {
	Nome              *string          `json:"nome" validate:"omitempty,min=1,max=200"`
	SKU               *string          `json:"sku" validate:"omitempty,min=1,max=50,sku"`
	Descricao         *string          `json:"descricao" validate:"omitempty,max=1000"`
	Categoria         *string          `json:"categoria" validate:"omitempty,min=1,max=100"`
	Preco             *decimal.Decimal `json:"preco" validate:"omitempty,gt=0"`
	QuantidadeEstoque *int             `json:"quantidade_estoque" validate:"omitempty,min=0"`
	Ativo             *bool            `json:"ativo"`
}

func (d *ProdutoUpdateDTO) Validate() error {
	return validation.Struct(d)
}

// IsEmpty reports whether the update changes nothing.
func (d *ProdutoUpdateDTO) IsEmpty() bool {
	return d.Nome == nil && d.SKU == nil && d.Descricao == nil && d.Categoria == nil &&
		d.Preco == nil && d.QuantidadeEstoque == nil && d.Ativo == nil
}

// ProdutoSearchDTO is the body of POST /products/search. Every filter is optional.
type ProdutoSearchDTO struct {
	Termo        *string          `json:"termo" validate:"omitempty,max=200"`
	Categoria    *string          `json:"categoria" validate:"omitempty,max=100"`
	PrecoMin     *decimal.Decimal `json:"preco_min" validate:"omitempty,gte=0"`
	PrecoMax     *decimal.Decimal `json:"preco_max" validate:"omitempty,gte=0"`
	Ativo        *bool            `json:"ativo"`
	EstoqueBaixo bool             `json:"estoque_baixo"`
}

func (d *ProdutoSearchDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}

	if d.PriceRangeInverted() {
		return validation.CustomValidationErrors{{
			Field:   "preco_max",
			Message: "must be greater than or equal to preco_min",
		}}
	}

	return nil
}

// PriceRangeInverted reports whether both bounds are set and min > max.
func (d *ProdutoSearchDTO) PriceRangeInverted() bool {
	return d.PrecoMin != nil && d.PrecoMax != nil && d.PrecoMin.GreaterThan(*d.PrecoMax)
}
