package validation

import (
	"testing"

	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemDTO struct {
	Nome  string           `json:"nome" validate:"required,min=1,max=10"`
	SKU   string           `json:"sku" validate:"required,sku"`
	Preco *decimal.Decimal `json:"preco" validate:"required,gt=0"`
	Qtd   int              `json:"quantidade" validate:"min=0"`
}

func (d *itemDTO) Validate() error {
	return Struct(d)
}

type rangeDTO struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (d *rangeDTO) Validate() error {
	if d.Min > d.Max {
		return CustomValidationErrors{{Field: "max", Message: "must be greater than or equal to min"}}
	}
	return nil
}

func requireBadRequest(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	require.Error(t, err)
	httpErr, ok := err.(*errs.HTTPError)
	require.True(t, ok, "expected *errs.HTTPError, got %T", err)
	assert.Equal(t, 400, httpErr.Status)
	return httpErr
}

func TestParseAndValidateAcceptsValidBody(t *testing.T) {
	var dto itemDTO
	err := ParseAndValidate([]byte(`{"nome":"Caneta","sku":"CAN-01","preco":"2.50","quantidade":3}`), &dto)

	require.NoError(t, err)
	assert.Equal(t, "Caneta", dto.Nome)
	assert.True(t, dto.Preco.Equal(decimal.RequireFromString("2.5")))
}

func TestParseAndValidateNamesFirstMissingField(t *testing.T) {
	var dto itemDTO
	err := ParseAndValidate([]byte(`{"preco": 1}`), &dto)

	httpErr := requireBadRequest(t, err)
	assert.Equal(t, "Validation failed: nome is required", httpErr.Message)
	require.Len(t, httpErr.Errors, 2)
	assert.Equal(t, "nome", httpErr.Errors[0].Field)
	assert.Equal(t, "sku", httpErr.Errors[1].Field)
}

func TestParseAndValidateAggregatesInDeclarationOrder(t *testing.T) {
	var dto itemDTO
	err := ParseAndValidate([]byte(`{"nome":"muito mais que dez","sku":"bad sku!","preco":0,"quantidade":-1}`), &dto)

	httpErr := requireBadRequest(t, err)
	fields := make([]string, 0, len(httpErr.Errors))
	for _, fe := range httpErr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"nome", "sku", "preco", "quantidade"}, fields)
	assert.Equal(t, "must not exceed 10 characters", httpErr.Errors[0].Error)
	assert.Equal(t, "must be greater than 0", httpErr.Errors[2].Error)
	assert.Equal(t, "must be at least 0", httpErr.Errors[3].Error)
}

func TestParseAndValidateEmptyBody(t *testing.T) {
	var dto itemDTO
	httpErr := requireBadRequest(t, ParseAndValidate([]byte("  "), &dto))

	assert.Equal(t, "Request body is required", httpErr.Message)
}

func TestParseAndValidateMalformedJSON(t *testing.T) {
	var dto itemDTO
	httpErr := requireBadRequest(t, ParseAndValidate([]byte(`{"nome":`), &dto))

	assert.Equal(t, "Invalid JSON body", httpErr.Message)
}

func TestParseAndValidateWrongType(t *testing.T) {
	var dto itemDTO
	httpErr := requireBadRequest(t, ParseAndValidate([]byte(`{"nome":"x","sku":"a","preco":1,"quantidade":"many"}`), &dto))

	assert.Equal(t, "Validation failed: quantidade must be of type integer", httpErr.Message)
}

func TestParseAndValidateCustomErrors(t *testing.T) {
	var dto rangeDTO
	httpErr := requireBadRequest(t, ParseAndValidate([]byte(`{"min":5,"max":1}`), &dto))

	assert.Equal(t, "Validation failed: max must be greater than or equal to min", httpErr.Message)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name    string
		query   map[string]string
		want    Pagination
		wantErr string
	}{
		{name: "defaults", query: nil, want: Pagination{Skip: 0, Limit: 100}},
		{name: "explicit", query: map[string]string{"skip": "20", "limit": "1000"}, want: Pagination{Skip: 20, Limit: 1000}},
		{name: "lower limit", query: map[string]string{"limit": "1"}, want: Pagination{Skip: 0, Limit: 1}},
		{name: "negative skip", query: map[string]string{"skip": "-1"}, wantErr: "skip must be >= 0"},
		{name: "zero limit", query: map[string]string{"limit": "0"}, wantErr: "limit must be between 1 and 1000"},
		{name: "limit too big", query: map[string]string{"limit": "1001"}, wantErr: "limit must be between 1 and 1000"},
		{name: "skip not integer", query: map[string]string{"skip": "abc"}, wantErr: "skip must be an integer"},
		{name: "limit not integer", query: map[string]string{"limit": "1.5"}, wantErr: "limit must be an integer"},
		{name: "skip checked first", query: map[string]string{"skip": "-1", "limit": "0"}, wantErr: "skip must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePagination(tt.query)
			if tt.wantErr != "" {
				httpErr := requireBadRequest(t, err)
				assert.Equal(t, tt.wantErr, httpErr.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUUIDParam(t *testing.T) {
	id, err := ParseUUIDParam(map[string]string{"product_id": "6f1c2a8e-4a55-4a37-9d5c-2d0f4d6b9a11"}, "product_id")
	require.NoError(t, err)
	assert.Equal(t, "6f1c2a8e-4a55-4a37-9d5c-2d0f4d6b9a11", id.String())

	_, err = ParseUUIDParam(map[string]string{"product_id": "nope"}, "product_id")
	assert.Equal(t, "Invalid product_id format", requireBadRequest(t, err).Message)

	_, err = ParseUUIDParam(map[string]string{}, "product_id")
	assert.Equal(t, "product_id is required", requireBadRequest(t, err).Message)
}
