package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/deppfellow/produto-service/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*ProdutoCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zerolog.Nop()
	return New(client, time.Minute, &log), mr
}

func sampleProduto() *model.Produto {
	return &model.Produto{
		ID:                uuid.New(),
		Nome:              "Caneta Azul",
		SKU:               "CAN-AZ-01",
		Categoria:         "papelaria",
		Preco:             decimal.RequireFromString("2.50"),
		QuantidadeEstoque: 10,
		Ativo:             true,
	}
}

// fill loads p through a miss on its id key, the way a read path does.
func fill(t *testing.T, c *ProdutoCache, p *model.Produto) {
	t.Helper()
	ctx := context.Background()

	_, token, ok := c.GetByID(ctx, p.ID)
	require.False(t, ok)
	c.Fill(ctx, p, token)
}

func TestFillThenGetByID(t *testing.T) {
	c, mr := newTestCache(t)
	p := sampleProduto()
	ctx := context.Background()

	fill(t, c, p)

	byID, _, ok := c.GetByID(ctx, p.ID)
	require.True(t, ok)
	assert.Equal(t, p.Nome, byID.Nome)
	assert.True(t, p.Preco.Equal(byID.Preco))
	assert.Equal(t, time.Minute, mr.TTL(idKey(p.ID)))

	_, _, ok = c.GetBySKU(ctx, p.SKU)
	assert.False(t, ok, "a miss on the id key fills only the id key")
}

func TestReserveFillsIDAndSKU(t *testing.T) {
	c, _ := newTestCache(t)
	p := sampleProduto()
	ctx := context.Background()

	c.Fill(ctx, p, c.Reserve(ctx, p.ID, p.SKU)...)

	bySKU, _, ok := c.GetBySKU(ctx, p.SKU)
	require.True(t, ok)
	assert.Equal(t, p.ID, bySKU.ID)
	_, _, ok = c.GetByID(ctx, p.ID)
	assert.True(t, ok)
}

func TestInvalidateRemovesKeys(t *testing.T) {
	c, mr := newTestCache(t)
	p := sampleProduto()
	ctx := context.Background()

	c.Fill(ctx, p, c.Reserve(ctx, p.ID, p.SKU)...)
	c.Invalidate(ctx, p.ID, p.SKU, "OLD-SKU")

	assert.False(t, mr.Exists(idKey(p.ID)))
	assert.False(t, mr.Exists(skuKey(p.SKU)))
	_, _, ok := c.GetByID(ctx, p.ID)
	assert.False(t, ok)
}

func TestFillAfterInvalidateIsDiscarded(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	stale := sampleProduto()

	// Reader misses and snapshots before its database read.
	_, token, ok := c.GetByID(ctx, stale.ID)
	require.False(t, ok)

	// A writer commits and invalidates while the reader is still querying.
	c.Invalidate(ctx, stale.ID, stale.SKU)

	c.Fill(ctx, stale, token)

	assert.False(t, mr.Exists(idKey(stale.ID)))
	_, _, ok = c.GetByID(ctx, stale.ID)
	assert.False(t, ok)
}

func TestFillAfterRepeatedInvalidationIsDiscarded(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	p := sampleProduto()

	c.Invalidate(ctx, p.ID)
	_, token, _ := c.GetByID(ctx, p.ID)
	c.Invalidate(ctx, p.ID)

	c.Fill(ctx, p, token)
	assert.False(t, mr.Exists(idKey(p.ID)))
}

func TestReservedFillLosesToLaterInvalidation(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	p := sampleProduto()

	tokens := c.Reserve(ctx, p.ID, p.SKU)
	c.Invalidate(ctx, p.ID, p.SKU)
	c.Fill(ctx, p, tokens...)

	assert.False(t, mr.Exists(idKey(p.ID)))
	assert.False(t, mr.Exists(skuKey(p.SKU)))
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	id := uuid.New()
	require.NoError(t, mr.Set(idKey(id), "{not json"))

	_, _, ok := c.GetByID(context.Background(), id)
	assert.False(t, ok)
}

func TestRedisDownIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, token, ok := c.GetByID(context.Background(), uuid.New())
	assert.False(t, ok)
	assert.Equal(t, Token{}, token)
	c.Fill(context.Background(), sampleProduto(), token)
	assert.Nil(t, c.Reserve(context.Background(), uuid.New(), "X"))
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *ProdutoCache
	assert.Nil(t, New(nil, time.Minute, nil))

	c.Fill(context.Background(), sampleProduto(), c.Reserve(context.Background(), uuid.New(), "X")...)
	c.Invalidate(context.Background(), uuid.New())
	_, _, ok := c.GetBySKU(context.Background(), "X")
	assert.False(t, ok)
}
