package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/deppfellow/produto-service/internal/cache"
	"github.com/deppfellow/produto-service/internal/database"
	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/deppfellow/produto-service/internal/model"
	"github.com/deppfellow/produto-service/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "nome", "sku", "descricao", "categoria", "preco", "quantidade_estoque", "ativo", "criado_em", "atualizado_em"}

type recordingNotifier struct {
	calls []string
	err   error
}

func (n *recordingNotifier) EnqueueLowStock(_ context.Context, p *model.Produto, _ int) error {
	n.calls = append(n.calls, p.SKU)
	return n.err
}

type fixture struct {
	svc      *ProdutoService
	mock     sqlmock.Sqlmock
	session  *database.Session
	cache    *cache.ProdutoCache
	notifier *recordingNotifier
}

func newTestCache(t *testing.T) *cache.ProdutoCache {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zerolog.Nop()
	return cache.New(client, time.Minute, &log)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithCache(t, newTestCache(t))
}

// newFixtureWithCache gives each fixture its own transaction; fixtures
// built on the same cache behave like concurrent invocations.
func newFixtureWithCache(t *testing.T, produtoCache *cache.ProdutoCache) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)

	log := zerolog.Nop()
	notifier := &recordingNotifier{}

	return &fixture{
		svc:      NewProdutoService(repository.NewProdutoRepository(), produtoCache, notifier, 5, &log),
		mock:     mock,
		session:  database.NewSession(tx, nil),
		cache:    produtoCache,
		notifier: notifier,
	}
}

func row(id uuid.UUID, sku string, qtd int) *sqlmock.Rows {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows(columns).AddRow(id.String(), "Caneta", sku, nil, "papelaria", "2.50", qtd, true, now, now)
}

func createDTO(sku string, qtd int) *model.ProdutoCreateDTO {
	preco := decimal.RequireFromString("2.50")
	return &model.ProdutoCreateDTO{
		Nome:              "Caneta",
		SKU:               sku,
		Categoria:         "papelaria",
		Preco:             &preco,
		QuantidadeEstoque: qtd,
		Ativo:             true,
	}
}

func TestCreateRejectsDuplicateSKU(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE sku = \$1`).
		WithArgs("CAN-01").
		WillReturnRows(row(uuid.New(), "CAN-01", 10))

	_, err := f.svc.Create(context.Background(), f.session, createDTO("CAN-01", 10))

	domainErr, ok := errs.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindBusinessRule, domainErr.Kind)
	assert.Equal(t, "Product with SKU CAN-01 already exists", domainErr.Message)
	assert.Equal(t, http.StatusConflict, domainErr.ToHTTPError().Status)
}

func TestCreateSideEffectsWaitForCommit(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE sku = \$1`).
		WithArgs("CAN-01").
		WillReturnRows(sqlmock.NewRows(columns))
	f.mock.ExpectQuery(`INSERT INTO produtos`).
		WillReturnRows(row(id, "CAN-01", 2))
	f.mock.ExpectCommit()

	ctx := context.Background()
	p, err := f.svc.Create(ctx, f.session, createDTO("CAN-01", 2))
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)

	_, _, cached := f.cache.GetByID(ctx, id)
	assert.False(t, cached)
	assert.Empty(t, f.notifier.calls)

	require.NoError(t, f.session.Commit(ctx))

	_, _, cached = f.cache.GetByID(ctx, id)
	assert.True(t, cached)
	assert.Equal(t, []string{"CAN-01"}, f.notifier.calls)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateRolledBackLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE sku = \$1`).
		WillReturnRows(sqlmock.NewRows(columns))
	f.mock.ExpectQuery(`INSERT INTO produtos`).
		WillReturnRows(row(id, "CAN-01", 1))
	f.mock.ExpectRollback()

	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.session, createDTO("CAN-01", 1))
	require.NoError(t, err)
	require.NoError(t, f.session.Rollback())

	_, _, cached := f.cache.GetByID(ctx, id)
	assert.False(t, cached)
	assert.Empty(t, f.notifier.calls)
}

func TestNotifierFailureDoesNotFailCommit(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("redis down")

	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE sku = \$1`).
		WillReturnRows(sqlmock.NewRows(columns))
	f.mock.ExpectQuery(`INSERT INTO produtos`).
		WillReturnRows(row(uuid.New(), "CAN-01", 0))
	f.mock.ExpectCommit()

	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.session, createDTO("CAN-01", 0))
	require.NoError(t, err)

	assert.NoError(t, f.session.Commit(ctx))
	assert.Len(t, f.notifier.calls, 1)
}

func TestGetByIDReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	ctx := context.Background()

	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(row(id, "CAN-01", 10))

	first, err := f.svc.GetByID(ctx, f.session, id)
	require.NoError(t, err)

	second, err := f.svc.GetByID(ctx, f.session, id)
	require.NoError(t, err)

	assert.Equal(t, first.SKU, second.SKU)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetByIDMissingIsNil(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(columns))

	p, err := f.svc.GetByID(context.Background(), f.session, uuid.New())

	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestUpdateEmptyIsValidationFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), f.session, uuid.New(), &model.ProdutoUpdateDTO{})

	domainErr, ok := errs.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindValidation, domainErr.Kind)
}

func TestUpdateRejectsSKUTakenByAnotherProduct(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	sku := "OUTRO-01"

	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE id = \$1`).
		WillReturnRows(row(id, "CAN-01", 10))
	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE sku = \$1`).
		WithArgs(sku).
		WillReturnRows(row(uuid.New(), sku, 10))

	_, err := f.svc.Update(context.Background(), f.session, id, &model.ProdutoUpdateDTO{SKU: &sku})

	domainErr, ok := errs.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindBusinessRule, domainErr.Kind)
}

func TestUpdateInvalidatesCacheAfterCommit(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	ctx := context.Background()
	qtd := 1

	f.cache.Fill(ctx, &model.Produto{ID: id, SKU: "CAN-01"}, f.cache.Reserve(ctx, id, "CAN-01")...)

	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE id = \$1`).
		WillReturnRows(row(id, "CAN-01", 10))
	f.mock.ExpectQuery(`UPDATE produtos SET atualizado_em = now\(\), quantidade_estoque = \$1 WHERE id = \$2`).
		WithArgs(qtd, id.String()).
		WillReturnRows(row(id, "CAN-01", qtd))
	f.mock.ExpectCommit()

	_, err := f.svc.Update(ctx, f.session, id, &model.ProdutoUpdateDTO{QuantidadeEstoque: &qtd})
	require.NoError(t, err)

	_, _, cached := f.cache.GetByID(ctx, id)
	assert.True(t, cached)

	require.NoError(t, f.session.Commit(ctx))

	_, _, cached = f.cache.GetByID(ctx, id)
	assert.False(t, cached)
	_, _, cached = f.cache.GetBySKU(ctx, "CAN-01")
	assert.False(t, cached)
	assert.Equal(t, []string{"CAN-01"}, f.notifier.calls)
}

func TestConcurrentReadCannotRestoreRowUpdatedMidQuery(t *testing.T) {
	shared := newTestCache(t)
	reader := newFixtureWithCache(t, shared)
	writer := newFixtureWithCache(t, shared)
	id := uuid.New()
	ctx := context.Background()
	qtd := 1

	// The reader's SELECT sees the row as it was before the writer commits.
	reader.mock.ExpectQuery(`SELECT .* FROM produtos WHERE id = \$1`).
		WithArgs(id.String()).
		WillDelayFor(300 * time.Millisecond).
		WillReturnRows(row(id, "CAN-01", 10))

	writer.mock.ExpectQuery(`SELECT .* FROM produtos WHERE id = \$1`).
		WillReturnRows(row(id, "CAN-01", 10))
	writer.mock.ExpectQuery(`UPDATE produtos SET`).
		WillReturnRows(row(id, "CAN-01", qtd))
	writer.mock.ExpectCommit()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p, err := reader.svc.GetByID(ctx, reader.session, id)
		if assert.NoError(t, err) && assert.NotNil(t, p) {
			assert.Equal(t, 10, p.QuantidadeEstoque)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	_, err := writer.svc.Update(ctx, writer.session, id, &model.ProdutoUpdateDTO{QuantidadeEstoque: &qtd})
	require.NoError(t, err)
	require.NoError(t, writer.session.Commit(ctx))

	wg.Wait()

	_, _, cached := shared.GetByID(ctx, id)
	assert.False(t, cached, "stale row must not be cached after the update's invalidation")
	assert.NoError(t, reader.mock.ExpectationsWereMet())
	assert.NoError(t, writer.mock.ExpectationsWereMet())
}

func TestDeleteMissingReturnsFalse(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(columns))

	deleted, err := f.svc.Delete(context.Background(), f.session, uuid.New())

	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteRemovesRow(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE id = \$1`).
		WillReturnRows(row(id, "CAN-01", 10))
	f.mock.ExpectExec(`DELETE FROM produtos WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := f.svc.Delete(context.Background(), f.session, id)

	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestSearchRejectsInvertedPriceRange(t *testing.T) {
	f := newFixture(t)
	lo := decimal.NewFromInt(10)
	hi := decimal.NewFromInt(1)

	_, err := f.svc.Search(context.Background(), f.session, &model.ProdutoSearchDTO{PrecoMin: &lo, PrecoMax: &hi}, 0, 100)

	domainErr, ok := errs.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "preco_min must not exceed preco_max", domainErr.Message)
}

func TestSearchLowStockUsesThreshold(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM produtos WHERE quantidade_estoque <= \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	f.mock.ExpectQuery(`SELECT .* FROM produtos WHERE quantidade_estoque <= \$1 ORDER BY nome, id LIMIT \$2 OFFSET \$3`).
		WithArgs(5, 100, 0).
		WillReturnRows(sqlmock.NewRows(columns))

	list, err := f.svc.Search(context.Background(), f.session, &model.ProdutoSearchDTO{EstoqueBaixo: true}, 0, 100)

	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
	assert.Empty(t, list.Items)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
