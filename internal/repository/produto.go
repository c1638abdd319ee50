package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/produto-service/internal/database"
	"github.com/deppfellow/produto-service/internal/model"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

const produtoColumns = `id, nome, sku, descricao, categoria, preco, quantidade_estoque, ativo, criado_em, atualizado_em`

const produtoOrder = ` ORDER BY nome, id`

// ProdutoRepository runs the SQL for the produtos table.
type ProdutoRepository struct{}

func NewProdutoRepository() *ProdutoRepository {
	return &ProdutoRepository{}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduto(row scanner) (*model.Produto, error) {
	var p model.Produto
	err := row.Scan(
		&p.ID,
		&p.Nome,
		&p.SKU,
		&p.Descricao,
		&p.Categoria,
		&p.Preco,
		&p.QuantidadeEstoque,
		&p.Ativo,
		&p.CriadoEm,
		&p.AtualizadoEm,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// queryOne returns (nil, nil) when no row matches.
func queryOne(ctx context.Context, q database.Querier, query string, args ...any) (*model.Produto, error) {
	p, err := scanProduto(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func queryMany(ctx context.Context, q database.Querier, query string, args ...any) ([]model.Produto, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Produto, 0)
	for rows.Next() {
		p, err := scanProduto(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}

	return items, rows.Err()
}

func count(ctx context.Context, q database.Querier, query string, args ...any) (int, error) {
	var total int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// page runs a filtered select and its count with the same WHERE clause.
func page(ctx context.Context, q database.Querier, where string, args []any, skip, limit int) (*model.ProdutoList, error) {
	total, err := count(ctx, q, `SELECT COUNT(*) FROM produtos`+where, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "count produtos")
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM produtos%s%s LIMIT $%d OFFSET $%d`, produtoColumns, where, produtoOrder, n+1, n+2)
	items, err := queryMany(ctx, q, query, append(append([]any{}, args...), limit, skip)...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list produtos")
	}

	return &model.ProdutoList{Items: items, Total: total, Skip: skip, Limit: limit}, nil
}

func (r *ProdutoRepository) Create(ctx context.Context, q database.Querier, dto *model.ProdutoCreateDTO) (*model.Produto, error) {
	query := `INSERT INTO produtos (nome, sku, descricao, categoria, preco, quantidade_estoque, ativo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + produtoColumns

	p, err := scanProduto(q.QueryRowContext(ctx, query,
		dto.Nome,
		dto.SKU,
		dto.Descricao,
		dto.Categoria,
		*dto.Preco,
		dto.QuantidadeEstoque,
		dto.Ativo,
	))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "insert produto")
	}
	return p, nil
}

func (r *ProdutoRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*model.Produto, error) {
	p, err := queryOne(ctx, q, `SELECT `+produtoColumns+` FROM produtos WHERE id = $1`, id)
	return p, pkgerrors.Wrap(err, "get produto by id")
}

func (r *ProdutoRepository) GetBySKU(ctx context.Context, q database.Querier, sku string) (*model.Produto, error) {
	p, err := queryOne(ctx, q, `SELECT `+produtoColumns+` FROM produtos WHERE sku = $1`, sku)
	return p, pkgerrors.Wrap(err, "get produto by sku")
}

func (r *ProdutoRepository) List(ctx context.Context, q database.Querier, skip, limit int) (*model.ProdutoList, error) {
	return page(ctx, q, "", nil, skip, limit)
}

func (r *ProdutoRepository) ListByCategory(ctx context.Context, q database.Querier, categoria string, skip, limit int) (*model.ProdutoList, error) {
	return page(ctx, q, ` WHERE categoria = $1`, []any{categoria}, skip, limit)
}

// Update applies the non-nil fields of dto. It returns (nil, nil) when
// no product has the id.
func (r *ProdutoRepository) Update(ctx context.Context, q database.Querier, id uuid.UUID, dto *model.ProdutoUpdateDTO) (*model.Produto, error) {
	sets := []string{"atualizado_em = now()"}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if dto.Nome != nil {
		add("nome", *dto.Nome)
	}
	if dto.SKU != nil {
		add("sku", *dto.SKU)
	}
	if dto.Descricao != nil {
		add("descricao", *dto.Descricao)
	}
	if dto.Categoria != nil {
		add("categoria", *dto.Categoria)
	}
	if dto.Preco != nil {
		add("preco", *dto.Preco)
	}
	if dto.QuantidadeEstoque != nil {
		add("quantidade_estoque", *dto.QuantidadeEstoque)
	}
	if dto.Ativo != nil {
		add("ativo", *dto.Ativo)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE produtos SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), produtoColumns)

	p, err := queryOne(ctx, q, query, args...)
	return p, pkgerrors.Wrap(err, "update produto")
}

// Delete reports whether a row was removed.
func (r *ProdutoRepository) Delete(ctx context.Context, q database.Querier, id uuid.UUID) (bool, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM produtos WHERE id = $1`, id)
	if err != nil {
		return false, pkgerrors.Wrap(err, "delete produto")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, pkgerrors.Wrap(err, "delete produto rows affected")
	}
	return affected > 0, nil
}

// Search filters by the non-empty fields of filter. Termo matches nome or
// descricao case-insensitively; EstoqueBaixo keeps quantities at or below
// lowStockThreshold.
func (r *ProdutoRepository) Search(ctx context.Context, q database.Querier, filter *model.ProdutoSearchDTO, lowStockThreshold, skip, limit int) (*model.ProdutoList, error) {
	where, args := searchWhere(filter, lowStockThreshold)
	return page(ctx, q, where, args, skip, limit)
}

func searchWhere(filter *model.ProdutoSearchDTO, lowStockThreshold int) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(format string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if filter.Termo != nil && strings.TrimSpace(*filter.Termo) != "" {
		add("(nome ILIKE $%[1]d OR descricao ILIKE $%[1]d)", "%"+escapeLike(strings.TrimSpace(*filter.Termo))+"%")
	}
	if filter.Categoria != nil && *filter.Categoria != "" {
		add("categoria = $%d", *filter.Categoria)
	}
	if filter.PrecoMin != nil {
		add("preco >= $%d", *filter.PrecoMin)
	}
	if filter.PrecoMax != nil {
		add("preco <= $%d", *filter.PrecoMax)
	}
	if filter.Ativo != nil {
		add("ativo = $%d", *filter.Ativo)
	}
	if filter.EstoqueBaixo {
		add("quantidade_estoque <= $%d", lowStockThreshold)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
