package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/port"
)

var (
	_ port.ProductStore    = (*ProductsRepository)(nil)
	_ port.ProductsStorage = (*ProductsRepository)(nil)
)

const productColumns = `
	product_id, name, price::float8, category, subcategory,
	brand, description, image, stock`

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) StoreProducts(
	ctx context.Context, vs []domain.Product,
) error {
	const op = "ProductsRepository.StoreProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO products (
			product_id, name, price, category, subcategory,
			brand, description, image, stock
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (product_id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			brand = EXCLUDED.brand,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			stock = EXCLUDED.stock,
			updated_at = now();
	`

	err := inTx(ctx, r.sqldb, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare stmt: %w", err)
		}
		defer func() {
			if err := stmt.Close(); err != nil {
				log.Error("failed to close prepared stmt", "err", err)
			}
		}()

		for _, v := range vs {
			_, err := stmt.ExecContext(ctx,
				v.ProductID, v.Name, v.Price, v.Category, v.Subcategory,
				v.Brand, v.Description, v.Image, v.Stock,
			)
			if err != nil {
				return fmt.Errorf("failed to exec: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("products stored", "count", len(vs))
	return nil
}

func (r ProductsRepository) ProductByID(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "ProductsRepository.ProductByID"

	if len(validIDs([]string{id})) == 0 {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	query := `SELECT` + productColumns + ` FROM products WHERE product_id = $1;`

	v, err := scanProduct(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return v, nil
}

func (r ProductsRepository) ProductsByIDs(
	ctx context.Context, ids []string,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ProductsByIDs"

	ids = validIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT` + productColumns + `
		FROM products WHERE product_id = ANY($1::uuid[]);`

	ps, err := r.query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (r ProductsRepository) FindProducts(
	ctx context.Context, q domain.ProductQuery,
) ([]domain.Product, error) {
	const op = "ProductsRepository.FindProducts"

	query, args := findProductsQuery(q)
	ps, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (r ProductsRepository) CountProducts(ctx context.Context) (int, error) {
	const op = "ProductsRepository.CountProducts"

	var n int
	err := r.sqldb.QueryRowContext(ctx, `SELECT count(*) FROM products;`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (r ProductsRepository) query(
	ctx context.Context, query string, args ...any,
) ([]domain.Product, error) {
	rows, err := r.sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ps []domain.Product
	for rows.Next() {
		v, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, v)
	}
	return ps, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (v domain.Product, err error) {
	err = s.Scan(
		&v.ProductID, &v.Name, &v.Price, &v.Category, &v.Subcategory,
		&v.Brand, &v.Description, &v.Image, &v.Stock,
	)
	return
}

// findProductsQuery matches any term against name, brand, category
// and description, ANDed with the price bounds.
func findProductsQuery(q domain.ProductQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(q.Terms) != 0 {
		var ors []string
		for _, t := range q.Terms {
			p := arg(containsPattern(t))
			for _, col := range []string{"name", "brand", "category", "description"} {
				ors = append(ors, col+" ILIKE "+p)
			}
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	if q.Bounds.Min != nil {
		where = append(where, "price >= "+arg(*q.Bounds.Min))
	}
	if q.Bounds.Max != nil {
		where = append(where, "price <= "+arg(*q.Bounds.Max))
	}
	if exclude := validIDs(q.ExcludeIDs); len(exclude) != 0 {
		where = append(where, "NOT (product_id = ANY("+arg(exclude)+"::uuid[]))")
	}

	var b strings.Builder
	b.WriteString("SELECT" + productColumns + " FROM products")
	if len(where) != 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at, product_id")
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + arg(q.Limit))
	}
	b.WriteString(";")
	return b.String(), args
}
