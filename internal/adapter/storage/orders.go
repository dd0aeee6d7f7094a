package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/port"
)

var _ port.OrderStore = (*OrdersRepository)(nil)

const orderColumns = `
	order_id, user_id, created_at, status, tracking_number,
	estimated_delivery, total_amount::float8`

type OrdersRepository struct {
	sqldb sqldb
}

func NewOrdersRepository(sqldb sqldb) OrdersRepository {
	return OrdersRepository{sqldb}
}

func (r OrdersRepository) OrdersWithProduct(
	ctx context.Context, productID string,
) ([]domain.Order, error) {
	const op = "OrdersRepository.OrdersWithProduct"

	query := `SELECT` + orderColumns + ` FROM orders
		WHERE order_id IN (
			SELECT order_id FROM order_lines WHERE product_id = $1
		)
		ORDER BY created_at, order_id;`

	os, err := loadOrders(ctx, r.sqldb, query, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return os, nil
}

// OrdersByUser returns the user orders newest first.
func (r OrdersRepository) OrdersByUser(
	ctx context.Context, userID string,
) ([]domain.Order, error) {
	const op = "OrdersRepository.OrdersByUser"

	if len(validIDs([]string{userID})) == 0 {
		return nil, nil
	}

	query := `SELECT` + orderColumns + ` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, order_id DESC;`

	os, err := loadOrders(ctx, r.sqldb, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return os, nil
}

func (r OrdersRepository) AllOrders(ctx context.Context) ([]domain.Order, error) {
	const op = "OrdersRepository.AllOrders"

	query := `SELECT` + orderColumns + ` FROM orders
		ORDER BY created_at DESC, order_id DESC;`

	os, err := loadOrders(ctx, r.sqldb, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return os, nil
}

// BestSellers sums line quantities per product across all orders.
// An empty excludeID excludes nothing.
func (r OrdersRepository) BestSellers(
	ctx context.Context, excludeID string, limit int,
) ([]domain.ProductQuantity, error) {
	const op = "OrdersRepository.BestSellers"

	args := []any{limit}
	where := ""
	if excludeID != "" {
		args = append(args, excludeID)
		where = "WHERE product_id <> $2"
	}

	query := `SELECT product_id, sum(quantity) AS total
		FROM order_lines ` + where + `
		GROUP BY product_id
		ORDER BY total DESC, product_id
		LIMIT $1;`

	rows, err := r.sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []domain.ProductQuantity
	for rows.Next() {
		var pq domain.ProductQuantity
		if err := rows.Scan(&pq.ProductID, &pq.Quantity); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, pq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// SalesByDay sums non cancelled order totals per UTC day in [from, to).
func (r OrdersRepository) SalesByDay(
	ctx context.Context, from, to time.Time,
) ([]domain.DailySales, error) {
	const op = "OrdersRepository.SalesByDay"

	query := `SELECT
			date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
			sum(total_amount)::float8
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND status <> 'Cancelled'
		GROUP BY day
		ORDER BY day;`

	rows, err := r.sqldb.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []domain.DailySales
	for rows.Next() {
		var ds domain.DailySales
		if err := rows.Scan(&ds.Day, &ds.Total); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r OrdersRepository) CountOrders(ctx context.Context) (int, error) {
	const op = "OrdersRepository.CountOrders"

	var n int
	err := r.sqldb.QueryRowContext(ctx, `SELECT count(*) FROM orders;`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// Revenue sums totals of orders that are not cancelled.
func (r OrdersRepository) Revenue(ctx context.Context) (float64, error) {
	const op = "OrdersRepository.Revenue"

	query := `SELECT coalesce(sum(total_amount), 0)::float8
		FROM orders WHERE status <> 'Cancelled';`

	var v float64
	if err := r.sqldb.QueryRowContext(ctx, query).Scan(&v); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (r OrdersRepository) UpdateOrder(
	ctx context.Context, orderID string, fn func(*domain.Order) error,
) (domain.Order, error) {
	const op = "OrdersRepository.UpdateOrder"

	var updated domain.Order
	err := inTx(ctx, r.sqldb, func(tx *sql.Tx) error {
		os, err := loadOrders(ctx, tx,
			`SELECT`+orderColumns+` FROM orders WHERE order_id = $1 FOR UPDATE;`,
			orderID,
		)
		if err != nil {
			return err
		}
		if len(os) == 0 {
			return domain.ErrNotFound
		}

		o := os[0]
		nHistory := len(o.StatusHistory)
		if err := fn(&o); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE orders
			SET status = $2, tracking_number = $3, estimated_delivery = $4
			WHERE order_id = $1;`,
			o.OrderID, string(o.Status), o.TrackingNumber,
			nullTime(o.EstimatedDelivery),
		)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		for i, ch := range o.StatusHistory[nHistory:] {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_status_history (order_id, seq, status, changed_at)
				VALUES ($1, $2, $3, $4);`,
				o.OrderID, nHistory+i, string(ch.Status), ch.ChangedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to append history: %w", err)
			}
		}

		updated = o
		return nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// loadOrders runs query, then attaches the lines and status history
// of every returned order.
func loadOrders(
	ctx context.Context, q querier, query string, args ...any,
) ([]domain.Order, error) {
	os, err := scanOrders(ctx, q, query, args...)
	if err != nil || len(os) == 0 {
		return os, err
	}

	ids := make([]string, len(os))
	index := make(map[string]int, len(os))
	for i, o := range os {
		ids[i] = o.OrderID
		index[o.OrderID] = i
	}

	if err := attachLines(ctx, q, ids, index, os); err != nil {
		return nil, err
	}
	if err := attachHistory(ctx, q, ids, index, os); err != nil {
		return nil, err
	}
	return os, nil
}

func scanOrders(
	ctx context.Context, q querier, query string, args ...any,
) ([]domain.Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var os []domain.Order
	for rows.Next() {
		var (
			o      domain.Order
			status string
			eta    sql.NullTime
		)
		err := rows.Scan(
			&o.OrderID, &o.UserID, &o.OrderedAt, &status, &o.TrackingNumber,
			&eta, &o.TotalAmount,
		)
		if err != nil {
			return nil, err
		}
		o.Status = domain.OrderStatus(status)
		if eta.Valid {
			o.EstimatedDelivery = &eta.Time
		}
		os = append(os, o)
	}
	return os, rows.Err()
}

func attachLines(
	ctx context.Context,
	q querier,
	ids []string,
	index map[string]int,
	os []domain.Order,
) error {
	rows, err := q.QueryContext(ctx, `
		SELECT order_id, product_id, name, price::float8, quantity, brand, image
		FROM order_lines
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, line_no;`, ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			l       domain.OrderLine
		)
		err := rows.Scan(
			&orderID, &l.ProductID, &l.Name, &l.Price, &l.Quantity,
			&l.Brand, &l.Image,
		)
		if err != nil {
			return err
		}
		i := index[orderID]
		os[i].Lines = append(os[i].Lines, l)
	}
	return rows.Err()
}

func attachHistory(
	ctx context.Context,
	q querier,
	ids []string,
	index map[string]int,
	os []domain.Order,
) error {
	rows, err := q.QueryContext(ctx, `
		SELECT order_id, status, changed_at
		FROM order_status_history
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, seq;`, ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID, status string
			ch              domain.StatusChange
		)
		if err := rows.Scan(&orderID, &status, &ch.ChangedAt); err != nil {
			return err
		}
		ch.Status = domain.OrderStatus(status)
		i := index[orderID]
		os[i].StatusHistory = append(os[i].StatusHistory, ch)
	}
	return rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
