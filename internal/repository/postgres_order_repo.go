package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

const orderColumns = `id, user_id, total_price, shipping_address, transaction_id,
	payment_method, status, created_at, updated_at`

// scanOrder は1行分の注文（明細なし）をスキャンする。
func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(
		&o.ID, &o.UserID, &o.TotalPrice, &o.ShippingAddress, &o.TransactionID,
		&o.PaymentMethod, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// FindByID は指定IDの注文を明細付きで取得する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.attachItems(ctx, map[string]*model.Order{order.ID: order}); err != nil {
		return nil, err
	}
	return order, nil
}

// Create は注文と明細を同一トランザクションで作成する。
func (r *PostgresOrderRepo) Create(ctx context.Context, order *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total_price, shipping_address, transaction_id,
			payment_method, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		order.ID, order.UserID, order.TotalPrice, order.ShippingAddress, order.TransactionID,
		order.PaymentMethod, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity) VALUES ($1, $2, $3)`,
			order.ID, item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List は全注文を商品情報（タイトル・価格・画像）付きで返す。
func (r *PostgresOrderRepo) List(ctx context.Context) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	return r.collectOrdersWithItems(ctx, rows)
}

// ListByUserID は指定ユーザーの注文を商品情報付きで返す。
func (r *PostgresOrderRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by user: %w", err)
	}
	defer rows.Close()

	return r.collectOrdersWithItems(ctx, rows)
}

// UpdateStatus は注文ステータスを更新する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
		 RETURNING `+orderColumns,
		id, status,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := r.attachItems(ctx, map[string]*model.Order{order.ID: order}); err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteByID は指定IDの注文を削除する。削除対象が存在しない場合はfalseを返す。
func (r *PostgresOrderRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// MonthlyStats は月別の注文数と売上合計を返す。
func (r *PostgresOrderRepo) MonthlyStats(ctx context.Context) ([]model.OrderStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT EXTRACT(MONTH FROM created_at)::int AS month,
		        COUNT(*), COALESCE(SUM(total_price), 0)
		 FROM orders
		 GROUP BY month
		 ORDER BY month`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order stats: %w", err)
	}
	defer rows.Close()

	var stats []model.OrderStat
	for rows.Next() {
		var s model.OrderStat
		if err := rows.Scan(&s.Month, &s.TotalOrders, &s.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan order stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// collectOrdersWithItems は複数行分の注文をスキャンし、明細をまとめて補完する。
func (r *PostgresOrderRepo) collectOrdersWithItems(ctx context.Context, rows *sql.Rows) ([]*model.Order, error) {
	var orders []*model.Order
	byID := make(map[string]*model.Order)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return orders, nil
	}
	if err := r.attachItems(ctx, byID); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems は指定された注文集合の明細を商品情報付きで取得し、各注文に割り当てる。
func (r *PostgresOrderRepo) attachItems(ctx context.Context, orders map[string]*model.Order) error {
	ids := make([]string, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT i.order_id, i.product_id, i.quantity, p.title, p.price, p.img
		 FROM order_items i
		 JOIN products p ON p.id = i.product_id
		 WHERE i.order_id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item model.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity,
			&item.ProductTitle, &item.ProductPrice, &item.ProductImg); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := orders[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

// compile-time interface check
var _ OrderRepository = (*PostgresOrderRepo)(nil)
