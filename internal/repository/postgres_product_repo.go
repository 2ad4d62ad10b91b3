package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

const productColumns = `id, title, description, price, new_price, percentage_off, orders,
	color, size, img, categories, published, label_type, slug, views, in_stock,
	created_at, updated_at`

// scanProduct は1行分の商品をスキャンする。
func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.NewPrice, &p.PercentageOff, &p.Orders,
		pq.Array(&p.Color), pq.Array(&p.Size), &p.Img, pq.Array(&p.Categories),
		&p.Published, &p.LabelType, &p.Slug, &p.Views, &p.InStock,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

// FindByTitle はタイトル完全一致で商品を検索する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByTitle(ctx context.Context, title string) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE title = $1`, title,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by title: %w", err)
	}
	return p, nil
}

// Create は商品を作成する。タイトルまたはスラグ重複時はErrConflictを返す。
func (r *PostgresProductRepo) Create(ctx context.Context, p *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, title, description, price, new_price, percentage_off, orders,
			color, size, img, categories, published, label_type, slug, views, in_stock,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		p.ID, p.Title, p.Description, p.Price, p.NewPrice, p.PercentageOff, p.Orders,
		pq.Array(p.Color), pq.Array(p.Size), p.Img, pq.Array(p.Categories),
		p.Published, p.LabelType, p.Slug, p.Views, p.InStock,
		p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Update は商品情報を上書き更新する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) Update(ctx context.Context, p *model.Product) (*model.Product, error) {
	updated, err := scanProduct(r.db.QueryRowContext(ctx,
		`UPDATE products
		 SET title = $2, description = $3, price = $4, new_price = $5, percentage_off = $6,
		     color = $7, size = $8, img = $9, categories = $10, published = $11,
		     label_type = $12, slug = $13, in_stock = $14, updated_at = now()
		 WHERE id = $1
		 RETURNING `+productColumns,
		p.ID, p.Title, p.Description, p.Price, p.NewPrice, p.PercentageOff,
		pq.Array(p.Color), pq.Array(p.Size), p.Img, pq.Array(p.Categories),
		p.Published, p.LabelType, p.Slug, p.InStock,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

// DeleteByID は指定IDの商品を削除する。削除対象が存在しない場合はfalseを返す。
func (r *PostgresProductRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// List は作成日時降順で1ページ分の商品を返す。
func (r *PostgresProductRepo) List(ctx context.Context, offset, limit int) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 ORDER BY created_at DESC
		 OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// Count は商品の総数を返す。
func (r *PostgresProductRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// Search はタイトル・説明・カテゴリの部分一致（大文字小文字無視）で商品を検索する。
func (r *PostgresProductRepo) Search(ctx context.Context, query string) ([]*model.Product, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE title ILIKE $1 OR description ILIKE $1
		    OR EXISTS (SELECT 1 FROM unnest(categories) c WHERE c ILIKE $1)
		 ORDER BY created_at DESC`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// IsLikedBy はユーザーが商品をいいね済みかを返す。
func (r *PostgresProductRepo) IsLikedBy(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM product_likes WHERE user_id = $1 AND product_id = $2)`,
		userID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product like: %w", err)
	}
	return exists, nil
}

// AddLike はいいねを追加する。既に存在する場合は何もしない。
func (r *PostgresProductRepo) AddLike(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO product_likes (user_id, product_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to add product like: %w", err)
	}
	return nil
}

// RemoveLike はいいねを削除する。
func (r *PostgresProductRepo) RemoveLike(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM product_likes WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove product like: %w", err)
	}
	return nil
}

// ListLikedBy はユーザーがいいねした商品の一覧を返す。
func (r *PostgresProductRepo) ListLikedBy(ctx context.Context, userID string) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE id IN (SELECT product_id FROM product_likes WHERE user_id = $1)
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// IncrementViews は商品の閲覧数を1増やす。対象が存在しない場合はfalseを返す。
func (r *PostgresProductRepo) IncrementViews(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET views = views + 1 WHERE id = $1`, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to increment product views: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Stats は全商品の閲覧数といいね数を返す。
func (r *PostgresProductRepo) Stats(ctx context.Context) ([]model.ProductStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.views, COUNT(l.user_id)
		 FROM products p
		 LEFT JOIN product_likes l ON l.product_id = p.id
		 GROUP BY p.id, p.views
		 ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate product stats: %w", err)
	}
	defer rows.Close()

	var stats []model.ProductStat
	for rows.Next() {
		var s model.ProductStat
		if err := rows.Scan(&s.ProductID, &s.Views, &s.Likes); err != nil {
			return nil, fmt.Errorf("failed to scan product stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// collectProducts は複数行分の商品をスキャンする。
func collectProducts(rows *sql.Rows) ([]*model.Product, error) {
	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
