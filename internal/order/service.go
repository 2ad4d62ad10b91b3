// Package order は注文のドメインロジックを提供する。
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
)

// CreateOrderInput は注文作成の入力。
type CreateOrderInput struct {
	UserID          string
	Items           []OrderItemInput
	ShippingAddress string
	TransactionID   string
	PaymentMethod   string
}

// OrderItemInput は注文明細1件分の入力。
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// OrderService は注文のサービス層。
// 注文金額はクライアントの申告値ではなく商品テーブルの現在価格から算出する。
type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	sanitizer security.InputSanitizerService
	collector metrics.MetricsCollector
}

// NewOrderService はOrderServiceの新しいインスタンスを生成する。
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	sanitizer security.InputSanitizerService,
	collector metrics.MetricsCollector,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		sanitizer: sanitizer,
		collector: collector,
	}
}

// Create は注文を作成する。
// フロー: 明細検証 → 商品価格から合計金額算出 → 保存
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, model.NewValidationError("注文には1件以上の商品を指定してください。")
	}

	var total float64
	items := make([]model.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, model.NewValidationError("数量は1以上を指定してください。")
		}

		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
		}
		if product == nil {
			return nil, model.NewProductNotFoundError(item.ProductID)
		}

		// セール価格が設定されていればそちらを適用する
		price := product.Price
		if product.NewPrice != nil {
			price = *product.NewPrice
		}
		total += price * float64(item.Quantity)

		items = append(items, model.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	now := time.Now()
	order := &model.Order{
		ID:              uuid.NewString(),
		UserID:          input.UserID,
		Items:           items,
		TotalPrice:      total,
		ShippingAddress: s.sanitizer.Sanitize(input.ShippingAddress),
		TransactionID:   s.sanitizer.Sanitize(input.TransactionID),
		PaymentMethod:   s.sanitizer.Sanitize(input.PaymentMethod),
		Status:          model.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("注文の保存に失敗しました: %w", err)
	}

	s.collector.RecordOrderCreated()

	return order, nil
}

// Get は注文を明細付きで取得する。
func (s *OrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError(id)
	}
	return order, nil
}

// List は全注文を商品情報付きで返す。管理者向け。
func (s *OrderService) List(ctx context.Context) ([]*model.Order, error) {
	return s.orders.List(ctx)
}

// ListByUser は指定ユーザーの注文を商品情報付きで返す。
func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	return s.orders.ListByUserID(ctx, userID)
}

// UpdateStatus は注文ステータスを更新する。
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	switch status {
	case model.OrderStatusPending, model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled:
	default:
		return nil, model.NewValidationError(fmt.Sprintf("不正な注文ステータスです: %s", status))
	}

	order, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("注文ステータスの更新に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError(id)
	}
	return order, nil
}

// Delete は注文を削除する。
func (s *OrderService) Delete(ctx context.Context, id string) error {
	deleted, err := s.orders.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("注文の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewOrderNotFoundError(id)
	}
	return nil
}

// MonthlyStats は月別の注文数と売上合計を返す。
func (s *OrderService) MonthlyStats(ctx context.Context) ([]model.OrderStat, error) {
	return s.orders.MonthlyStats(ctx)
}
