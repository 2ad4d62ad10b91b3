package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/order"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type OrderServiceInterface interface {
	// Create は注文を作成する。合計金額は商品テーブルの現在価格から算出される。
	Create(ctx context.Context, input order.CreateOrderInput) (*model.Order, error)
	// Get は注文を取得する。
	Get(ctx context.Context, id string) (*model.Order, error)
	// List は全注文を返す。
	List(ctx context.Context) ([]*model.Order, error)
	// ListByUser はユーザーの注文一覧を返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
	// UpdateStatus は注文ステータスを更新する。
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
	// Delete は注文を削除する。
	Delete(ctx context.Context, id string) error
	// MonthlyStats は月別の注文数と売上を返す。
	MonthlyStats(ctx context.Context) ([]model.OrderStat, error)
}

// PurchaserFinder は注文詳細に購入者情報を補完するためのインターフェース。
// ユーザーサービスが実装する。
type PurchaserFinder interface {
	// Get はユーザーを取得する。
	Get(ctx context.Context, id string) (*model.User, error)
}

// OrderHandler は注文のHTTPハンドラー。
type OrderHandler struct {
	service OrderServiceInterface
	users   PurchaserFinder
}

// NewOrderHandler はOrderHandlerを生成する。
func NewOrderHandler(service OrderServiceInterface, users PurchaserFinder) *OrderHandler {
	return &OrderHandler{
		service: service,
		users:   users,
	}
}

// createOrderRequest は注文作成リクエストのボディ。
// 合計金額はサーバー側で算出するため受け取らない。
type createOrderRequest struct {
	Items           []orderItemPayload `json:"items"`
	ShippingAddress string             `json:"shipping_address"`
	TransactionID   string             `json:"transaction_id"`
	PaymentMethod   string             `json:"payment_method"`
}

// updateOrderStatusRequest はステータス更新リクエストのボディ。
type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// orderItemPayload は注文明細1件分のリクエスト表現。
type orderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// orderItemResponse は注文明細1件分のAPIレスポンス。
type orderItemResponse struct {
	ProductID    string  `json:"product_id"`
	Quantity     int     `json:"quantity"`
	ProductTitle string  `json:"product_title,omitempty"`
	ProductPrice float64 `json:"product_price,omitempty"`
	ProductImg   string  `json:"product_img,omitempty"`
}

// orderResponse は注文情報のAPIレスポンス。
type orderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Items           []orderItemResponse `json:"items"`
	TotalPrice      float64             `json:"total_price"`
	ShippingAddress string              `json:"shipping_address"`
	TransactionID   string              `json:"transaction_id"`
	PaymentMethod   string              `json:"payment_method"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
}

// orderDetailResponse は購入者情報付きの注文詳細レスポンス。
type orderDetailResponse struct {
	Order     orderResponse       `json:"order"`
	Purchaser userSummaryResponse `json:"purchaser"`
}

// orderStatResponse は月別注文統計の1か月分。
type orderStatResponse struct {
	Month        int     `json:"month"`
	TotalOrders  int     `json:"total_orders"`
	TotalRevenue float64 `json:"total_revenue"`
}

// CreateOrder は呼び出しユーザーの注文を作成する。
// POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	items := make([]order.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, order.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	// 注文は常に呼び出しユーザーに帰属する
	created, err := h.service.Create(r.Context(), order.CreateOrderInput{
		UserID:          claims.UserID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		TransactionID:   req.TransactionID,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(created))
}

// GetOrder は注文詳細を取得する。管理者以外は自分の注文のみ閲覧できる。
// GET /api/orders/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	o, err := h.service.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !claims.IsAdmin && o.UserID != claims.UserID {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// GetOrderDetail は購入者情報付きの注文詳細を取得する。
// GET /api/orders/user/{orderId}
func (h *OrderHandler) GetOrderDetail(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	purchaser, err := h.users.Get(r.Context(), o.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderDetailResponse{
		Order:     toOrderResponse(o),
		Purchaser: userSummaryResponse{ID: purchaser.ID, Email: purchaser.Email},
	})
}

// ListOrders は全注文の一覧を返す。
// GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// ListMyOrders は呼び出しユーザーの注文一覧を返す。
// GET /api/orders/user
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	orders, err := h.service.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// UpdateOrderStatus は注文ステータスを更新する。
// PUT /api/orders/{orderId}/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "orderId"), model.OrderStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// DeleteOrder は注文を削除する。
// DELETE /api/orders/{orderId}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "orderId")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrderStats は月別の注文数と売上を返す。
// GET /api/orders/stats
func (h *OrderHandler) OrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.MonthlyStats(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := make([]orderStatResponse, 0, len(stats))
	for _, s := range stats {
		body = append(body, orderStatResponse{
			Month:        s.Month,
			TotalOrders:  s.TotalOrders,
			TotalRevenue: s.TotalRevenue,
		})
	}
	writeJSON(w, http.StatusOK, body)
}

func toOrderResponse(o *model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			ProductTitle: item.ProductTitle,
			ProductPrice: item.ProductPrice,
			ProductImg:   item.ProductImg,
		})
	}
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		TotalPrice:      o.TotalPrice,
		ShippingAddress: o.ShippingAddress,
		TransactionID:   o.TransactionID,
		PaymentMethod:   o.PaymentMethod,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
	}
}

func toOrderResponses(orders []*model.Order) []orderResponse {
	body := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		body = append(body, toOrderResponse(o))
	}
	return body
}
