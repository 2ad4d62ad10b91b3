// Package model はドメインモデルを定義する。
package model

import "time"

// OrderStatus は注文のステータスを表す。
type OrderStatus string

const (
	// OrderStatusPending は注文直後の初期ステータス。
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusShipped は発送済みを表す。
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered は配達完了を表す。
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled はキャンセル済みを表す。
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order は注文を表す。
type Order struct {
	ID              string
	UserID          string
	Items           []OrderItem
	TotalPrice      float64
	ShippingAddress string
	TransactionID   string
	PaymentMethod   string
	Status          OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem は注文内の1商品分の明細を表す。
// ProductTitle等は一覧取得時に商品テーブルからJOINで補完される。
type OrderItem struct {
	ProductID    string
	Quantity     int
	ProductTitle string
	ProductPrice float64
	ProductImg   string
}

// OrderStat は月別の注文統計を表す。
type OrderStat struct {
	Month        int
	TotalOrders  int
	TotalRevenue float64
}
