// Package model はドメインモデルを定義する。
package model

import "time"

// Product は販売商品を表す。
// Slugはタイトルから自動生成され、タイトルと同様に一意。
type Product struct {
	ID            string
	Title         string
	Description   string
	Price         float64
	NewPrice      *float64 // セール価格。未設定ならnil
	PercentageOff int
	Orders        int
	Color         []string
	Size          []string
	Img           string
	Categories    []string
	Published     bool
	LabelType     string
	Slug          string
	Views         int
	InStock       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductStat は管理者向け商品統計の1商品分を表す。
type ProductStat struct {
	ProductID string
	Views     int
	Likes     int
}

// Pagination はページネーションメタデータを表す。
// 前後のページが存在しない場合、対応するフィールドはnil。
type Pagination struct {
	Next *PageRef
	Prev *PageRef
}

// PageRef はページネーションの1ページ分の参照を表す。
type PageRef struct {
	Page  int
	Limit int
}
