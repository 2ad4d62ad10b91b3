// Package model はドメインモデルを定義する。
package model

import "time"

// Category は商品カテゴリを表す。Nameは一意。
type Category struct {
	ID          string
	Name        string
	Description string
	Img         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
