// Package model はドメインモデルを定義する。
package model

import "time"

// Announcement はストアフロントに表示するお知らせを表す。
type Announcement struct {
	ID        string
	Title     string
	Subtitle  string
	Text      string
	Img       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
