// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/storefront/internal/model"
)

// ErrConflict は一意制約違反を表す。
// 同時サインアップ等の競合はストアの一意インデックスで解決し、
// 敗者側のINSERTがこのエラーを受け取る。
var ErrConflict = errors.New("unique constraint violation")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス完全一致でユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByGoogleID はGoogleのプロバイダーIDでユーザーを検索する。見つからない場合はnilを返す。
	FindByGoogleID(ctx context.Context, googleID string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレス重複時はErrConflictを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdatePasswordHash はパスワードハッシュのみを更新する。
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	// UpdateDetails は氏名・住所・補足情報・電話番号を更新し、profile_createdを立てる。
	// 見つからない場合はnilを返す。
	UpdateDetails(ctx context.Context, id string, name string, address model.Address, addInfo string, phone []string) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 削除対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// List は全ユーザーを返す。
	List(ctx context.Context) ([]*model.User, error)

	// Search は氏名またはメールアドレスの部分一致（大文字小文字無視）でユーザーを検索する。
	Search(ctx context.Context, query string) ([]*model.User, error)

	// Stats はis_adminフラグごとのアカウント数を返す。
	Stats(ctx context.Context) ([]model.UserStat, error)
}

// ProductRepository は商品データの永続化インターフェース。
type ProductRepository interface {
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// FindByTitle はタイトル完全一致で商品を検索する。見つからない場合はnilを返す。
	FindByTitle(ctx context.Context, title string) (*model.Product, error)

	// Create は商品を作成する。タイトルまたはスラグ重複時はErrConflictを返す。
	Create(ctx context.Context, product *model.Product) error

	// Update は商品情報を上書き更新する。見つからない場合はnilを返す。
	Update(ctx context.Context, product *model.Product) (*model.Product, error)

	// DeleteByID は指定IDの商品を削除する。削除対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// List は作成日時降順で1ページ分の商品を返す。
	List(ctx context.Context, offset, limit int) ([]*model.Product, error)

	// Count は商品の総数を返す。
	Count(ctx context.Context) (int, error)

	// Search はタイトル・説明・カテゴリの部分一致（大文字小文字無視）で商品を検索する。
	Search(ctx context.Context, query string) ([]*model.Product, error)

	// IsLikedBy はユーザーが商品をいいね済みかを返す。
	IsLikedBy(ctx context.Context, userID, productID string) (bool, error)

	// AddLike はいいねを追加する。既に存在する場合は何もしない。
	AddLike(ctx context.Context, userID, productID string) error

	// RemoveLike はいいねを削除する。
	RemoveLike(ctx context.Context, userID, productID string) error

	// ListLikedBy はユーザーがいいねした商品の一覧を返す。
	ListLikedBy(ctx context.Context, userID string) ([]*model.Product, error)

	// IncrementViews は商品の閲覧数を1増やす。対象が存在しない場合はfalseを返す。
	IncrementViews(ctx context.Context, id string) (bool, error)

	// Stats は全商品の閲覧数といいね数を返す。
	Stats(ctx context.Context) ([]model.ProductStat, error)
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Category, error)

	// FindByName はカテゴリ名完全一致でカテゴリを検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Category, error)

	// Create はカテゴリを作成する。カテゴリ名重複時はErrConflictを返す。
	Create(ctx context.Context, category *model.Category) error

	// Update はカテゴリを更新する。imgが空文字列の場合は既存の画像URLを維持する。
	// 見つからない場合はnilを返す。
	Update(ctx context.Context, category *model.Category) (*model.Category, error)

	// DeleteByID は指定IDのカテゴリを削除する。削除対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// List は作成日時降順で全カテゴリを返す。
	List(ctx context.Context) ([]*model.Category, error)
}

// OrderRepository は注文データの永続化インターフェース。
type OrderRepository interface {
	// FindByID は指定IDの注文を明細付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Order, error)

	// Create は注文と明細を同一トランザクションで作成する。
	Create(ctx context.Context, order *model.Order) error

	// List は全注文を商品情報（タイトル・価格・画像）付きで返す。
	List(ctx context.Context) ([]*model.Order, error)

	// ListByUserID は指定ユーザーの注文を商品情報付きで返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Order, error)

	// UpdateStatus は注文ステータスを更新する。見つからない場合はnilを返す。
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)

	// DeleteByID は指定IDの注文を削除する。削除対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// MonthlyStats は月別の注文数と売上合計を返す。
	MonthlyStats(ctx context.Context) ([]model.OrderStat, error)
}

// AnnouncementRepository はお知らせデータの永続化インターフェース。
type AnnouncementRepository interface {
	// FindByID は指定IDのお知らせを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Announcement, error)

	// Create はお知らせを作成する。
	Create(ctx context.Context, announcement *model.Announcement) error

	// List は作成日時降順で全お知らせを返す。
	List(ctx context.Context) ([]*model.Announcement, error)

	// DeleteByID は指定IDのお知らせを削除する。削除対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}
