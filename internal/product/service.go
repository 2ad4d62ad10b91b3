// Package product は商品カタログのドメインロジックを提供する。
package product

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
)

// defaultPageLimit は商品一覧のデフォルトページサイズ。
const defaultPageLimit = 12

// CreateProductInput は商品作成の入力。
type CreateProductInput struct {
	Title       string
	Description string
	Price       float64
	NewPrice    *float64
	Color       []string
	Size        []string
	Img         string
	Categories  []string
	Published   bool
	LabelType   string
	InStock     int
}

// UpdateProductInput は商品更新の入力。
// Imgが空文字列の場合は既存の画像URLを維持する。
type UpdateProductInput struct {
	Title       string
	Description string
	Price       float64
	NewPrice    *float64
	Color       []string
	Size        []string
	Img         string
	Categories  []string
	Published   bool
	LabelType   string
	InStock     int
}

// ProductService は商品カタログのサービス層。
type ProductService struct {
	products  repository.ProductRepository
	sanitizer security.InputSanitizerService
}

// NewProductService はProductServiceの新しいインスタンスを生成する。
func NewProductService(products repository.ProductRepository, sanitizer security.InputSanitizerService) *ProductService {
	return &ProductService{
		products:  products,
		sanitizer: sanitizer,
	}
}

// Create は商品を作成する。
// フロー: 入力サニタイズ → タイトル重複チェック → スラグ生成 → 保存
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*model.Product, error) {
	title := s.sanitizer.Sanitize(input.Title)
	if title == "" {
		return nil, model.NewValidationError("商品タイトルを入力してください。")
	}
	if input.Price <= 0 {
		return nil, model.NewValidationError("価格は0より大きい値を指定してください。")
	}

	existing, err := s.products.FindByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("商品の検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewTitleConflictError()
	}

	now := time.Now()
	product := &model.Product{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   s.sanitizer.Sanitize(input.Description),
		Price:         input.Price,
		NewPrice:      input.NewPrice,
		PercentageOff: percentageOff(input.Price, input.NewPrice),
		Color:         s.sanitizer.SanitizeAll(input.Color),
		Size:          s.sanitizer.SanitizeAll(input.Size),
		Img:           input.Img,
		Categories:    s.sanitizer.SanitizeAll(input.Categories),
		Published:     input.Published,
		LabelType:     s.sanitizer.Sanitize(input.LabelType),
		Slug:          Slugify(title),
		InStock:       input.InStock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, model.NewTitleConflictError()
		}
		return nil, fmt.Errorf("商品の保存に失敗しました: %w", err)
	}

	return product, nil
}

// Update は商品を更新する。タイトル変更時はスラグも再生成する。
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput) (*model.Product, error) {
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	title := s.sanitizer.Sanitize(input.Title)
	if title == "" {
		return nil, model.NewValidationError("商品タイトルを入力してください。")
	}

	img := input.Img
	if img == "" {
		img = existing.Img
	}

	updated := &model.Product{
		ID:            existing.ID,
		Title:         title,
		Description:   s.sanitizer.Sanitize(input.Description),
		Price:         input.Price,
		NewPrice:      input.NewPrice,
		PercentageOff: percentageOff(input.Price, input.NewPrice),
		Color:         s.sanitizer.SanitizeAll(input.Color),
		Size:          s.sanitizer.SanitizeAll(input.Size),
		Img:           img,
		Categories:    s.sanitizer.SanitizeAll(input.Categories),
		Published:     input.Published,
		LabelType:     s.sanitizer.Sanitize(input.LabelType),
		Slug:          Slugify(title),
		Views:         existing.Views,
		InStock:       input.InStock,
		CreatedAt:     existing.CreatedAt,
		UpdatedAt:     time.Now(),
	}

	result, err := s.products.Update(ctx, updated)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, model.NewTitleConflictError()
		}
		return nil, fmt.Errorf("商品の更新に失敗しました: %w", err)
	}
	if result == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	return result, nil
}

// Delete は商品を削除する。
func (s *ProductService) Delete(ctx context.Context, id string) error {
	deleted, err := s.products.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("商品の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewProductNotFoundError(id)
	}
	return nil
}

// Get は商品を取得し、閲覧数を1増やす。
func (s *ProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	// 閲覧数の更新失敗は取得自体を失敗させない
	if _, err := s.products.IncrementViews(ctx, id); err == nil {
		product.Views++
	}

	return product, nil
}

// List は1ページ分の商品とページネーションメタデータを返す。
// pageは1始まり。limitが0以下の場合はデフォルトページサイズを使用する。
func (s *ProductService) List(ctx context.Context, page, limit int) ([]*model.Product, *model.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}

	offset := (page - 1) * limit
	products, err := s.products.List(ctx, offset, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}

	total, err := s.products.Count(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("商品数の取得に失敗しました: %w", err)
	}

	pagination := &model.Pagination{}
	if offset+len(products) < total {
		pagination.Next = &model.PageRef{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		pagination.Prev = &model.PageRef{Page: page - 1, Limit: limit}
	}

	return products, pagination, nil
}

// RecordView は商品の閲覧数を1増やす。
func (s *ProductService) RecordView(ctx context.Context, id string) error {
	updated, err := s.products.IncrementViews(ctx, id)
	if err != nil {
		return fmt.Errorf("閲覧数の更新に失敗しました: %w", err)
	}
	if !updated {
		return model.NewProductNotFoundError(id)
	}
	return nil
}

// Search はタイトル・説明・カテゴリの部分一致で商品を検索する。
func (s *ProductService) Search(ctx context.Context, query string) ([]*model.Product, error) {
	return s.products.Search(ctx, query)
}

// Like はユーザーの商品へのいいねを追加する。既にいいね済みの場合は何もしない。
func (s *ProductService) Like(ctx context.Context, userID, productID string) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return model.NewProductNotFoundError(productID)
	}

	if err := s.products.AddLike(ctx, userID, productID); err != nil {
		return fmt.Errorf("いいねの追加に失敗しました: %w", err)
	}
	return nil
}

// Unlike はユーザーの商品へのいいねを取り消す。
func (s *ProductService) Unlike(ctx context.Context, userID, productID string) error {
	if err := s.products.RemoveLike(ctx, userID, productID); err != nil {
		return fmt.Errorf("いいねの削除に失敗しました: %w", err)
	}
	return nil
}

// IsLiked はユーザーが商品をいいね済みかを返す。
func (s *ProductService) IsLiked(ctx context.Context, userID, productID string) (bool, error) {
	return s.products.IsLikedBy(ctx, userID, productID)
}

// ListLiked はユーザーがいいねした商品の一覧を返す。
func (s *ProductService) ListLiked(ctx context.Context, userID string) ([]*model.Product, error) {
	return s.products.ListLikedBy(ctx, userID)
}

// Stats は全商品の閲覧数といいね数を返す。
func (s *ProductService) Stats(ctx context.Context) ([]model.ProductStat, error) {
	return s.products.Stats(ctx)
}

// percentageOff はセール価格から割引率（%）を算出する。
func percentageOff(price float64, newPrice *float64) int {
	if newPrice == nil || price <= 0 || *newPrice >= price {
		return 0
	}
	return int(math.Round((price - *newPrice) / price * 100))
}
