// Package category は商品カテゴリのドメインロジックを提供する。
package category

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
)

// CategoryInput はカテゴリ作成・更新の入力。
// 更新時にImgが空文字列の場合は既存の画像URLを維持する。
type CategoryInput struct {
	Name        string
	Description string
	Img         string
}

// CategoryService は商品カテゴリのサービス層。
type CategoryService struct {
	categories repository.CategoryRepository
	sanitizer  security.InputSanitizerService
}

// NewCategoryService はCategoryServiceの新しいインスタンスを生成する。
func NewCategoryService(categories repository.CategoryRepository, sanitizer security.InputSanitizerService) *CategoryService {
	return &CategoryService{
		categories: categories,
		sanitizer:  sanitizer,
	}
}

// Create はカテゴリを作成する。カテゴリ名は一意。
func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*model.Category, error) {
	name := s.sanitizer.Sanitize(input.Name)
	if name == "" {
		return nil, model.NewValidationError("カテゴリ名を入力してください。")
	}

	existing, err := s.categories.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewCategoryNameConflictError()
	}

	now := time.Now()
	category := &model.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: s.sanitizer.Sanitize(input.Description),
		Img:         input.Img,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, model.NewCategoryNameConflictError()
		}
		return nil, fmt.Errorf("カテゴリの保存に失敗しました: %w", err)
	}

	return category, nil
}

// Update はカテゴリを更新する。
func (s *CategoryService) Update(ctx context.Context, id string, input CategoryInput) (*model.Category, error) {
	name := s.sanitizer.Sanitize(input.Name)
	if name == "" {
		return nil, model.NewValidationError("カテゴリ名を入力してください。")
	}

	updated, err := s.categories.Update(ctx, &model.Category{
		ID:          id,
		Name:        name,
		Description: s.sanitizer.Sanitize(input.Description),
		Img:         input.Img,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, model.NewCategoryNameConflictError()
		}
		return nil, fmt.Errorf("カテゴリの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewCategoryNotFoundError(id)
	}

	return updated, nil
}

// Delete はカテゴリを削除する。
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	deleted, err := s.categories.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("カテゴリの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewCategoryNotFoundError(id)
	}
	return nil
}

// Get はカテゴリを取得する。
func (s *CategoryService) Get(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return nil, model.NewCategoryNotFoundError(id)
	}
	return category, nil
}

// List は作成日時降順で全カテゴリを返す。
func (s *CategoryService) List(ctx context.Context) ([]*model.Category, error) {
	return s.categories.List(ctx)
}
