package category

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
)

// mockCategoryRepo はCategoryRepositoryのモック。
type mockCategoryRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.Category, error)
	findByNameFn func(ctx context.Context, name string) (*model.Category, error)
	createFn     func(ctx context.Context, category *model.Category) error
	updateFn     func(ctx context.Context, category *model.Category) (*model.Category, error)
	deleteByIDFn func(ctx context.Context, id string) (bool, error)
	listFn       func(ctx context.Context) ([]*model.Category, error)
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockCategoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	return m.findByNameFn(ctx, name)
}
func (m *mockCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	return m.createFn(ctx, category)
}
func (m *mockCategoryRepo) Update(ctx context.Context, category *model.Category) (*model.Category, error) {
	return m.updateFn(ctx, category)
}
func (m *mockCategoryRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	return m.deleteByIDFn(ctx, id)
}
func (m *mockCategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	return m.listFn(ctx)
}

var _ repository.CategoryRepository = (*mockCategoryRepo)(nil)

func newTestCategoryService(repo repository.CategoryRepository) *CategoryService {
	return NewCategoryService(repo, security.NewInputSanitizer())
}

func TestCreateCategory(t *testing.T) {
	t.Run("カテゴリを作成できる", func(t *testing.T) {
		var created *model.Category
		repo := &mockCategoryRepo{
			findByNameFn: func(ctx context.Context, name string) (*model.Category, error) {
				return nil, nil
			},
			createFn: func(ctx context.Context, category *model.Category) error {
				created = category
				return nil
			},
		}
		svc := newTestCategoryService(repo)

		category, err := svc.Create(context.Background(), CategoryInput{
			Name:        "シャツ",
			Description: "トップス各種",
			Img:         "https://cdn.example.com/shirts.png",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if category.Name != "シャツ" {
			t.Errorf("name = %q, want シャツ", category.Name)
		}
		if created == nil {
			t.Fatal("category was not persisted")
		}
	})

	t.Run("カテゴリ名重複は409相当のエラー", func(t *testing.T) {
		repo := &mockCategoryRepo{
			findByNameFn: func(ctx context.Context, name string) (*model.Category, error) {
				return &model.Category{ID: "c1", Name: name}, nil
			},
		}
		svc := newTestCategoryService(repo)

		_, err := svc.Create(context.Background(), CategoryInput{Name: "シャツ"})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCategoryNameConflict {
			t.Fatalf("error = %v, want category name conflict", err)
		}
	})

	t.Run("名前が空の場合はバリデーションエラー", func(t *testing.T) {
		svc := newTestCategoryService(&mockCategoryRepo{})

		_, err := svc.Create(context.Background(), CategoryInput{Name: ""})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
			t.Fatalf("error = %v, want validation error", err)
		}
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("存在しないカテゴリは404相当のエラー", func(t *testing.T) {
		repo := &mockCategoryRepo{
			updateFn: func(ctx context.Context, category *model.Category) (*model.Category, error) {
				return nil, nil
			},
		}
		svc := newTestCategoryService(repo)

		_, err := svc.Update(context.Background(), "missing", CategoryInput{Name: "シャツ"})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCategoryNotFound {
			t.Fatalf("error = %v, want category not found", err)
		}
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("カテゴリを削除できる", func(t *testing.T) {
		repo := &mockCategoryRepo{
			deleteByIDFn: func(ctx context.Context, id string) (bool, error) {
				return true, nil
			},
		}
		svc := newTestCategoryService(repo)

		if err := svc.Delete(context.Background(), "c1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("存在しないカテゴリの削除は404相当のエラー", func(t *testing.T) {
		repo := &mockCategoryRepo{
			deleteByIDFn: func(ctx context.Context, id string) (bool, error) {
				return false, nil
			},
		}
		svc := newTestCategoryService(repo)

		err := svc.Delete(context.Background(), "missing")
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCategoryNotFound {
			t.Fatalf("error = %v, want category not found", err)
		}
	})
}
