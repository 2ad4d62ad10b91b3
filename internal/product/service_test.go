package product

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
)

// mockProductRepo はProductRepositoryのモック。
// 使用するメソッドのみ関数フィールドで差し替える。
type mockProductRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.Product, error)
	findByTitleFn    func(ctx context.Context, title string) (*model.Product, error)
	createFn         func(ctx context.Context, product *model.Product) error
	updateFn         func(ctx context.Context, product *model.Product) (*model.Product, error)
	deleteByIDFn     func(ctx context.Context, id string) (bool, error)
	listFn           func(ctx context.Context, offset, limit int) ([]*model.Product, error)
	countFn          func(ctx context.Context) (int, error)
	searchFn         func(ctx context.Context, query string) ([]*model.Product, error)
	isLikedByFn      func(ctx context.Context, userID, productID string) (bool, error)
	addLikeFn        func(ctx context.Context, userID, productID string) error
	removeLikeFn     func(ctx context.Context, userID, productID string) error
	listLikedByFn    func(ctx context.Context, userID string) ([]*model.Product, error)
	incrementViewsFn func(ctx context.Context, id string) (bool, error)
	statsFn          func(ctx context.Context) ([]model.ProductStat, error)
}

func (m *mockProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockProductRepo) FindByTitle(ctx context.Context, title string) (*model.Product, error) {
	return m.findByTitleFn(ctx, title)
}
func (m *mockProductRepo) Create(ctx context.Context, product *model.Product) error {
	return m.createFn(ctx, product)
}
func (m *mockProductRepo) Update(ctx context.Context, product *model.Product) (*model.Product, error) {
	return m.updateFn(ctx, product)
}
func (m *mockProductRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	return m.deleteByIDFn(ctx, id)
}
func (m *mockProductRepo) List(ctx context.Context, offset, limit int) ([]*model.Product, error) {
	return m.listFn(ctx, offset, limit)
}
func (m *mockProductRepo) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}
func (m *mockProductRepo) Search(ctx context.Context, query string) ([]*model.Product, error) {
	return m.searchFn(ctx, query)
}
func (m *mockProductRepo) IsLikedBy(ctx context.Context, userID, productID string) (bool, error) {
	return m.isLikedByFn(ctx, userID, productID)
}
func (m *mockProductRepo) AddLike(ctx context.Context, userID, productID string) error {
	return m.addLikeFn(ctx, userID, productID)
}
func (m *mockProductRepo) RemoveLike(ctx context.Context, userID, productID string) error {
	return m.removeLikeFn(ctx, userID, productID)
}
func (m *mockProductRepo) ListLikedBy(ctx context.Context, userID string) ([]*model.Product, error) {
	return m.listLikedByFn(ctx, userID)
}
func (m *mockProductRepo) IncrementViews(ctx context.Context, id string) (bool, error) {
	return m.incrementViewsFn(ctx, id)
}
func (m *mockProductRepo) Stats(ctx context.Context) ([]model.ProductStat, error) {
	return m.statsFn(ctx)
}

var _ repository.ProductRepository = (*mockProductRepo)(nil)

func newTestProductService(repo repository.ProductRepository) *ProductService {
	return NewProductService(repo, security.NewInputSanitizer())
}

func floatptr(f float64) *float64 { return &f }

func TestCreateProduct(t *testing.T) {
	t.Run("商品を作成しスラグと割引率が設定される", func(t *testing.T) {
		var created *model.Product
		repo := &mockProductRepo{
			findByTitleFn: func(ctx context.Context, title string) (*model.Product, error) {
				return nil, nil
			},
			createFn: func(ctx context.Context, product *model.Product) error {
				created = product
				return nil
			},
		}
		svc := newTestProductService(repo)

		product, err := svc.Create(context.Background(), CreateProductInput{
			Title:       "Cotton Shirt Blue",
			Description: "柔らかいコットンシャツ",
			Price:       100,
			NewPrice:    floatptr(75),
			InStock:     10,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if product.Slug != "cotton-shirt-blue" {
			t.Errorf("slug = %q, want %q", product.Slug, "cotton-shirt-blue")
		}
		if product.PercentageOff != 25 {
			t.Errorf("percentage off = %d, want 25", product.PercentageOff)
		}
		if created == nil {
			t.Fatal("product was not persisted")
		}
		// text[]カラムはNOT NULLのため、未指定の配列も空スライスとして保存する
		if created.Color == nil || created.Size == nil || created.Categories == nil {
			t.Errorf("array fields must be empty slices, not nil: color=%v size=%v categories=%v",
				created.Color, created.Size, created.Categories)
		}
	})

	t.Run("タイトルのHTMLタグはサニタイズされる", func(t *testing.T) {
		repo := &mockProductRepo{
			findByTitleFn: func(ctx context.Context, title string) (*model.Product, error) {
				return nil, nil
			},
			createFn: func(ctx context.Context, product *model.Product) error {
				return nil
			},
		}
		svc := newTestProductService(repo)

		product, err := svc.Create(context.Background(), CreateProductInput{
			Title: `<script>alert(1)</script>Shirt`,
			Price: 100,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if product.Title != "Shirt" {
			t.Errorf("title = %q, want %q", product.Title, "Shirt")
		}
	})

	t.Run("タイトル重複は409相当のエラー", func(t *testing.T) {
		repo := &mockProductRepo{
			findByTitleFn: func(ctx context.Context, title string) (*model.Product, error) {
				return &model.Product{ID: "p1", Title: title}, nil
			},
		}
		svc := newTestProductService(repo)

		_, err := svc.Create(context.Background(), CreateProductInput{Title: "Shirt", Price: 100})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTitleConflict {
			t.Fatalf("error = %v, want title conflict", err)
		}
	})

	t.Run("価格が0以下はバリデーションエラー", func(t *testing.T) {
		svc := newTestProductService(&mockProductRepo{})

		_, err := svc.Create(context.Background(), CreateProductInput{Title: "Shirt", Price: 0})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
			t.Fatalf("error = %v, want validation error", err)
		}
	})

	t.Run("一意制約違反の競合はタイトル重複として返す", func(t *testing.T) {
		repo := &mockProductRepo{
			findByTitleFn: func(ctx context.Context, title string) (*model.Product, error) {
				return nil, nil
			},
			createFn: func(ctx context.Context, product *model.Product) error {
				return repository.ErrConflict
			},
		}
		svc := newTestProductService(repo)

		_, err := svc.Create(context.Background(), CreateProductInput{Title: "Shirt", Price: 100})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTitleConflict {
			t.Fatalf("error = %v, want title conflict", err)
		}
	})
}

func TestUpdateProduct(t *testing.T) {
	existing := &model.Product{
		ID:    "p1",
		Title: "Old Title",
		Price: 100,
		Img:   "https://cdn.example.com/old.png",
		Views: 42,
	}

	t.Run("画像未指定の場合は既存の画像を維持する", func(t *testing.T) {
		repo := &mockProductRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
				return existing, nil
			},
			updateFn: func(ctx context.Context, product *model.Product) (*model.Product, error) {
				return product, nil
			},
		}
		svc := newTestProductService(repo)

		updated, err := svc.Update(context.Background(), "p1", UpdateProductInput{
			Title: "New Title",
			Price: 120,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Img != "https://cdn.example.com/old.png" {
			t.Errorf("img = %q, want existing image kept", updated.Img)
		}
		if updated.Slug != "new-title" {
			t.Errorf("slug = %q, want regenerated slug", updated.Slug)
		}
		if updated.Views != 42 {
			t.Errorf("views = %d, want preserved views", updated.Views)
		}
	})

	t.Run("存在しない商品は404相当のエラー", func(t *testing.T) {
		repo := &mockProductRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
				return nil, nil
			},
		}
		svc := newTestProductService(repo)

		_, err := svc.Update(context.Background(), "missing", UpdateProductInput{Title: "X", Price: 1})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProductNotFound {
			t.Fatalf("error = %v, want product not found", err)
		}
	})
}

func TestGetProduct(t *testing.T) {
	t.Run("取得時に閲覧数が増加する", func(t *testing.T) {
		incremented := false
		repo := &mockProductRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
				return &model.Product{ID: id, Title: "Shirt", Views: 10}, nil
			},
			incrementViewsFn: func(ctx context.Context, id string) (bool, error) {
				incremented = true
				return true, nil
			},
		}
		svc := newTestProductService(repo)

		product, err := svc.Get(context.Background(), "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !incremented {
			t.Error("views were not incremented")
		}
		if product.Views != 11 {
			t.Errorf("views = %d, want 11", product.Views)
		}
	})

	t.Run("存在しない商品は404相当のエラー", func(t *testing.T) {
		repo := &mockProductRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
				return nil, nil
			},
		}
		svc := newTestProductService(repo)

		_, err := svc.Get(context.Background(), "missing")
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProductNotFound {
			t.Fatalf("error = %v, want product not found", err)
		}
	})
}

func TestListProducts(t *testing.T) {
	makeProducts := func(n int) []*model.Product {
		products := make([]*model.Product, n)
		for i := range products {
			products[i] = &model.Product{ID: "p", Title: "Shirt"}
		}
		return products
	}

	tests := []struct {
		name     string
		page     int
		limit    int
		returned int
		total    int
		wantNext *model.PageRef
		wantPrev *model.PageRef
	}{
		{
			name: "中間ページは前後両方のページ参照を持つ",
			page: 2, limit: 10, returned: 10, total: 30,
			wantNext: &model.PageRef{Page: 3, Limit: 10},
			wantPrev: &model.PageRef{Page: 1, Limit: 10},
		},
		{
			name: "先頭ページにprevはない",
			page: 1, limit: 10, returned: 10, total: 30,
			wantNext: &model.PageRef{Page: 2, Limit: 10},
		},
		{
			name: "最終ページにnextはない",
			page: 3, limit: 10, returned: 10, total: 30,
			wantPrev: &model.PageRef{Page: 2, Limit: 10},
		},
		{
			name: "1ページに収まる場合はどちらもない",
			page: 1, limit: 10, returned: 5, total: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockProductRepo{
				listFn: func(ctx context.Context, offset, limit int) ([]*model.Product, error) {
					wantOffset := (tt.page - 1) * tt.limit
					if offset != wantOffset {
						t.Errorf("offset = %d, want %d", offset, wantOffset)
					}
					return makeProducts(tt.returned), nil
				},
				countFn: func(ctx context.Context) (int, error) {
					return tt.total, nil
				},
			}
			svc := newTestProductService(repo)

			_, pagination, err := svc.List(context.Background(), tt.page, tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			assertPageRef(t, "next", pagination.Next, tt.wantNext)
			assertPageRef(t, "prev", pagination.Prev, tt.wantPrev)
		})
	}
}

func assertPageRef(t *testing.T, name string, got, want *model.PageRef) {
	t.Helper()
	if want == nil {
		if got != nil {
			t.Errorf("%s = %+v, want nil", name, got)
		}
		return
	}
	if got == nil {
		t.Fatalf("%s = nil, want %+v", name, want)
	}
	if got.Page != want.Page || got.Limit != want.Limit {
		t.Errorf("%s = %+v, want %+v", name, got, want)
	}
}

func TestLike(t *testing.T) {
	t.Run("存在する商品にいいねできる", func(t *testing.T) {
		liked := false
		repo := &mockProductRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
				return &model.Product{ID: id}, nil
			},
			addLikeFn: func(ctx context.Context, userID, productID string) error {
				liked = true
				return nil
			},
		}
		svc := newTestProductService(repo)

		if err := svc.Like(context.Background(), "u1", "p1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !liked {
			t.Error("like was not added")
		}
	})

	t.Run("存在しない商品へのいいねは404相当のエラー", func(t *testing.T) {
		repo := &mockProductRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
				return nil, nil
			},
		}
		svc := newTestProductService(repo)

		err := svc.Like(context.Background(), "u1", "missing")
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProductNotFound {
			t.Fatalf("error = %v, want product not found", err)
		}
	})
}

func TestRecordView(t *testing.T) {
	t.Run("閲覧数を加算できる", func(t *testing.T) {
		var recorded string
		repo := &mockProductRepo{
			incrementViewsFn: func(ctx context.Context, id string) (bool, error) {
				recorded = id
				return true, nil
			},
		}
		svc := newTestProductService(repo)

		if err := svc.RecordView(context.Background(), "p1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if recorded != "p1" {
			t.Errorf("incremented id = %q, want %q", recorded, "p1")
		}
	})

	t.Run("存在しない商品は404相当のエラー", func(t *testing.T) {
		repo := &mockProductRepo{
			incrementViewsFn: func(ctx context.Context, id string) (bool, error) {
				return false, nil
			},
		}
		svc := newTestProductService(repo)

		err := svc.RecordView(context.Background(), "missing")
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProductNotFound {
			t.Fatalf("error = %v, want product not found", err)
		}
	})
}
