package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/category"
	"github.com/hitoshi/storefront/internal/image"
	"github.com/hitoshi/storefront/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	// Create はカテゴリを作成する。
	Create(ctx context.Context, input category.CategoryInput) (*model.Category, error)
	// Update はカテゴリを更新する。
	Update(ctx context.Context, id string, input category.CategoryInput) (*model.Category, error)
	// Delete はカテゴリを削除する。
	Delete(ctx context.Context, id string) error
	// Get はカテゴリを取得する。
	Get(ctx context.Context, id string) (*model.Category, error)
	// List は全カテゴリを返す。
	List(ctx context.Context) ([]*model.Category, error)
}

// CategoryHandler は商品カテゴリのHTTPハンドラー。
type CategoryHandler struct {
	service  CategoryServiceInterface
	uploader image.Uploader
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface, uploader image.Uploader) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		uploader: uploader,
	}
}

// categoryResponse はカテゴリ情報のAPIレスポンス。
type categoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Img         string    `json:"img"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCategory はカテゴリを作成する。画像はマルチパートの img フィールドで
// 受け取り、省略可能。
// POST /api/categories/create-category
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	input, err := h.parseCategoryForm(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(created))
}

// UpdateCategory はカテゴリを更新する。画像フィールドが省略された場合は
// 既存の画像URLを維持する。
// PUT /api/categories/update-category/{categoryId}
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	input, err := h.parseCategoryForm(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "categoryId"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(updated))
}

// DeleteCategory はカテゴリを削除する。
// DELETE /api/categories/{categoryId}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "categoryId")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCategory はカテゴリ詳細を取得する。
// GET /api/categories/category/{categoryId}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "categoryId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

// ListCategories は全カテゴリの一覧を返す。
// GET /api/categories/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		body = append(body, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, body)
}

// parseCategoryForm はマルチパートフォームからカテゴリ入力を組み立てる。
// 画像が添付されていれば画像ホストにアップロードし、URLを入力に含める。
func (h *CategoryHandler) parseCategoryForm(r *http.Request) (category.CategoryInput, error) {
	var input category.CategoryInput

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return input, model.NewValidationError("マルチパートフォームの解析に失敗しました。")
	}

	imgURL := ""
	if file, header, err := r.FormFile("img"); err == nil {
		defer file.Close()
		imgURL, err = h.uploader.Upload(r.Context(), header.Filename, file)
		if err != nil {
			return input, err
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		return input, model.NewValidationError("画像フィールドの読み取りに失敗しました。")
	}

	input = category.CategoryInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Img:         imgURL,
	}
	return input, nil
}

func toCategoryResponse(c *model.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Img:         c.Img,
		CreatedAt:   c.CreatedAt,
	}
}
