package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/image"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/product"
)

// maxUploadSize は商品画像を含むマルチパートフォームの最大サイズ（32MB）。
const maxUploadSize = 32 << 20

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	// Create は商品を作成する。
	Create(ctx context.Context, input product.CreateProductInput) (*model.Product, error)
	// Update は商品を更新する。
	Update(ctx context.Context, id string, input product.UpdateProductInput) (*model.Product, error)
	// Delete は商品を削除する。
	Delete(ctx context.Context, id string) error
	// Get は商品を取得し、閲覧数を1増やす。
	Get(ctx context.Context, id string) (*model.Product, error)
	// List は1ページ分の商品とページネーションメタデータを返す。
	List(ctx context.Context, page, limit int) ([]*model.Product, *model.Pagination, error)
	// Search は部分一致で商品を検索する。
	Search(ctx context.Context, query string) ([]*model.Product, error)
	// RecordView は商品の閲覧数を1増やす。
	RecordView(ctx context.Context, id string) error
	// Like はいいねを追加する。
	Like(ctx context.Context, userID, productID string) error
	// Unlike はいいねを取り消す。
	Unlike(ctx context.Context, userID, productID string) error
	// IsLiked はいいね済みかを返す。
	IsLiked(ctx context.Context, userID, productID string) (bool, error)
	// ListLiked はいいねした商品の一覧を返す。
	ListLiked(ctx context.Context, userID string) ([]*model.Product, error)
	// Stats は全商品の閲覧数といいね数を返す。
	Stats(ctx context.Context) ([]model.ProductStat, error)
}

// ProductHandler は商品カタログのHTTPハンドラー。
type ProductHandler struct {
	service  ProductServiceInterface
	uploader image.Uploader
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface, uploader image.Uploader) *ProductHandler {
	return &ProductHandler{
		service:  service,
		uploader: uploader,
	}
}

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	NewPrice      *float64  `json:"new_price,omitempty"`
	PercentageOff int       `json:"percentage_off"`
	Orders        int       `json:"orders"`
	Color         []string  `json:"color"`
	Size          []string  `json:"size"`
	Img           string    `json:"img"`
	Categories    []string  `json:"categories"`
	Published     bool      `json:"published"`
	LabelType     string    `json:"label_type"`
	Slug          string    `json:"slug"`
	Views         int       `json:"views"`
	InStock       int       `json:"in_stock"`
	CreatedAt     time.Time `json:"created_at"`
}

// pageRefResponse はページネーションの1ページ分の参照。
type pageRefResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// paginationResponse はページネーションメタデータ。
// 前後のページが存在しない場合、対応するキーは省略される。
type paginationResponse struct {
	Next *pageRefResponse `json:"next,omitempty"`
	Prev *pageRefResponse `json:"prev,omitempty"`
}

// productListResponse は商品一覧のAPIレスポンス。
type productListResponse struct {
	Products   []productResponse  `json:"products"`
	Pagination paginationResponse `json:"pagination"`
}

// likeResponse はいいねトグルの結果。
type likeResponse struct {
	Liked bool `json:"liked"`
}

// productStatResponse は管理者向け商品統計の1商品分。
type productStatResponse struct {
	ProductID string `json:"product_id"`
	Views     int    `json:"views"`
	Likes     int    `json:"likes"`
}

// CreateProduct は商品を作成する。画像はマルチパートの img フィールドで受け取り、
// 画像ホストにアップロードしたURLを保存する。
// POST /api/products/create-product
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	imgURL, err := h.uploadImage(r)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewImageRequiredError())
			return
		}
		handleServiceError(w, err)
		return
	}

	input, apiErr := parseProductForm(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	input.Img = imgURL

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(created))
}

// UpdateProduct は商品を更新する。画像フィールドは省略可能で、
// 省略された場合は既存の画像URLを維持する。
// PUT /api/products/update-product/{productId}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	imgURL, err := h.uploadImage(r)
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		handleServiceError(w, err)
		return
	}

	input, apiErr := parseProductForm(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "productId"), product.UpdateProductInput{
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		NewPrice:    input.NewPrice,
		Color:       input.Color,
		Size:        input.Size,
		Img:         imgURL,
		Categories:  input.Categories,
		Published:   input.Published,
		LabelType:   input.LabelType,
		InStock:     input.InStock,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(updated))
}

// DeleteProduct は商品を削除する。
// DELETE /api/products/{productId}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "productId")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProduct は商品詳細を取得する。
// GET /api/products/product/{productId}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// ListProducts は商品一覧をページネーション付きで返す。
// GET /api/products?page=&limit=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, pagination, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := productListResponse{Products: toProductResponses(products)}
	if pagination.Next != nil {
		body.Pagination.Next = &pageRefResponse{Page: pagination.Next.Page, Limit: pagination.Next.Limit}
	}
	if pagination.Prev != nil {
		body.Pagination.Prev = &pageRefResponse{Page: pagination.Prev.Page, Limit: pagination.Prev.Limit}
	}
	writeJSON(w, http.StatusOK, body)
}

// SearchProducts は部分一致で商品を検索する。
// GET /api/products/search?query=
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// RecordView は商品の閲覧を記録する。
// POST /api/products/view/{productId}
func (h *ProductHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RecordView(r.Context(), chi.URLParam(r, "productId")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleLike は呼び出しユーザーのいいねをトグルする。
// POST /api/products/like/{productId}
func (h *ProductHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}
	productID := chi.URLParam(r, "productId")

	liked, err := h.service.IsLiked(r.Context(), claims.UserID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if liked {
		err = h.service.Unlike(r.Context(), claims.UserID, productID)
	} else {
		err = h.service.Like(r.Context(), claims.UserID, productID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Liked: !liked})
}

// ListLiked は呼び出しユーザーがいいねした商品の一覧を返す。
// GET /api/products/liked
func (h *ProductHandler) ListLiked(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	products, err := h.service.ListLiked(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// ProductStats は全商品の閲覧数といいね数を返す。
// GET /api/products/stats
func (h *ProductHandler) ProductStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := make([]productStatResponse, 0, len(stats))
	for _, s := range stats {
		body = append(body, productStatResponse{ProductID: s.ProductID, Views: s.Views, Likes: s.Likes})
	}
	writeJSON(w, http.StatusOK, body)
}

// uploadImage はマルチパートの img フィールドを画像ホストにアップロードし、
// 公開URLを返す。フィールドが存在しない場合は http.ErrMissingFile を返す。
func (h *ProductHandler) uploadImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("img")
	if err != nil {
		return "", err
	}
	defer file.Close()

	return h.uploader.Upload(r.Context(), header.Filename, file)
}

// parseProductForm はマルチパートフォームの値から商品入力を組み立てる。
func parseProductForm(r *http.Request) (product.CreateProductInput, *model.APIError) {
	var input product.CreateProductInput

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		return input, model.NewValidationError("価格は数値で指定してください。")
	}

	var newPrice *float64
	if v := r.FormValue("new_price"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return input, model.NewValidationError("セール価格は数値で指定してください。")
		}
		newPrice = &parsed
	}

	inStock := 0
	if v := r.FormValue("in_stock"); v != "" {
		inStock, err = strconv.Atoi(v)
		if err != nil {
			return input, model.NewValidationError("在庫数は整数で指定してください。")
		}
	}

	input = product.CreateProductInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       price,
		NewPrice:    newPrice,
		Color:       formValues(r, "color"),
		Size:        formValues(r, "size"),
		Categories:  formValues(r, "categories"),
		Published:   r.FormValue("published") == "true",
		LabelType:   r.FormValue("label_type"),
		InStock:     inStock,
	}
	return input, nil
}

// formValues はマルチパートフォームの同名キーの全値を返す。
func formValues(r *http.Request, key string) []string {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.Value[key]
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price,
		NewPrice:      p.NewPrice,
		PercentageOff: p.PercentageOff,
		Orders:        p.Orders,
		Color:         p.Color,
		Size:          p.Size,
		Img:           p.Img,
		Categories:    p.Categories,
		Published:     p.Published,
		LabelType:     p.LabelType,
		Slug:          p.Slug,
		Views:         p.Views,
		InStock:       p.InStock,
		CreatedAt:     p.CreatedAt,
	}
}

func toProductResponses(products []*model.Product) []productResponse {
	body := make([]productResponse, 0, len(products))
	for _, p := range products {
		body = append(body, toProductResponse(p))
	}
	return body
}
