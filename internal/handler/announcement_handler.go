package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/announcement"
	"github.com/hitoshi/storefront/internal/image"
	"github.com/hitoshi/storefront/internal/model"
)

// AnnouncementServiceInterface はお知らせハンドラーが必要とするサービスインターフェース。
type AnnouncementServiceInterface interface {
	// Create はお知らせを作成する。
	Create(ctx context.Context, input announcement.AnnouncementInput) (*model.Announcement, error)
	// Get はお知らせを取得する。
	Get(ctx context.Context, id string) (*model.Announcement, error)
	// List は全お知らせを新しい順に返す。
	List(ctx context.Context) ([]*model.Announcement, error)
	// Delete はお知らせを削除する。
	Delete(ctx context.Context, id string) error
}

// AnnouncementHandler はお知らせのHTTPハンドラー。
type AnnouncementHandler struct {
	service  AnnouncementServiceInterface
	uploader image.Uploader
}

// NewAnnouncementHandler はAnnouncementHandlerを生成する。
func NewAnnouncementHandler(service AnnouncementServiceInterface, uploader image.Uploader) *AnnouncementHandler {
	return &AnnouncementHandler{
		service:  service,
		uploader: uploader,
	}
}

// announcementResponse はお知らせ情報のAPIレスポンス。
type announcementResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Text      string    `json:"text"`
	Img       string    `json:"img"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAnnouncement はお知らせを作成する。画像はマルチパートの img フィールドで
// 受け取り、必須。
// POST /api/announcements/create-announcement
func (h *AnnouncementHandler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	file, header, err := r.FormFile("img")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewImageRequiredError())
			return
		}
		writeInvalidRequestBody(w)
		return
	}
	defer file.Close()

	imgURL, err := h.uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), announcement.AnnouncementInput{
		Title:    r.FormValue("title"),
		Subtitle: r.FormValue("subtitle"),
		Text:     r.FormValue("text"),
		Img:      imgURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAnnouncementResponse(created))
}

// GetAnnouncement はお知らせ詳細を取得する。
// GET /api/announcements/{announcementId}
func (h *AnnouncementHandler) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "announcementId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnnouncementResponse(a))
}

// ListAnnouncements は全お知らせを新しい順に返す。
// GET /api/announcements
func (h *AnnouncementHandler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := make([]announcementResponse, 0, len(announcements))
	for _, a := range announcements {
		body = append(body, toAnnouncementResponse(a))
	}
	writeJSON(w, http.StatusOK, body)
}

// DeleteAnnouncement はお知らせを削除する。
// DELETE /api/announcements/{announcementId}
func (h *AnnouncementHandler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "announcementId")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toAnnouncementResponse(a *model.Announcement) announcementResponse {
	return announcementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Subtitle:  a.Subtitle,
		Text:      a.Text,
		Img:       a.Img,
		CreatedAt: a.CreatedAt,
	}
}
