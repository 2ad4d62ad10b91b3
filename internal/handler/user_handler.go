package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Get はユーザーを取得する。
	Get(ctx context.Context, id string) (*model.User, error)
	// UpdateDetails はプロフィール情報を更新する。
	UpdateDetails(ctx context.Context, id string, input user.UpdateDetailsInput) (*model.User, error)
	// Delete はユーザーを削除する。
	Delete(ctx context.Context, id string) error
	// List は全ユーザーを返す。
	List(ctx context.Context) ([]*model.User, error)
	// Search は氏名・メールアドレスの部分一致でユーザーを検索する。
	Search(ctx context.Context, query string) ([]*model.User, error)
	// Stats は管理者フラグごとのアカウント数を返す。
	Stats(ctx context.Context) ([]model.UserStat, error)
}

// PasswordUpdater はサインイン済みユーザーのパスワード変更のためのインターフェース。
// 認証サービスが実装する。
type PasswordUpdater interface {
	// UpdatePassword は現在のパスワードを確認した上でパスワードを変更する。
	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service  UserServiceInterface
	accounts PasswordUpdater
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, accounts PasswordUpdater) *UserHandler {
	return &UserHandler{
		service:  service,
		accounts: accounts,
	}
}

// updateUserRequest はプロフィール更新リクエストのボディ。
type updateUserRequest struct {
	Name    string         `json:"name"`
	Address addressPayload `json:"address"`
	AddInfo string         `json:"add_info"`
	Phone   []string       `json:"phone"`
}

// updatePasswordRequest はパスワード変更リクエストのボディ。
type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// addressPayload は配送先住所のリクエスト/レスポンス表現。
type addressPayload struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	Name           string         `json:"name"`
	Address        addressPayload `json:"address"`
	AddInfo        string         `json:"add_info"`
	Phone          []string       `json:"phone"`
	IsAdmin        bool           `json:"is_admin"`
	ProfileCreated bool           `json:"profile_created"`
	CreatedAt      time.Time      `json:"created_at"`
}

// userStatResponse は管理者向けユーザー統計の1グループ分。
type userStatResponse struct {
	IsAdmin bool `json:"is_admin"`
	Total   int  `json:"total"`
}

// GetUser はユーザー詳細を取得する。
// GET /api/users/user/{userId}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// UpdateUser はプロフィール情報を更新する。
// PUT /api/users/{userId}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateDetails(r.Context(), chi.URLParam(r, "userId"), user.UpdateDetailsInput{
		Name: req.Name,
		Address: model.Address{
			Street: req.Address.Street,
			City:   req.Address.City,
			State:  req.Address.State,
		},
		AddInfo: req.AddInfo,
		Phone:   req.Phone,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// UpdatePassword はサインイン済みユーザーのパスワードを変更する。
// PUT /api/users/update-password/{userId}
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.accounts.UpdatePassword(r.Context(), chi.URLParam(r, "userId"), req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "パスワードを更新しました。"})
}

// DeleteUser はユーザーを削除する。
// DELETE /api/users/{userId}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "userId")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers は全ユーザーの一覧を返す。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponses(users))
}

// SearchUsers は氏名・メールアドレスの部分一致でユーザーを検索する。
// GET /api/users/search?query=
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponses(users))
}

// UserStats は管理者フラグごとのアカウント数を返す。
// GET /api/users/user-stats
func (h *UserHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := make([]userStatResponse, 0, len(stats))
	for _, s := range stats {
		body = append(body, userStatResponse{IsAdmin: s.IsAdmin, Total: s.Total})
	}
	writeJSON(w, http.StatusOK, body)
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Address: addressPayload{
			Street: u.Address.Street,
			City:   u.Address.City,
			State:  u.Address.State,
		},
		AddInfo:        u.AddInfo,
		Phone:          u.Phone,
		IsAdmin:        u.IsAdmin,
		ProfileCreated: u.ProfileCreated,
		CreatedAt:      u.CreatedAt,
	}
}

func toUserResponses(users []*model.User) []userResponse {
	body := make([]userResponse, 0, len(users))
	for _, u := range users {
		body = append(body, toUserResponse(u))
	}
	return body
}
