package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Signup はメールアドレスとパスワードで新規ユーザーを登録し、セッショントークンを発行する。
	Signup(ctx context.Context, email, password string) (*model.UserSummary, string, error)
	// Signin は資格情報を検証し、セッショントークンを発行する。
	Signin(ctx context.Context, email, password string) (*model.UserSummary, string, error)
	// ForgotPassword はパスワードリセットリンクをメールで送信する。
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword はリセットトークンを検証し、パスワードを更新する。
	ResetPassword(ctx context.Context, userID, resetToken, newPassword string) error
	// GetLoginURL はGoogleログイン画面へのURLを返す。
	GetLoginURL(state string) string
	// HandleGoogleCallback は認可コードを交換し、セッショントークンを発行する。
	HandleGoogleCallback(ctx context.Context, code string) (string, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	// ClientURL はOAuthコールバック後のリダイレクト先となるフロントエンドのURL。
	ClientURL string
	// SecureCookie はstate Cookieに Secure 属性を付けるかどうか。
	SecureCookie bool
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	config    AuthHandlerConfig
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		config:    config,
		collector: collector,
	}
}

// signupRequest はサインアップリクエストのボディ。
type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signinRequest はサインインリクエストのボディ。
type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// forgotPasswordRequest はパスワードリセット要求のボディ。
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// resetPasswordRequest はパスワードリセット実行のボディ。
type resetPasswordRequest struct {
	Password string `json:"password"`
}

// userSummaryResponse は認証レスポンスに含める最小限のユーザー情報。
type userSummaryResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// authResponse はサインアップ・サインイン成功時のレスポンス。
type authResponse struct {
	User  userSummaryResponse `json:"user"`
	Token string              `json:"token"`
}

// messageResponse は処理結果のメッセージのみを返すレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// Signup はローカル登録を処理する。
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	summary, sessionToken, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordSignup()
	writeJSON(w, http.StatusCreated, authResponse{
		User:  userSummaryResponse{ID: summary.ID, Email: summary.Email},
		Token: sessionToken,
	})
}

// Signin はローカルサインインを処理する。
// POST /api/auth/signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	summary, sessionToken, err := h.service.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.collector.RecordAuthFailure("signin")
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		User:  userSummaryResponse{ID: summary.ID, Email: summary.Email},
		Token: sessionToken,
	})
}

// ForgotPassword はパスワードリセットリンクの送信を処理する。
// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "パスワードリセット用のリンクを送信しました。"})
}

// ResetPassword はリセットトークンによるパスワード変更を処理する。
// POST /api/auth/reset-password/{userId}/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	resetToken := chi.URLParam(r, "token")

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.ResetPassword(r.Context(), userID, resetToken, req.Password); err != nil {
		h.collector.RecordAuthFailure("password_reset")
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "パスワードを更新しました。"})
}

// GoogleLogin はGoogle OAuthフローを開始する。
// GET /api/auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		handleServiceError(w, fmt.Errorf("failed to generate state: %w", err))
		return
	}

	// CSRF対策: state値をCookieに保持し、コールバックで照合する
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback はGoogle OAuthのコールバックを処理する。
// GET /api/auth/google/callback
//
// 成功時はフロントエンドのログイン画面にトークン付きでリダイレクトする。
// 同一メールアドレスのローカル登録ユーザーが存在する場合（アイデンティティ競合）は
// success=false&eae=true を付けてリダイレクトする。
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.collector.RecordAuthFailure("oauth_state")
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_STATE",
			Message:  "OAuthのstate検証に失敗しました。",
			Category: "auth",
			Action:   "ログインを最初からやり直してください。",
		})
		return
	}

	// state Cookieは使い捨て
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectToLogin(w, r, "success=false")
		return
	}

	sessionToken, err := h.service.HandleGoogleCallback(r.Context(), code)
	if err != nil {
		h.collector.RecordAuthFailure("oauth_callback")
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeIdentityConflict {
			h.redirectToLogin(w, r, "success=false&eae=true")
			return
		}
		h.redirectToLogin(w, r, "success=false")
		return
	}

	h.redirectToLogin(w, r, "token="+url.QueryEscape(sessionToken))
}

// redirectToLogin はフロントエンドのログイン画面にリダイレクトする。
func (h *AuthHandler) redirectToLogin(w http.ResponseWriter, r *http.Request, query string) {
	http.Redirect(w, r, fmt.Sprintf("%s/login?%s", h.config.ClientURL, query), http.StatusTemporaryRedirect)
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
