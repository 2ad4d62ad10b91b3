// Package token はセッショントークンとパスワードリセットトークンの発行・検証を提供する。
//
// セッショントークンはステートレスなBearerクレデンシャルで、サーバー側に保存されない。
// 有効期限内で署名が正しいトークンの所持が認証の証明となる（サーバー側の失効リストは持たない）。
//
// リセットトークンはグローバルシークレットと「現在の」パスワードハッシュを連結した鍵で署名する。
// パスワードが変更されると古いトークンの署名鍵が消滅するため、
// 失効テーブルなしでワンタイムの意味論が得られる。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken はセッショントークンの署名不正・形式不正・期限切れを表す。
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidResetToken はリセットトークンの検証失敗を表す。
	// 期限切れとパスワード変更済みによる失効を区別しない。
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// SessionClaims はセッショントークンのペイロードを表す。
type SessionClaims struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// ResetClaims はパスワードリセットトークンのペイロードを表す。
type ResetClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ServiceConfig はトークンサービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration // セッショントークンの有効期間（デフォルト72時間）
	ResetTTL   time.Duration // リセットトークンの有効期間（デフォルト15分）
}

// Service はHMAC署名によるJWTトークンの発行・検証を提供する。
// すべてのメソッドは純粋でI/Oを行わない。
type Service struct {
	secret []byte
	config ServiceConfig
}

// NewService はServiceを生成する。
// TTLが未設定の場合はセッション72時間、リセット15分を使用する。
func NewService(secret string, config ServiceConfig) *Service {
	if config.SessionTTL == 0 {
		config.SessionTTL = 72 * time.Hour
	}
	if config.ResetTTL == 0 {
		config.ResetTTL = 15 * time.Minute
	}
	return &Service{
		secret: []byte(secret),
		config: config,
	}
}

// IssueSession はユーザーIDと管理者フラグを符号化したセッショントークンを発行する。
func (s *Service) IssueSession(userID string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.SessionTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// VerifySession はセッショントークンを検証し、ペイロードを返す。
// 署名不正・形式不正・期限切れの場合はErrInvalidTokenを返す。
func (s *Service) VerifySession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueReset はパスワードリセットトークンを発行する。
// 署名鍵はグローバルシークレットと発行時点のパスワードハッシュの連結。
func (s *Service) IssueReset(userID, email, currentPasswordHash string) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.ResetTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.resetKey(currentPasswordHash))
}

// VerifyReset はリセットトークンを検証し、ペイロードを返す。
// currentPasswordHashには検証時点でストアから取得し直した現在のハッシュを渡すこと。
// 発行時のハッシュをキャッシュして渡すとワンタイム保証が破れる。
func (s *Service) VerifyReset(tokenString, currentPasswordHash string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidResetToken
		}
		return s.resetKey(currentPasswordHash), nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalidResetToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidResetToken
	}
	return claims, nil
}

// resetKey はリセットトークンの署名鍵を導出する。
func (s *Service) resetKey(passwordHash string) []byte {
	key := make([]byte, 0, len(s.secret)+len(passwordHash))
	key = append(key, s.secret...)
	key = append(key, passwordHash...)
	return key
}
