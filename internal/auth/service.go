// Package auth はサインアップ・サインイン・パスワードリセット・
// Googleログインのアイデンティティ解決を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/token"
)

// OAuthProvider は外部IDプロバイダーとの認可コードフローを抽象化する。
type OAuthProvider interface {
	// GetLoginURL はプロバイダーの認証画面へのURLを生成する。
	GetLoginURL(state string) string

	// ExchangeCode は認可コードをプロフィール情報に交換する。
	ExchangeCode(ctx context.Context, code string) (*model.GoogleProfile, error)
}

// Mailer はメール送信を抽象化する。
type Mailer interface {
	// SendPasswordReset はパスワードリセット用のリンクをメールで送信する。
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// ClientURL はリセットリンクとOAuthリダイレクトの宛先となるフロントエンドのURL。
	ClientURL string
}

// Service は認証のユースケースを実装する。
type Service struct {
	users    repository.UserRepository
	tokens   *token.Service
	hasher   *PasswordHasher
	provider OAuthProvider
	mailer   Mailer
	config   ServiceConfig
}

// NewService は認証サービスを生成する。
func NewService(users repository.UserRepository, tokens *token.Service, hasher *PasswordHasher, provider OAuthProvider, mailer Mailer, config ServiceConfig) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		provider: provider,
		mailer:   mailer,
		config:   config,
	}
}

// Signup はメールアドレスとパスワードで新規ユーザーを登録し、セッショントークンを発行する。
// 同時サインアップの競合はストアの一意制約に委ね、敗者にはメール重複エラーを返す。
func (s *Service) Signup(ctx context.Context, email, password string) (*model.UserSummary, string, error) {
	if problems := ValidateCredentials(email, password); problems != nil {
		rules := make([]string, 0, len(problems))
		for _, msg := range problems {
			rules = append(rules, msg)
		}
		return nil, "", model.NewValidationError(rules...)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, "", model.NewEmailConflictError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: &hash,
		Phone:        []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", model.NewEmailConflictError()
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	sessionToken, err := s.tokens.IssueSession(user.ID, user.IsAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	summary := user.Summary()
	return &summary, sessionToken, nil
}

// Signin はメールアドレスとパスワードを検証し、セッショントークンを発行する。
// ユーザー不在・パスワード未設定（Googleログイン専用）・パスワード不一致は
// いずれも同じ認証エラーとして返し、原因を区別させない。
func (s *Service) Signin(ctx context.Context, email, password string) (*model.UserSummary, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil || user.PasswordHash == nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	if !s.hasher.Compare(*user.PasswordHash, password) {
		return nil, "", model.NewInvalidCredentialsError()
	}

	sessionToken, err := s.tokens.IssueSession(user.ID, user.IsAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	summary := user.Summary()
	return &summary, sessionToken, nil
}

// ForgotPassword はパスワードリセット用のリンクをメールで送信する。
// リセットトークンは現在のパスワードハッシュで署名されるため、
// パスワード変更後は自動的に失効する。
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	currentHash := ""
	if user.PasswordHash != nil {
		currentHash = *user.PasswordHash
	}

	resetToken, err := s.tokens.IssueReset(user.ID, user.Email, currentHash)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s/%s", s.config.ClientURL, user.ID, resetToken)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		return model.NewEmailDeliveryFailedError()
	}
	return nil
}

// ResetPassword はリセットトークンを検証し、パスワードを更新する。
// トークンはストアから取得し直した現在のハッシュで検証するため、
// 一度使用された（＝パスワードが変わった）トークンはここで失効する。
func (s *Service) ResetPassword(ctx context.Context, userID, resetToken, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user by id: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	currentHash := ""
	if user.PasswordHash != nil {
		currentHash = *user.PasswordHash
	}

	claims, err := s.tokens.VerifyReset(resetToken, currentHash)
	if err != nil {
		return model.NewInvalidResetTokenError()
	}
	// URLのユーザーIDとトークン内のユーザーIDの一致を要求する
	if claims.UserID != user.ID {
		return model.NewInvalidResetTokenError()
	}

	if !ValidPassword(newPassword) {
		return model.NewValidationError("パスワードは8文字以上で、数字・大文字・記号をそれぞれ含む必要があります")
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}

// UpdatePassword は現在のパスワードを確認した上でパスワードを変更する。
// Googleログインのみのユーザー（ハッシュ未設定）は現在のパスワードを
// 持たないため、資格情報エラーとして扱う。
func (s *Service) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user by id: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}
	if user.PasswordHash == nil || !s.hasher.Compare(*user.PasswordHash, currentPassword) {
		return model.NewInvalidCredentialsError()
	}

	if !ValidPassword(newPassword) {
		return model.NewValidationError("パスワードは8文字以上で、数字・大文字・記号をそれぞれ含む必要があります")
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}

// GetLoginURL はGoogleログイン画面へのURLを返す。
func (s *Service) GetLoginURL(state string) string {
	return s.provider.GetLoginURL(state)
}

// HandleGoogleCallback は認可コードを交換し、アイデンティティ解決を行って
// セッショントークンを発行する。
//
// 解決の優先順位:
//  1. プロバイダーIDで既存ユーザーを検索（再ログイン）
//  2. メールアドレスで既存ユーザーを検索。ヒットした場合はローカル登録済みの
//     アカウントとの衝突なので、暗黙のマージは行わずエラーを返す
//  3. どちらにも該当しなければ新規ユーザーを作成
func (s *Service) HandleGoogleCallback(ctx context.Context, code string) (string, error) {
	profile, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	user, err := s.users.FindByGoogleID(ctx, profile.ProviderID)
	if err != nil {
		return "", fmt.Errorf("failed to find user by google id: %w", err)
	}

	if user == nil {
		existing, err := s.users.FindByEmail(ctx, profile.Email)
		if err != nil {
			return "", fmt.Errorf("failed to find user by email: %w", err)
		}
		if existing != nil {
			// 同じメールのローカルアカウントが存在する。本人確認なしの
			// アカウント統合は行わない。
			return "", model.NewIdentityConflictError()
		}

		googleID := profile.ProviderID
		now := time.Now()
		user = &model.User{
			ID:        uuid.NewString(),
			Email:     profile.Email,
			GoogleID:  &googleID,
			Name:      profile.Name,
			Phone:     []string{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return "", model.NewIdentityConflictError()
			}
			return "", fmt.Errorf("failed to create user: %w", err)
		}
	}

	sessionToken, err := s.tokens.IssueSession(user.ID, user.IsAdmin)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return sessionToken, nil
}
