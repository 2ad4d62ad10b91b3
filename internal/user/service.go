// Package user はユーザーアカウント管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
)

// UpdateDetailsInput はプロフィール更新の入力。
type UpdateDetailsInput struct {
	Name    string
	Address model.Address
	AddInfo string
	Phone   []string
}

// UserService はユーザーアカウント管理のサービス層。
type UserService struct {
	users     repository.UserRepository
	sanitizer security.InputSanitizerService
}

// NewUserService はUserServiceの新しいインスタンスを生成する。
func NewUserService(users repository.UserRepository, sanitizer security.InputSanitizerService) *UserService {
	return &UserService{
		users:     users,
		sanitizer: sanitizer,
	}
}

// Get はユーザーを取得する。
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateDetails はプロフィール情報（氏名・住所・補足・電話番号）を更新し、
// プロフィール登録済みフラグを立てる。
func (s *UserService) UpdateDetails(ctx context.Context, id string, input UpdateDetailsInput) (*model.User, error) {
	name := s.sanitizer.Sanitize(input.Name)
	if name == "" {
		return nil, model.NewValidationError("氏名を入力してください。")
	}

	address := model.Address{
		Street: s.sanitizer.Sanitize(input.Address.Street),
		City:   s.sanitizer.Sanitize(input.Address.City),
		State:  s.sanitizer.Sanitize(input.Address.State),
	}

	updated, err := s.users.UpdateDetails(ctx, id, name, address, s.sanitizer.Sanitize(input.AddInfo), s.sanitizer.SanitizeAll(input.Phone))
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}
	return updated, nil
}

// Delete はユーザーを削除する。
func (s *UserService) Delete(ctx context.Context, id string) error {
	deleted, err := s.users.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewUserNotFoundError()
	}
	return nil
}

// List は全ユーザーを返す。管理者向け。
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.users.List(ctx)
}

// Search は氏名またはメールアドレスの部分一致でユーザーを検索する。管理者向け。
func (s *UserService) Search(ctx context.Context, query string) ([]*model.User, error) {
	return s.users.Search(ctx, query)
}

// Stats はis_adminフラグごとのアカウント数を返す。管理者向け。
func (s *UserService) Stats(ctx context.Context) ([]model.UserStat, error) {
	return s.users.Stats(ctx)
}
