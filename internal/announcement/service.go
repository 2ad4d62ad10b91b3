// Package announcement はストアフロントに表示するお知らせのドメインロジックを提供する。
package announcement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
)

// AnnouncementInput はお知らせ作成の入力。
type AnnouncementInput struct {
	Title    string
	Subtitle string
	Text     string
	Img      string
}

// AnnouncementService はお知らせのサービス層。
type AnnouncementService struct {
	announcements repository.AnnouncementRepository
	sanitizer     security.InputSanitizerService
}

// NewAnnouncementService はAnnouncementServiceの新しいインスタンスを生成する。
func NewAnnouncementService(announcements repository.AnnouncementRepository, sanitizer security.InputSanitizerService) *AnnouncementService {
	return &AnnouncementService{
		announcements: announcements,
		sanitizer:     sanitizer,
	}
}

// Create はお知らせを作成する。
func (s *AnnouncementService) Create(ctx context.Context, input AnnouncementInput) (*model.Announcement, error) {
	title := s.sanitizer.Sanitize(input.Title)
	if title == "" {
		return nil, model.NewValidationError("お知らせのタイトルを入力してください。")
	}

	now := time.Now()
	announcement := &model.Announcement{
		ID:        uuid.NewString(),
		Title:     title,
		Subtitle:  s.sanitizer.Sanitize(input.Subtitle),
		Text:      s.sanitizer.Sanitize(input.Text),
		Img:       input.Img,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.announcements.Create(ctx, announcement); err != nil {
		return nil, fmt.Errorf("お知らせの保存に失敗しました: %w", err)
	}

	return announcement, nil
}

// Get はお知らせを取得する。
func (s *AnnouncementService) Get(ctx context.Context, id string) (*model.Announcement, error) {
	announcement, err := s.announcements.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("お知らせの取得に失敗しました: %w", err)
	}
	if announcement == nil {
		return nil, model.NewAnnouncementNotFoundError(id)
	}
	return announcement, nil
}

// List は作成日時降順で全お知らせを返す。
func (s *AnnouncementService) List(ctx context.Context) ([]*model.Announcement, error) {
	return s.announcements.List(ctx)
}

// Delete はお知らせを削除する。
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	deleted, err := s.announcements.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("お知らせの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewAnnouncementNotFoundError(id)
	}
	return nil
}
