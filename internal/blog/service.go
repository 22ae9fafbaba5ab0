// Package blog はブログ記事のドメインロジックを提供する。
package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
	"github.com/hitoshi/assuredlife/internal/security"
)

// LatestLimit はトップページに掲載する最新記事数。
const LatestLimit = 4

// Service はブログ記事のサービス層。
// 著者スコープの変更権限チェックと本文サニタイズを担う。
type Service struct {
	blogRepo  repository.BlogRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(blogRepo repository.BlogRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{blogRepo: blogRepo, sanitizer: sanitizer}
}

// ListInput は記事一覧リクエスト。
type ListInput struct {
	Search string
	Page   int
	Limit  int
}

// List はタイトル検索・ページネーション付きで記事一覧と総件数を返す。
func (s *Service) List(ctx context.Context, input ListInput) ([]*model.Blog, int, error) {
	blogs, total, err := s.blogRepo.List(ctx, input.Search, input.Page, input.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	return blogs, total, nil
}

// ListLatest はトップページ掲載用の最新記事を返す。
func (s *Service) ListLatest(ctx context.Context) ([]*model.Blog, error) {
	blogs, err := s.blogRepo.ListLatest(ctx, LatestLimit)
	if err != nil {
		return nil, fmt.Errorf("最新記事の取得に失敗しました: %w", err)
	}
	return blogs, nil
}

// ListMine は呼び出しユーザーが執筆した記事を返す。
func (s *Service) ListMine(ctx context.Context, authorID string) ([]*model.Blog, error) {
	blogs, err := s.blogRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("執筆記事の取得に失敗しました: %w", err)
	}
	return blogs, nil
}

// Get は指定IDの記事を取得し、閲覧数を1増やして返す。
func (s *Service) Get(ctx context.Context, blogID string) (*model.Blog, error) {
	blog, err := s.blogRepo.FindByIDIncrementVisit(ctx, blogID)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if blog == nil {
		return nil, model.NewBlogNotFoundError(blogID)
	}
	return blog, nil
}

// CreateInput は記事作成・更新リクエスト。
type CreateInput struct {
	Title     string
	Content   string
	BlogImage string
}

// Create は記事を作成する。本文は保存前にサニタイズされる。
func (s *Service) Create(ctx context.Context, authorID string, input CreateInput) (*model.Blog, error) {
	now := time.Now()
	blog := &model.Blog{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Content:     s.sanitizer.Sanitize(input.Content),
		BlogImage:   input.BlogImage,
		AuthorID:    authorID,
		PublishDate: now,
		UpdatedAt:   now,
	}
	if err := s.blogRepo.Create(ctx, blog); err != nil {
		return nil, fmt.Errorf("記事の作成に失敗しました: %w", err)
	}

	slog.Info("blog created",
		slog.String("blog_id", blog.ID),
		slog.String("author_id", authorID),
	)
	return blog, nil
}

// Update は記事を更新する。
// 変更できるのは記事の著者本人と管理者のみ。本文は保存前にサニタイズされる。
func (s *Service) Update(ctx context.Context, requesterID string, requesterRole model.Role, blogID string, input CreateInput) (*model.Blog, error) {
	existing, err := s.blogRepo.FindByID(ctx, blogID)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewBlogNotFoundError(blogID)
	}
	if existing.AuthorID != requesterID && requesterRole != model.RoleAdmin {
		return nil, model.NewNotBlogAuthorError()
	}

	existing.Title = input.Title
	existing.Content = s.sanitizer.Sanitize(input.Content)
	existing.BlogImage = input.BlogImage

	err = s.blogRepo.Update(ctx, existing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewBlogNotFoundError(blogID)
	}
	if err != nil {
		return nil, fmt.Errorf("記事の更新に失敗しました: %w", err)
	}
	return existing, nil
}

// Delete は記事を削除する。削除できるのは記事の著者本人と管理者のみ。
func (s *Service) Delete(ctx context.Context, requesterID string, requesterRole model.Role, blogID string) error {
	existing, err := s.blogRepo.FindByID(ctx, blogID)
	if err != nil {
		return fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewBlogNotFoundError(blogID)
	}
	if existing.AuthorID != requesterID && requesterRole != model.RoleAdmin {
		return model.NewNotBlogAuthorError()
	}

	err = s.blogRepo.DeleteByID(ctx, blogID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewBlogNotFoundError(blogID)
	}
	if err != nil {
		return fmt.Errorf("記事の削除に失敗しました: %w", err)
	}

	slog.Info("blog deleted",
		slog.String("blog_id", blogID),
		slog.String("requester_id", requesterID),
	)
	return nil
}
