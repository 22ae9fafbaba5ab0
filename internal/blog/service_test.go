package blog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/assuredlife/internal/model"
)

// mockBlogRepo はrepository.BlogRepositoryのモック。
type mockBlogRepo struct {
	findByIDFunc       func(ctx context.Context, id string) (*model.Blog, error)
	findIncrVisitFunc  func(ctx context.Context, id string) (*model.Blog, error)
	listFunc           func(ctx context.Context, search string, page, limit int) ([]*model.Blog, int, error)
	listLatestFunc     func(ctx context.Context, limit int) ([]*model.Blog, error)
	listByAuthorFunc   func(ctx context.Context, authorID string) ([]*model.Blog, error)
	createFunc         func(ctx context.Context, blog *model.Blog) error
	updateFunc         func(ctx context.Context, blog *model.Blog) error
	deleteByIDFunc     func(ctx context.Context, id string) error
}

func (m *mockBlogRepo) FindByID(ctx context.Context, id string) (*model.Blog, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockBlogRepo) FindByIDIncrementVisit(ctx context.Context, id string) (*model.Blog, error) {
	return m.findIncrVisitFunc(ctx, id)
}

func (m *mockBlogRepo) List(ctx context.Context, search string, page, limit int) ([]*model.Blog, int, error) {
	return m.listFunc(ctx, search, page, limit)
}

func (m *mockBlogRepo) ListLatest(ctx context.Context, limit int) ([]*model.Blog, error) {
	return m.listLatestFunc(ctx, limit)
}

func (m *mockBlogRepo) ListByAuthor(ctx context.Context, authorID string) ([]*model.Blog, error) {
	return m.listByAuthorFunc(ctx, authorID)
}

func (m *mockBlogRepo) Create(ctx context.Context, blog *model.Blog) error {
	return m.createFunc(ctx, blog)
}

func (m *mockBlogRepo) Update(ctx context.Context, blog *model.Blog) error {
	return m.updateFunc(ctx, blog)
}

func (m *mockBlogRepo) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFunc(ctx, id)
}

// passthroughSanitizer は検証用の素通しサニタイザ。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(rawHTML string) string { return rawHTML }

// markerSanitizer は呼び出しを検知するサニタイザ。
type markerSanitizer struct{}

func (markerSanitizer) Sanitize(rawHTML string) string {
	return strings.ReplaceAll(rawHTML, "<script>", "")
}

// 記事作成時に本文がサニタイズされることを検証
func TestService_Create_SanitizesContent(t *testing.T) {
	var created *model.Blog
	repo := &mockBlogRepo{
		createFunc: func(ctx context.Context, blog *model.Blog) error {
			created = blog
			return nil
		},
	}
	svc := NewService(repo, markerSanitizer{})

	blog, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:   "保険の選び方",
		Content: "<script><p>本文</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if strings.Contains(blog.Content, "<script>") {
		t.Errorf("content should be sanitized: %q", blog.Content)
	}
	if blog.AuthorID != "author-1" {
		t.Errorf("authorID = %q", blog.AuthorID)
	}
}

// 著者本人による記事更新が成功することを検証
func TestService_Update_AuthorCanUpdate(t *testing.T) {
	repo := &mockBlogRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Blog, error) {
			return &model.Blog{ID: id, AuthorID: "author-1", Title: "旧タイトル"}, nil
		},
		updateFunc: func(ctx context.Context, blog *model.Blog) error {
			if blog.Title != "新タイトル" {
				t.Errorf("title = %q, want 新タイトル", blog.Title)
			}
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	_, err := svc.Update(context.Background(), "author-1", model.RoleAgent, "blog-1", CreateInput{Title: "新タイトル"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// 著者以外のエージェントによる記事更新が拒否されることを検証
func TestService_Update_NonAuthorAgentForbidden(t *testing.T) {
	repo := &mockBlogRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Blog, error) {
			return &model.Blog{ID: id, AuthorID: "author-1"}, nil
		},
		updateFunc: func(ctx context.Context, blog *model.Blog) error {
			t.Error("Update should not be called by non-author")
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	_, err := svc.Update(context.Background(), "other-agent", model.RoleAgent, "blog-1", CreateInput{})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotBlogAuthor {
		t.Fatalf("err = %v, want NOT_BLOG_AUTHOR", err)
	}
}

// 管理者は他人の記事を削除できることを検証
func TestService_Delete_AdminCanDeleteAny(t *testing.T) {
	deleted := false
	repo := &mockBlogRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Blog, error) {
			return &model.Blog{ID: id, AuthorID: "author-1"}, nil
		},
		deleteByIDFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	if err := svc.Delete(context.Background(), "admin-1", model.RoleAdmin, "blog-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected DeleteByID to be called")
	}
}

// 存在しない記事の取得が404相当で拒否されることを検証
func TestService_Get_NotFound(t *testing.T) {
	repo := &mockBlogRepo{
		findIncrVisitFunc: func(ctx context.Context, id string) (*model.Blog, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	_, err := svc.Get(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBlogNotFound {
		t.Fatalf("err = %v, want BLOG_NOT_FOUND", err)
	}
}

// 記事詳細の取得が閲覧数インクリメント付きの検索を使うことを検証
func TestService_Get_IncrementsVisit(t *testing.T) {
	repo := &mockBlogRepo{
		findIncrVisitFunc: func(ctx context.Context, id string) (*model.Blog, error) {
			return &model.Blog{ID: id, TotalVisit: 10}, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	blog, err := svc.Get(context.Background(), "blog-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blog.TotalVisit != 10 {
		t.Errorf("totalVisit = %d", blog.TotalVisit)
	}
}

// 最新記事一覧が掲載上限で問い合わせることを検証
func TestService_ListLatest_UsesLimit(t *testing.T) {
	repo := &mockBlogRepo{
		listLatestFunc: func(ctx context.Context, limit int) ([]*model.Blog, error) {
			if limit != LatestLimit {
				t.Errorf("limit = %d, want %d", limit, LatestLimit)
			}
			return nil, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	if _, err := svc.ListLatest(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
