package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/assuredlife/internal/blog"
	"github.com/hitoshi/assuredlife/internal/middleware"
	"github.com/hitoshi/assuredlife/internal/model"
)

// defaultBlogPageLimit はブログ一覧の1ページあたりのデフォルト件数。
const defaultBlogPageLimit = 9

// BlogServiceInterface はブログハンドラーが必要とするサービスインターフェース。
type BlogServiceInterface interface {
	// List はタイトル検索・ページネーション付きで記事一覧と総件数を返す。
	List(ctx context.Context, input blog.ListInput) ([]*model.Blog, int, error)
	// ListLatest はトップページ掲載用の最新記事を返す。
	ListLatest(ctx context.Context) ([]*model.Blog, error)
	// ListMine は呼び出しユーザーが執筆した記事を返す。
	ListMine(ctx context.Context, authorID string) ([]*model.Blog, error)
	// Get は記事を取得し、閲覧数を1増やして返す。
	Get(ctx context.Context, blogID string) (*model.Blog, error)
	// Create は記事を作成する。本文はサニタイズされる。
	Create(ctx context.Context, authorID string, input blog.CreateInput) (*model.Blog, error)
	// Update は記事を更新する。著者本人と管理者のみ。
	Update(ctx context.Context, requesterID string, requesterRole model.Role, blogID string, input blog.CreateInput) (*model.Blog, error)
	// Delete は記事を削除する。著者本人と管理者のみ。
	Delete(ctx context.Context, requesterID string, requesterRole model.Role, blogID string) error
}

// BlogHandler はブログ記事のHTTPハンドラー。
type BlogHandler struct {
	service BlogServiceInterface
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(service BlogServiceInterface) *BlogHandler {
	return &BlogHandler{service: service}
}

// blogRequest は記事の作成・更新リクエストのボディ。
type blogRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	BlogImage string `json:"blog_image"`
}

// blogResponse は記事のAPIレスポンス。
type blogResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	BlogImage   string    `json:"blog_image"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name,omitempty"`
	PublishDate time.Time `json:"publish_date"`
	TotalVisit  int       `json:"total_visit"`
}

// blogListResponse はページネーション付きの記事一覧レスポンス。
type blogListResponse struct {
	Blogs       []blogResponse `json:"blogs"`
	TotalBlogs  int            `json:"totalBlogs"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
}

// ListBlogs はタイトル検索・ページネーション付きの記事一覧を返す。
// GET /api/v1/blogs
func (h *BlogHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit < 1 {
		limit = defaultBlogPageLimit
	}

	blogs, total, err := h.service.List(r.Context(), blog.ListInput{
		Search: query.Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, blogListResponse{
		Blogs:       toBlogResponses(blogs),
		TotalBlogs:  total,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
	})
}

// ListLatestBlogs はトップページ掲載用の最新記事を返す。
// GET /api/v1/blogs/latest
func (h *BlogHandler) ListLatestBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.service.ListLatest(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogResponses(blogs))
}

// ListMyBlogs は呼び出しユーザーが執筆した記事一覧を返す。
// GET /api/v1/blogs/mine
func (h *BlogHandler) ListMyBlogs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	blogs, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogResponses(blogs))
}

// GetBlog は記事の詳細を返す。取得のたびに閲覧数が1増える。
// GET /api/v1/blogs/:id
func (h *BlogHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	blogID := chi.URLParam(r, "id")

	b, err := h.service.Get(r.Context(), blogID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBlogResponse(b))
}

// CreateBlog は記事の作成を処理する。
// POST /api/v1/blogs
func (h *BlogHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req blogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.Title == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "タイトルが空です。",
			Category: "validation",
			Action:   "タイトルを指定してください。",
		})
		return
	}

	b, err := h.service.Create(r.Context(), userID, blog.CreateInput{
		Title:     req.Title,
		Content:   req.Content,
		BlogImage: req.BlogImage,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBlogResponse(b))
}

// UpdateBlog は記事の更新を処理する。著者本人と管理者のみ。
// PUT /api/v1/blogs/:id
func (h *BlogHandler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	blogID := chi.URLParam(r, "id")

	var req blogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	b, err := h.service.Update(r.Context(), identity.UserID, identity.Role, blogID, blog.CreateInput{
		Title:     req.Title,
		Content:   req.Content,
		BlogImage: req.BlogImage,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBlogResponse(b))
}

// DeleteBlog は記事の削除を処理する。著者本人と管理者のみ。
// DELETE /api/v1/blogs/:id
func (h *BlogHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	blogID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), identity.UserID, identity.Role, blogID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

func toBlogResponse(b *model.Blog) blogResponse {
	return blogResponse{
		ID:          b.ID,
		Title:       b.Title,
		Content:     b.Content,
		BlogImage:   b.BlogImage,
		AuthorID:    b.AuthorID,
		AuthorName:  b.AuthorName,
		PublishDate: b.PublishDate,
		TotalVisit:  b.TotalVisit,
	}
}

func toBlogResponses(blogs []*model.Blog) []blogResponse {
	responses := make([]blogResponse, 0, len(blogs))
	for _, b := range blogs {
		responses = append(responses, toBlogResponse(b))
	}
	return responses
}
