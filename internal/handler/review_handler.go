package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/assuredlife/internal/middleware"
	"github.com/hitoshi/assuredlife/internal/model"
)

// LatestReviewsLimit はトップページに掲載する最新レビュー数。
const LatestReviewsLimit = 6

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	// ListLatest は最新のレビューを返す。
	ListLatest(ctx context.Context, limit int) ([]*model.Review, error)
	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error
}

// ReviewHandler はレビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// createReviewRequest はレビュー投稿リクエストのボディ。
// 保険商品IDとエージェントIDは任意。
type createReviewRequest struct {
	Rating   int    `json:"rating"`
	Message  string `json:"message"`
	PolicyID string `json:"policy_id"`
	AgentID  string `json:"agent_id"`
}

// reviewResponse はレビューのAPIレスポンス。
type reviewResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	UserImage string    `json:"user_image,omitempty"`
	Rating    int       `json:"rating"`
	Message   string    `json:"message"`
	PolicyID  string    `json:"policy_id,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLatestReviews はトップページ掲載用の最新レビューを返す。
// GET /api/v1/reviews/latest
func (h *ReviewHandler) ListLatestReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListLatest(r.Context(), LatestReviewsLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]reviewResponse, 0, len(reviews))
	for _, rev := range reviews {
		responses = append(responses, toReviewResponse(rev))
	}
	writeJSON(w, http.StatusOK, responses)
}

// CreateReview はレビューの投稿を処理する。
// 評価は1から5の範囲でなければならない。
// POST /api/v1/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRatingError(req.Rating))
		return
	}

	review := &model.Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		Rating:    req.Rating,
		Message:   req.Message,
		PolicyID:  req.PolicyID,
		AgentID:   req.AgentID,
		CreatedAt: time.Now(),
	}
	if err := h.service.Create(r.Context(), review); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(review))
}

func toReviewResponse(rev *model.Review) reviewResponse {
	return reviewResponse{
		ID:        rev.ID,
		UserID:    rev.UserID,
		UserName:  rev.UserName,
		UserImage: rev.UserImage,
		Rating:    rev.Rating,
		Message:   rev.Message,
		PolicyID:  rev.PolicyID,
		AgentID:   rev.AgentID,
		CreatedAt: rev.CreatedAt,
	}
}
