package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/assuredlife/internal/model"
)

// NewsletterServiceInterface はニュースレターハンドラーが必要とするサービスインターフェース。
type NewsletterServiceInterface interface {
	// FindByEmail はメールアドレスで購読者を検索する。見つからない場合はnil。
	FindByEmail(ctx context.Context, email string) (*model.NewsletterSubscriber, error)
	// Create は購読者を作成する。
	Create(ctx context.Context, sub *model.NewsletterSubscriber) error
}

// NewsletterHandler はニュースレター購読のHTTPハンドラー。
type NewsletterHandler struct {
	service NewsletterServiceInterface
}

// NewNewsletterHandler はNewsletterHandlerを生成する。
func NewNewsletterHandler(service NewsletterServiceInterface) *NewsletterHandler {
	return &NewsletterHandler{service: service}
}

// subscribeRequest は購読リクエストのボディ。
type subscribeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// subscribeResponse は購読完了レスポンス。
type subscribeResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// Subscribe はニュースレターの購読登録を処理する。
// 登録済みのメールアドレスは重複として400を返す。
// POST /api/v1/newsletter/subscribe
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "メールアドレスの形式が不正です。",
			Category: "validation",
			Action:   "正しいメールアドレスを指定してください。",
		})
		return
	}

	existing, err := h.service.FindByEmail(r.Context(), req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if existing != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewAlreadySubscribedError())
		return
	}

	sub := &model.NewsletterSubscriber{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		SubscribedAt: time.Now(),
	}
	if err := h.service.Create(r.Context(), sub); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, subscribeResponse{
		ID:           sub.ID,
		Name:         sub.Name,
		Email:        sub.Email,
		SubscribedAt: sub.SubscribedAt,
	})
}
