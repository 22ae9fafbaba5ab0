package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/assuredlife/internal/model"
)

// FAQServiceInterface はFAQハンドラーが必要とするサービスインターフェース。
type FAQServiceInterface interface {
	// List は全FAQを返す。
	List(ctx context.Context) ([]*model.FAQ, error)
}

// FAQHandler はよくある質問のHTTPハンドラー。
type FAQHandler struct {
	service FAQServiceInterface
}

// NewFAQHandler はFAQHandlerを生成する。
func NewFAQHandler(service FAQServiceInterface) *FAQHandler {
	return &FAQHandler{service: service}
}

// faqResponse はFAQのAPIレスポンス。
type faqResponse struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	HelpfulCount int    `json:"helpful_count"`
}

// ListFAQs は全FAQの一覧を返す。
// GET /api/v1/faqs
func (h *FAQHandler) ListFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]faqResponse, 0, len(faqs))
	for _, f := range faqs {
		responses = append(responses, faqResponse{
			ID:           f.ID,
			Question:     f.Question,
			Answer:       f.Answer,
			HelpfulCount: f.HelpfulCount,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}
