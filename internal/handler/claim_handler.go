package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/assuredlife/internal/claim"
	"github.com/hitoshi/assuredlife/internal/middleware"
	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// ClaimServiceInterface は請求ハンドラーが必要とするサービスインターフェース。
type ClaimServiceInterface interface {
	// Submit は保険金請求を受理する。承認済み申込がない場合は拒否する。
	Submit(ctx context.Context, userID string, input claim.SubmitInput) (*model.Claim, error)
	// ListAll は全請求を表示情報付きで返す。
	ListAll(ctx context.Context) ([]repository.ClaimWithDetails, error)
	// ListMine は呼び出しユーザー自身の請求を返す。
	ListMine(ctx context.Context, userID string) ([]repository.ClaimWithDetails, error)
	// UpdateStatus は請求ステータスを更新し、申込側へミラーする。
	UpdateStatus(ctx context.Context, claimID string, status model.ClaimStatus) error
}

// ClaimHandler は保険金請求のHTTPハンドラー。
type ClaimHandler struct {
	service ClaimServiceInterface
}

// NewClaimHandler はClaimHandlerを生成する。
func NewClaimHandler(service ClaimServiceInterface) *ClaimHandler {
	return &ClaimHandler{service: service}
}

// submitClaimRequest は請求提出リクエストのボディ。
type submitClaimRequest struct {
	PolicyID  string   `json:"policy_id"`
	Reason    string   `json:"reason"`
	Documents []string `json:"documents"`
}

// updateClaimStatusRequest は請求ステータス更新リクエストのボディ。
type updateClaimStatusRequest struct {
	Status string `json:"status"`
}

// claimResponse は請求のAPIレスポンス。
type claimResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	PolicyID      string    `json:"policy_id"`
	ApplicationID string    `json:"application_id"`
	Reason        string    `json:"reason"`
	Documents     []string  `json:"documents"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// claimWithDetailsResponse は保険商品・申請者情報付きの請求レスポンス。
type claimWithDetailsResponse struct {
	claimResponse
	PolicyTitle    string `json:"policy_title"`
	PolicyAmount   int64  `json:"policy_amount"`
	ApplicantName  string `json:"applicant_name"`
	ApplicantEmail string `json:"applicant_email"`
}

// SubmitClaim は保険金請求の提出を処理する。
// 呼び出しユーザーがその保険商品の承認済み申込を持たない場合は400を返す。
// POST /api/v1/claims
func (h *ClaimHandler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req submitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.PolicyID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "保険商品IDが空です。",
			Category: "validation",
			Action:   "保険商品IDを指定してください。",
		})
		return
	}

	c, err := h.service.Submit(r.Context(), userID, claim.SubmitInput{
		PolicyID:  req.PolicyID,
		Reason:    req.Reason,
		Documents: req.Documents,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toClaimResponse(c))
}

// ListAllClaims は全請求の一覧を返す。
// GET /api/v1/claims
func (h *ClaimHandler) ListAllClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimWithDetailsResponses(claims))
}

// ListMyClaims は呼び出しユーザー自身の請求一覧を返す。
// GET /api/v1/claims/mine
func (h *ClaimHandler) ListMyClaims(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	claims, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimWithDetailsResponses(claims))
}

// UpdateClaimStatus は請求の審査を処理する。
// PATCH /api/v1/claims/:id/status
func (h *ClaimHandler) UpdateClaimStatus(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "id")

	var req updateClaimStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), claimID, model.ClaimStatus(req.Status)); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

func toClaimResponse(c *model.Claim) claimResponse {
	return claimResponse{
		ID:            c.ID,
		UserID:        c.UserID,
		PolicyID:      c.PolicyID,
		ApplicationID: c.ApplicationID,
		Reason:        c.Reason,
		Documents:     c.Documents,
		Status:        string(c.Status),
		SubmittedAt:   c.SubmittedAt,
	}
}

func toClaimWithDetailsResponses(claims []repository.ClaimWithDetails) []claimWithDetailsResponse {
	responses := make([]claimWithDetailsResponse, 0, len(claims))
	for _, c := range claims {
		responses = append(responses, claimWithDetailsResponse{
			claimResponse:  toClaimResponse(&c.Claim),
			PolicyTitle:    c.PolicyTitle,
			PolicyAmount:   c.PolicyAmount,
			ApplicantName:  c.ApplicantName,
			ApplicantEmail: c.ApplicantEmail,
		})
	}
	return responses
}
