// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// PopularPoliciesLimit はトップページに掲載する人気保険商品数。
const PopularPoliciesLimit = 6

// defaultPolicyPageLimit は保険商品一覧の1ページあたりのデフォルト件数。
const defaultPolicyPageLimit = 9

// PolicyServiceInterface は保険商品ハンドラーが必要とするサービスインターフェース。
type PolicyServiceInterface interface {
	// Get は指定IDの保険商品を返す。見つからない場合は(nil, nil)。
	Get(ctx context.Context, id string) (*model.Policy, error)
	// List はフィルタ付きで保険商品一覧と総件数を返す。
	List(ctx context.Context, filter repository.PolicyListFilter) ([]*model.Policy, int, error)
	// ListPopular は購入数の多い順に保険商品を返す。
	ListPopular(ctx context.Context, limit int) ([]*model.Policy, error)
	// Create は保険商品を作成する。
	Create(ctx context.Context, policy *model.Policy) error
	// Update は保険商品を更新する。見つからない場合はsql.ErrNoRows。
	Update(ctx context.Context, policy *model.Policy) error
	// Delete は保険商品を削除する。見つからない場合はsql.ErrNoRows。
	Delete(ctx context.Context, id string) error
}

// PolicyHandler は保険商品のHTTPハンドラー。
type PolicyHandler struct {
	service PolicyServiceInterface
}

// NewPolicyHandler はPolicyHandlerを生成する。
func NewPolicyHandler(service PolicyServiceInterface) *PolicyHandler {
	return &PolicyHandler{service: service}
}

// policyRequest は保険商品の作成・更新リクエストのボディ。
type policyRequest struct {
	Title           string   `json:"title"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	MinAge          int      `json:"min_age"`
	MaxAge          int      `json:"max_age"`
	CoverageMin     int64    `json:"coverage_min"`
	CoverageMax     int64    `json:"coverage_max"`
	DurationOptions []string `json:"duration_options"`
	BasePremiumRate float64  `json:"base_premium_rate"`
	PolicyImage     string   `json:"policy_image"`
}

// policyResponse は保険商品のAPIレスポンス。
type policyResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	MinAge          int      `json:"min_age"`
	MaxAge          int      `json:"max_age"`
	CoverageMin     int64    `json:"coverage_min"`
	CoverageMax     int64    `json:"coverage_max"`
	DurationOptions []string `json:"duration_options"`
	BasePremiumRate float64  `json:"base_premium_rate"`
	PolicyImage     string   `json:"policy_image"`
	PurchaseCount   int      `json:"purchase_count"`
}

// policyListResponse はページネーション付きの保険商品一覧レスポンス。
type policyListResponse struct {
	Policies      []policyResponse `json:"policies"`
	TotalPolicies int              `json:"totalPolicies"`
	CurrentPage   int              `json:"currentPage"`
	TotalPages    int              `json:"totalPages"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListPolicies はカテゴリフィルタ・タイトル検索・ページネーション付きの一覧を返す。
// GET /api/v1/policies
func (h *PolicyHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit < 1 {
		limit = defaultPolicyPageLimit
	}

	filter := repository.PolicyListFilter{
		Category: query.Get("category"),
		Search:   query.Get("search"),
		Page:     page,
		Limit:    limit,
	}

	policies, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	totalPages := (total + limit - 1) / limit

	responses := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		responses = append(responses, toPolicyResponse(p))
	}

	writeJSON(w, http.StatusOK, policyListResponse{
		Policies:      responses,
		TotalPolicies: total,
		CurrentPage:   page,
		TotalPages:    totalPages,
	})
}

// ListPopularPolicies は購入数の多い保険商品を返す。
// GET /api/v1/policies/popular
func (h *PolicyHandler) ListPopularPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.ListPopular(r.Context(), PopularPoliciesLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		responses = append(responses, toPolicyResponse(p))
	}
	writeJSON(w, http.StatusOK, responses)
}

// GetPolicy は保険商品の詳細を返す。
// GET /api/v1/policies/:id
func (h *PolicyHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policyID := chi.URLParam(r, "id")

	policy, err := h.service.Get(r.Context(), policyID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if policy == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPolicyNotFoundError(policyID))
		return
	}

	writeJSON(w, http.StatusOK, toPolicyResponse(policy))
}

// CreatePolicy は保険商品を作成する。
// POST /api/v1/policies
func (h *PolicyHandler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
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

	now := time.Now()
	policy := &model.Policy{
		ID:              uuid.New().String(),
		Title:           req.Title,
		Category:        req.Category,
		Description:     req.Description,
		MinAge:          req.MinAge,
		MaxAge:          req.MaxAge,
		CoverageMin:     req.CoverageMin,
		CoverageMax:     req.CoverageMax,
		DurationOptions: req.DurationOptions,
		BasePremiumRate: req.BasePremiumRate,
		PolicyImage:     req.PolicyImage,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.service.Create(r.Context(), policy); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPolicyResponse(policy))
}

// UpdatePolicy は保険商品を更新する。購入数はこの操作では変更されない。
// PUT /api/v1/policies/:id
func (h *PolicyHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	policyID := chi.URLParam(r, "id")

	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	policy := &model.Policy{
		ID:              policyID,
		Title:           req.Title,
		Category:        req.Category,
		Description:     req.Description,
		MinAge:          req.MinAge,
		MaxAge:          req.MaxAge,
		CoverageMin:     req.CoverageMin,
		CoverageMax:     req.CoverageMax,
		DurationOptions: req.DurationOptions,
		BasePremiumRate: req.BasePremiumRate,
		PolicyImage:     req.PolicyImage,
		UpdatedAt:       time.Now(),
	}

	if err := h.service.Update(r.Context(), policy); err != nil {
		if isNotFound(err) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewPolicyNotFoundError(policyID))
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPolicyResponse(policy))
}

// DeletePolicy は保険商品を削除する。
// DELETE /api/v1/policies/:id
func (h *PolicyHandler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	policyID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), policyID); err != nil {
		if isNotFound(err) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewPolicyNotFoundError(policyID))
			return
		}
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toPolicyResponse はmodel.PolicyからAPIレスポンスに変換する。
func toPolicyResponse(p *model.Policy) policyResponse {
	return policyResponse{
		ID:              p.ID,
		Title:           p.Title,
		Category:        p.Category,
		Description:     p.Description,
		MinAge:          p.MinAge,
		MaxAge:          p.MaxAge,
		CoverageMin:     p.CoverageMin,
		CoverageMax:     p.CoverageMax,
		DurationOptions: p.DurationOptions,
		BasePremiumRate: p.BasePremiumRate,
		PolicyImage:     p.PolicyImage,
		PurchaseCount:   p.PurchaseCount,
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidBodyResponse はリクエストボディ解析失敗の400レスポンスを書き込む。
func writeInvalidBodyResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// writeUnauthorizedResponse は認証情報がコンテキストにない場合の401レスポンスを書き込む。
func writeUnauthorizedResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     model.ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// isNotFound はリポジトリの行不在エラーかを判定する。
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUserNotFound,
		model.ErrCodePolicyNotFound,
		model.ErrCodeApplicationNotFound,
		model.ErrCodeClaimNotFound,
		model.ErrCodeBlogNotFound,
		model.ErrCodeAgentAppNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest,
		model.ErrCodeInvalidRole,
		model.ErrCodeInvalidRating,
		model.ErrCodeInvalidStatus,
		model.ErrCodeInvalidTransition,
		model.ErrCodeInvalidAgent,
		model.ErrCodeNoApprovedPolicy,
		model.ErrCodeAlreadySubscribed:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeNotBlogAuthor:
		return http.StatusForbidden
	case model.ErrCodePaymentIntentFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
