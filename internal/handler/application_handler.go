package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/assuredlife/internal/application"
	"github.com/hitoshi/assuredlife/internal/middleware"
	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// ApplicationServiceInterface は申込ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	// Submit は顧客の申込を受理する。
	Submit(ctx context.Context, userID string, input application.SubmitInput) (*model.Application, error)
	// ListAll は全申込を表示情報付きで返す。
	ListAll(ctx context.Context) ([]repository.ApplicationWithDetails, error)
	// ListAssigned は指定エージェントの担当申込を返す。
	ListAssigned(ctx context.Context, agentID string) ([]repository.ApplicationWithDetails, error)
	// ListMine は呼び出しユーザー自身の申込を返す。
	ListMine(ctx context.Context, userID string) ([]repository.ApplicationWithDetails, error)
	// Get はロールに応じた閲覧権限チェック付きで申込を返す。
	Get(ctx context.Context, requesterID string, requesterRole model.Role, applicationID string) (*model.Application, error)
	// Decide は申込をApprovedまたはRejectedへ遷移させる。
	Decide(ctx context.Context, applicationID string, status model.ApplicationStatus, feedback string) error
	// AssignAgent は申込に担当エージェントを割り当てる。
	AssignAgent(ctx context.Context, applicationID, agentID string) error
}

// ApplicationHandler は保険申込のHTTPハンドラー。
type ApplicationHandler struct {
	service ApplicationServiceInterface
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(service ApplicationServiceInterface) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// submitApplicationRequest は申込提出リクエストのボディ。
// 個人情報・受取人情報・健康告知はスキーマレスなJSONとして受け取る。
type submitApplicationRequest struct {
	PolicyID         string          `json:"policy_id"`
	PersonalData     json.RawMessage `json:"personal_data"`
	NomineeData      json.RawMessage `json:"nominee_data"`
	HealthDisclosure json.RawMessage `json:"health_disclosure"`
}

// decideApplicationRequest は申込審査リクエストのボディ。
type decideApplicationRequest struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// assignAgentRequest は担当エージェント割り当てリクエストのボディ。
type assignAgentRequest struct {
	AgentID string `json:"agent_id"`
}

// applicationResponse は申込のAPIレスポンス。
type applicationResponse struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	PolicyID         string          `json:"policy_id"`
	PersonalData     json.RawMessage `json:"personal_data,omitempty"`
	NomineeData      json.RawMessage `json:"nominee_data,omitempty"`
	HealthDisclosure json.RawMessage `json:"health_disclosure,omitempty"`
	Status           string          `json:"status"`
	PaymentStatus    string          `json:"payment_status"`
	ClaimStatus      string          `json:"claim_status"`
	Feedback         string          `json:"feedback,omitempty"`
	AssignedAgentID  string          `json:"assigned_agent_id,omitempty"`
	SubmittedAt      time.Time       `json:"submitted_at"`
}

// applicationWithDetailsResponse は申込者・保険商品情報付きの申込レスポンス。
type applicationWithDetailsResponse struct {
	applicationResponse
	ApplicantName  string `json:"applicant_name"`
	ApplicantEmail string `json:"applicant_email"`
	PolicyTitle    string `json:"policy_title"`
}

// SubmitApplication は保険申込の提出を処理する。
// POST /api/v1/applications
func (h *ApplicationHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req submitApplicationRequest
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

	app, err := h.service.Submit(r.Context(), userID, application.SubmitInput{
		PolicyID:         req.PolicyID,
		PersonalData:     req.PersonalData,
		NomineeData:      req.NomineeData,
		HealthDisclosure: req.HealthDisclosure,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// ListAllApplications は全申込の一覧を返す。
// GET /api/v1/applications
func (h *ApplicationHandler) ListAllApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationWithDetailsResponses(apps))
}

// ListAssignedApplications は呼び出しエージェントの担当申込一覧を返す。
// GET /api/v1/applications/assigned
func (h *ApplicationHandler) ListAssignedApplications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	apps, err := h.service.ListAssigned(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationWithDetailsResponses(apps))
}

// ListMyApplications は呼び出しユーザー自身の申込一覧を返す。
// GET /api/v1/applications/mine
func (h *ApplicationHandler) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	apps, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationWithDetailsResponses(apps))
}

// GetApplication は申込の詳細を返す。
// 顧客は自分の申込のみ、エージェントは担当申込のみ閲覧できる。
// GET /api/v1/applications/:id
func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	applicationID := chi.URLParam(r, "id")

	app, err := h.service.Get(r.Context(), identity.UserID, identity.Role, applicationID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// DecideApplication は申込の審査（承認・却下）を処理する。
// 遷移はPendingからの前方向のみ許可される。
// PATCH /api/v1/applications/:id/status
func (h *ApplicationHandler) DecideApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")

	var req decideApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	err := h.service.Decide(r.Context(), applicationID, model.ApplicationStatus(req.Status), req.Feedback)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignAgent は申込への担当エージェント割り当てを処理する。
// PATCH /api/v1/applications/:id/assign
func (h *ApplicationHandler) AssignAgent(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")

	var req assignAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	if err := h.service.AssignAgent(r.Context(), applicationID, req.AgentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toApplicationResponse はmodel.ApplicationからAPIレスポンスに変換する。
func toApplicationResponse(app *model.Application) applicationResponse {
	return applicationResponse{
		ID:               app.ID,
		UserID:           app.UserID,
		PolicyID:         app.PolicyID,
		PersonalData:     app.PersonalData,
		NomineeData:      app.NomineeData,
		HealthDisclosure: app.HealthDisclosure,
		Status:           string(app.Status),
		PaymentStatus:    string(app.PaymentStatus),
		ClaimStatus:      app.ClaimStatus,
		Feedback:         app.Feedback,
		AssignedAgentID:  app.AssignedAgentID,
		SubmittedAt:      app.SubmittedAt,
	}
}

// toApplicationWithDetailsResponses は表示情報付き申込のレスポンス一覧に変換する。
func toApplicationWithDetailsResponses(apps []repository.ApplicationWithDetails) []applicationWithDetailsResponse {
	responses := make([]applicationWithDetailsResponse, 0, len(apps))
	for _, app := range apps {
		responses = append(responses, applicationWithDetailsResponse{
			applicationResponse: toApplicationResponse(&app.Application),
			ApplicantName:       app.ApplicantName,
			ApplicantEmail:      app.ApplicantEmail,
			PolicyTitle:         app.PolicyTitle,
		})
	}
	return responses
}
