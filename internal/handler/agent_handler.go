package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/assuredlife/internal/agent"
	"github.com/hitoshi/assuredlife/internal/middleware"
	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// AgentServiceInterface はエージェントハンドラーが必要とするサービスインターフェース。
type AgentServiceInterface interface {
	// Apply はエージェント登録申請を受理する。再申請は審査待ちへ戻す。
	Apply(ctx context.Context, userID string, input agent.ApplyInput) (*model.Agent, error)
	// ListFeatured はトップページ掲載用の承認済みエージェントを返す。
	ListFeatured(ctx context.Context) ([]repository.AgentWithUserInfo, error)
	// ListApproved は承認済みエージェントを全件返す。
	ListApproved(ctx context.Context) ([]repository.AgentWithUserInfo, error)
	// ListPending は審査待ちの登録申請を返す。
	ListPending(ctx context.Context) ([]repository.AgentWithUserInfo, error)
	// Approve は登録申請を承認し、ユーザーのロールをagentへ更新する。
	Approve(ctx context.Context, agentID string) error
	// Reject は登録申請を却下し、フィードバックを記録する。
	Reject(ctx context.Context, agentID, feedback string) error
}

// AgentHandler はエージェント採用・掲載のHTTPハンドラー。
type AgentHandler struct {
	service AgentServiceInterface
}

// NewAgentHandler はAgentHandlerを生成する。
func NewAgentHandler(service AgentServiceInterface) *AgentHandler {
	return &AgentHandler{service: service}
}

// applyAgentRequest はエージェント登録申請リクエストのボディ。
type applyAgentRequest struct {
	Experience  string   `json:"experience"`
	Specialties []string `json:"specialties"`
	Motivation  string   `json:"motivation"`
}

// rejectAgentRequest は登録申請却下リクエストのボディ。
type rejectAgentRequest struct {
	Feedback string `json:"feedback"`
}

// agentResponse はエージェント情報のAPIレスポンス。
type agentResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Experience  string    `json:"experience"`
	Specialties []string  `json:"specialties"`
	Motivation  string    `json:"motivation,omitempty"`
	Status      string    `json:"status"`
	Feedback    string    `json:"feedback,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `json:"name,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Email       string    `json:"email,omitempty"`
}

// ApplyAgent はエージェント登録申請の提出を処理する。
// POST /api/v1/agents/apply
func (h *AgentHandler) ApplyAgent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req applyAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.Experience == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "経験年数・経歴が空です。",
			Category: "validation",
			Action:   "経歴を記入してください。",
		})
		return
	}

	a, err := h.service.Apply(r.Context(), userID, agent.ApplyInput{
		Experience:  req.Experience,
		Specialties: req.Specialties,
		Motivation:  req.Motivation,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAgentResponse(a))
}

// ListFeaturedAgents はトップページ掲載用のエージェント一覧を返す。
// GET /api/v1/agents/featured
func (h *AgentHandler) ListFeaturedAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.service.ListFeatured(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgentWithUserInfoResponses(agents))
}

// ListApprovedAgents は承認済みエージェントの一覧を返す。
// GET /api/v1/agents/approved
func (h *AgentHandler) ListApprovedAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.service.ListApproved(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgentWithUserInfoResponses(agents))
}

// ListPendingAgents は審査待ちの登録申請一覧を返す。
// GET /api/v1/agents/pending
func (h *AgentHandler) ListPendingAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.service.ListPending(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgentWithUserInfoResponses(agents))
}

// ApproveAgent は登録申請の承認を処理する。
// PATCH /api/v1/agents/:id/approve
func (h *AgentHandler) ApproveAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")

	if err := h.service.Approve(r.Context(), agentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RejectAgent は登録申請の却下を処理する。
// PATCH /api/v1/agents/:id/reject
func (h *AgentHandler) RejectAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")

	var req rejectAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	if err := h.service.Reject(r.Context(), agentID, req.Feedback); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

func toAgentResponse(a *model.Agent) agentResponse {
	return agentResponse{
		ID:          a.ID,
		UserID:      a.UserID,
		Experience:  a.Experience,
		Specialties: a.Specialties,
		Motivation:  a.Motivation,
		Status:      string(a.Status),
		Feedback:    a.Feedback,
		CreatedAt:   a.CreatedAt,
	}
}

func toAgentWithUserInfoResponses(agents []repository.AgentWithUserInfo) []agentResponse {
	responses := make([]agentResponse, 0, len(agents))
	for _, a := range agents {
		resp := toAgentResponse(&a.Agent)
		resp.Name = a.Name
		resp.PhotoURL = a.PhotoURL
		resp.Email = a.Email
		responses = append(responses, resp)
	}
	return responses
}
