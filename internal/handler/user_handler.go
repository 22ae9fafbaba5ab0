package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/assuredlife/internal/middleware"
	"github.com/hitoshi/assuredlife/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// List は全ユーザーを返す。
	List(ctx context.Context) ([]*model.User, error)
	// Get は指定IDのユーザーを返す。
	Get(ctx context.Context, id string) (*model.User, error)
	// UpdateRole はユーザーのロールを変更する。エージェント情報へ連動する。
	UpdateRole(ctx context.Context, id, roleName string) error
	// Delete は指定IDのユーザーを削除する。
	Delete(ctx context.Context, id string) error
	// UpdateProfile は本人のプロフィールを更新して返す。
	UpdateProfile(ctx context.Context, id, name, photoURL string) (*model.User, error)
}

// UserHandler はユーザー管理・プロフィールのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// updateRoleRequest はロール変更リクエストのボディ。
type updateRoleRequest struct {
	Role string `json:"role"`
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

// ListUsers は全ユーザーの一覧を返す。
// GET /api/v1/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, responses)
}

// UpdateUserRole はユーザーのロール変更を処理する。
// エージェントへの昇格・降格はエージェント情報へ連動する。
// PATCH /api/v1/users/:id/role
func (h *UserHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	if err := h.service.UpdateRole(r.Context(), userID, req.Role); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser はユーザーの削除を処理する。
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetProfile は呼び出しユーザー自身のプロフィールを返す。
// GET /api/v1/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateProfile は呼び出しユーザー自身のプロフィール更新を処理する。
// PUT /api/v1/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "名前が空です。",
			Category: "validation",
			Action:   "名前を指定してください。",
		})
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req.Name, req.PhotoURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
