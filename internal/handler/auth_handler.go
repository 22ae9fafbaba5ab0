package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/assuredlife/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register はIDトークンを検証し、未登録であればユーザーを作成する。
	// 戻り値のboolは新規作成を表す。
	Register(ctx context.Context, idToken, name, photoURL string) (*model.User, bool, error)
	// Upsert はIDトークンを検証し、ユーザーを作成または更新して返す。
	Upsert(ctx context.Context, idToken string) (*model.User, error)
}

// AuthHandler は認証・ユーザー登録のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	IDToken  string `json:"id_token"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

// socialLoginRequest はソーシャルログインリクエストのボディ。
type socialLoginRequest struct {
	IDToken string `json:"id_token"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photo_url"`
	Role      string    `json:"role"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
}

// Register はメール・パスワード登録後のユーザー作成を処理する。
// IdP側でアカウント作成済みのIDトークンを受け取り、ローカルユーザーを作成する。
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.IDToken == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "IDトークンが空です。",
			Category: "validation",
			Action:   "IDトークンを指定してください。",
		})
		return
	}

	user, created, err := h.service.Register(r.Context(), req.IDToken, req.Name, req.PhotoURL)
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	statusCode := http.StatusOK
	if created {
		statusCode = http.StatusCreated
	}
	writeJSON(w, statusCode, toUserResponse(user))
}

// SocialLogin はソーシャルログインのたびに呼ばれ、ユーザーを作成または更新する。
// IdP側の最新プロフィールでemail・name・photoを上書きする。
// POST /api/v1/auth/social-login
func (h *AuthHandler) SocialLogin(w http.ResponseWriter, r *http.Request) {
	var req socialLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.IDToken == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "IDトークンが空です。",
			Category: "validation",
			Action:   "IDトークンを指定してください。",
		})
		return
	}

	user, err := h.service.Upsert(r.Context(), req.IDToken)
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		PhotoURL:  user.PhotoURL,
		Role:      string(user.Role),
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}
}
