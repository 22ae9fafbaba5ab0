// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/assuredlife/internal/auth"
	"github.com/hitoshi/assuredlife/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みアイデンティティを格納するためのキー。
var identityContextKey = contextKey("identity")

// Identity は認証ミドルウェアがコンテキストへ注入する認証済みユーザー情報。
// UserIDはローカルのusers.id（IdPのUIDではない）。
type Identity struct {
	UserID      string
	FirebaseUID string
	Email       string
	Role        model.Role
}

// Authenticator はIDトークンからローカルユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type Authenticator interface {
	Authenticate(ctx context.Context, idToken string) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証済みアイデンティティをリクエストコンテキストに注入するミドルウェアを返す。
// トークンが欠落・無効・期限切れの場合、および有効でもローカル未登録の場合は
// 401 Unauthorizedをプレーンテキストで返す。
func NewAuthMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 2. トークンを検証してローカルユーザーを解決
			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if !isAuthFailure(err) {
					slog.Error("failed to authenticate request",
						slog.String("error", err.Error()),
					)
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 3. 認証済みアイデンティティをコンテキストに注入
			ctx := ContextWithIdentity(r.Context(), &Identity{
				UserID:      user.ID,
				FirebaseUID: user.FirebaseUID,
				Email:       user.Email,
				Role:        user.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isAuthFailure は認証の失敗として想定内のエラーかを判定する。
// 想定内の失敗（無効トークン・未登録）はエラーログを出さない。
func isAuthFailure(err error) bool {
	return err == auth.ErrUnknownSubject || strings.Contains(err.Error(), "トークンの検証に失敗しました")
}

// IdentityFromContext はリクエストコンテキストから認証済みアイデンティティを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	identity, err := IdentityFromContext(ctx)
	if err != nil {
		return "", err
	}
	return identity.UserID, nil
}

// ContextWithIdentity はコンテキストにアイデンティティを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
