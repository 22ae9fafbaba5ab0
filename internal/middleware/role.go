package middleware

import (
	"net/http"

	"github.com/hitoshi/assuredlife/internal/model"
)

// RequireRole は許可リストに含まれるロールのみ通過させるミドルウェアを返す。
// コンテキストにアイデンティティがない場合は401、ロールが許可リストに
// 含まれない場合は403を返す。リソースへの副作用はない。
func RequireRole(roles ...model.Role) func(next http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if !allowed[identity.Role] {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
