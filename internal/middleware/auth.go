// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hitoshi/launchpad/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// principalContextKey はリクエストコンテキストに主体を格納するためのキー。
	principalContextKey = contextKey("principal")
	// holderContextKey はリクエストログが認証結果を受け取るためのキー。
	holderContextKey = contextKey("principal_holder")
)

// principalHolder は外側のミドルウェアへ認証済みユーザー名を伝える。
type principalHolder struct {
	username string
}

func withPrincipalHolder(ctx context.Context, h *principalHolder) context.Context {
	return context.WithValue(ctx, holderContextKey, h)
}

// Authenticator はアクセストークンから主体を解決する。
// auth.Resolverが実装する。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Principal, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのトークンを検証し、
// 解決した主体をリクエストコンテキストに注入するミドルウェアを返す。
// トークンがない・無効な場合はハンドラーを呼ばずにエラーを返す。
func NewAuthMiddleware(authn Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			p, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			if h, ok := r.Context().Value(holderContextKey).(*principalHolder); ok {
				h.username = p.Username
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// bearerToken はAuthorizationヘッダーからトークンを取り出す。
// 「Bearer 」接頭辞のない生のトークンも受け付ける。
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if found {
		return ""
	}
	return header
}

// PrincipalFromContext はリクエストコンテキストから主体を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func PrincipalFromContext(ctx context.Context) (model.Principal, error) {
	p, ok := ctx.Value(principalContextKey).(model.Principal)
	if !ok || p.UserID == 0 {
		return model.Principal{}, errors.New("principal not found in context")
	}
	return p, nil
}

// ContextWithPrincipal はコンテキストに主体を注入する。
func ContextWithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}
