// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/uniway/atlas/internal/model"
)

// SessionCookieName はセッショントークンを格納するCookie名。
const SessionCookieName = "session_token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッション情報を格納するためのキー。
var sessionContextKey = contextKey("session")

// TokenVerifier はセッショントークンの検証に必要なインターフェース。
// token.Issuerの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) (*model.SessionInfo, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// 署名と有効期限を検証するミドルウェアを返す。
// 検証済みセッション情報をリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			info, err := verifier.Verify(cookie.Value)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := ContextWithSession(r.Context(), info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッション情報を取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*model.SessionInfo, error) {
	info, ok := ctx.Value(sessionContextKey).(*model.SessionInfo)
	if !ok || info == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return info, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	info, err := SessionFromContext(ctx)
	if err != nil {
		return "", err
	}
	return info.UserID, nil
}

// ContextWithSession はコンテキストにセッション情報を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, info *model.SessionInfo) context.Context {
	return context.WithValue(ctx, sessionContextKey, info)
}
