package middleware

import (
	"log/slog"
	"net/http"
)

// NewAdminGateMiddleware は管理者向けルートを保護するミドルウェアを返す。
// トークンがない・無効な場合はログインページへ、
// 管理者権限がない場合はトップページへリダイレクトする。
// ブラウザ遷移を前提とするため、APIエラーではなく302で応答する。
func NewAdminGateMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			info, err := verifier.Verify(cookie.Value)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			if err := RequireAdmin(info); err != nil {
				slog.Warn("non-admin access to admin route",
					slog.String("user_id", info.UserID),
					slog.String("path", r.URL.Path),
				)
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}

			ctx := ContextWithSession(r.Context(), info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
