package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/uniway/atlas/internal/metrics"
	"github.com/uniway/atlas/internal/middleware"
	"github.com/uniway/atlas/internal/model"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, email, password string) (string, *model.User, error)
	CurrentUser(ctx context.Context, tokenString string) (*model.User, error)
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (string, *model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は資格情報ログインとGoogle OAuthのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
	metrics metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
		metrics: collector,
	}
}

// loginRequest は資格情報ログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
// パスワードハッシュは決して含めない。
type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login はメールアドレスとパスワードで認証し、セッションCookieを設定する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	token, user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordLoginFailure("credentials")
		}
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	if h.metrics != nil {
		h.metrics.RecordLogin("credentials")
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Logout はセッションCookieを破棄する。
// トークンはステートレスなため、サーバー側で無効化する状態は持たない。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// GoogleLogin はGoogle OAuthフローを開始する。
// GET /api/auth/google/login
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback はOAuthコールバックを処理し、セッションCookieを設定する。
// GET /api/auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	// 1. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch", slog.String("query_state", state))
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("stateパラメータが一致しません"))
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("認可コードがありません"))
		return
	}

	// 3. 認証処理とトークン発行
	token, _, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		if h.metrics != nil {
			h.metrics.RecordLoginFailure("google")
		}
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}

	h.setSessionCookie(w, token)
	if h.metrics != nil {
		h.metrics.RecordLogin("google")
	}

	// 4. フロントエンドにリダイレクト
	http.Redirect(w, r, h.config.BaseURL, http.StatusTemporaryRedirect)
}

// setSessionCookie はセッショントークンをHTTP Only Cookieに設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを即時失効させる。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
