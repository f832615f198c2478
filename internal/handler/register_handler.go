package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/uniway/atlas/internal/auth"
	"github.com/uniway/atlas/internal/metrics"
	"github.com/uniway/atlas/internal/middleware"
	"github.com/uniway/atlas/internal/model"
)

// RegisterServiceInterface は登録ハンドラーが必要とするサービスインターフェース。
type RegisterServiceInterface interface {
	Register(ctx context.Context, input auth.RegisterInput) (string, *model.User, error)
}

// RegisterHandler は新規ユーザー登録のHTTPハンドラー。
type RegisterHandler struct {
	service RegisterServiceInterface
	config  AuthHandlerConfig
	metrics metrics.MetricsCollector
}

// NewRegisterHandler はRegisterHandlerを生成する。metricsはnilでもよい。
func NewRegisterHandler(service RegisterServiceInterface, config AuthHandlerConfig, collector metrics.MetricsCollector) *RegisterHandler {
	return &RegisterHandler{
		service: service,
		config:  config,
		metrics: collector,
	}
}

// registerRequest は新規登録リクエストのボディ。
type registerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	BotCheckToken string `json:"botCheckToken"`
}

// Register は新規ユーザーを登録し、セッションCookieを設定する。
// ボット検証スコアが閾値未満、またはメールアドレスが重複している場合は拒否する。
// POST /api/register
func (h *RegisterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	token, user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.BotCheckToken,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 登録成功時はそのままログイン状態にする
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

	if h.metrics != nil {
		h.metrics.RecordRegistration()
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}
