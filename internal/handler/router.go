package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uniway/atlas/internal/metrics"
	"github.com/uniway/atlas/internal/middleware"
)

// HealthChecker は死活監視エンドポイントが依存するインターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService     AuthServiceInterface
	RegisterService RegisterServiceInterface
	AuthConfig      AuthHandlerConfig

	// ドメインサービス
	LocationService LocationServiceInterface
	EventService    EventServiceInterface
	FavoriteService FavoriteServiceInterface

	// 運用系
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler
	Health         HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → SecurityHeaders → CORS → Logging
//	→ (保護ルートのみ) Session → RateLimit(General)
//
// 施設・イベントの参照系は認証不要。変更系はセッション必須。
// /admin/api/* は管理者ゲートの背後に同じハンドラーを再マウントする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Metrics)
	registerHandler := NewRegisterHandler(deps.RegisterService, deps.AuthConfig, deps.Metrics)
	locationHandler := NewLocationHandler(deps.LocationService)
	eventHandler := NewEventHandler(deps.EventService)
	favoriteHandler := NewFavoriteHandler(deps.FavoriteService)

	// --- 認証不要のルート ---

	// 認証ルート（資格情報 + OAuthフロー）
	r.Route("/api/auth", func(r chi.Router) {
		// ログイン系はIP単位のレート制限でブルートフォースを抑止する
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)

		r.Get("/google/login", authHandler.GoogleLogin)
		r.Get("/google/callback", authHandler.GoogleCallback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// 新規登録
	r.With(deps.RateLimiter.AuthMiddleware()).Post("/api/register", registerHandler.Register)

	// 施設・イベントの参照系
	r.Get("/api/locations", locationHandler.ListLocations)
	r.Get("/api/locations/{id}", locationHandler.GetLocation)
	r.Get("/api/events", eventHandler.ListEvents)
	r.Get("/api/events/{id}", eventHandler.GetEvent)

	// --- セッションが必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 施設管理（変更系）
		r.Post("/api/locations", locationHandler.CreateLocation)
		r.Patch("/api/locations/{id}", locationHandler.UpdateLocation)
		r.Delete("/api/locations/{id}", locationHandler.DeleteLocation)

		// イベント管理（変更系）
		r.Post("/api/events", eventHandler.CreateEvent)
		r.Delete("/api/events/{id}", eventHandler.DeleteEvent)

		// お気に入り管理
		r.Route("/api/favorites", func(r chi.Router) {
			r.Get("/", favoriteHandler.ListFavorites)
			r.Post("/", favoriteHandler.AddFavorite)
			r.Delete("/", favoriteHandler.RemoveFavorite)
		})
	})

	// --- 管理者ゲートの背後のルート ---
	// 同じハンドラーを再マウントし、ゲートで管理者ロールを強制する
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAdminGateMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/admin/api/locations", func(r chi.Router) {
			r.Get("/", locationHandler.ListLocations)
			r.Post("/", locationHandler.CreateLocation)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", locationHandler.GetLocation)
				r.Patch("/", locationHandler.UpdateLocation)
				r.Delete("/", locationHandler.DeleteLocation)
			})
		})

		r.Route("/admin/api/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)
			r.Post("/", eventHandler.CreateEvent)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", eventHandler.GetEvent)
				r.Delete("/", eventHandler.DeleteEvent)
			})
		})
	})

	// --- 運用系エンドポイント ---

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			start := time.Now()
			err := deps.Health.PingContext(r.Context())
			if deps.Metrics != nil {
				// 死活監視のDBラウンドトリップをDBレイテンシとして記録する
				deps.Metrics.RecordDBQueryLatency(time.Since(start))
			}
			if err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
