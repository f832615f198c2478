// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/uniway/atlas/internal/auth"
	"github.com/uniway/atlas/internal/captcha"
	"github.com/uniway/atlas/internal/config"
	"github.com/uniway/atlas/internal/database"
	"github.com/uniway/atlas/internal/event"
	"github.com/uniway/atlas/internal/favorite"
	"github.com/uniway/atlas/internal/handler"
	"github.com/uniway/atlas/internal/location"
	"github.com/uniway/atlas/internal/logger"
	"github.com/uniway/atlas/internal/metrics"
	"github.com/uniway/atlas/internal/middleware"
	"github.com/uniway/atlas/internal/repository"
	"github.com/uniway/atlas/internal/token"
)

// Init はアプリケーションの初期化を行う。
// .envファイルと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envファイルの読み込み（存在しない場合は環境変数のみ使用）
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables only")
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		if len(args) < 2 {
			return fmt.Errorf("usage: seed <locations.json>")
		}
		return runSeed(cfg, args[1])
	case CommandCreateAdmin:
		if len(args) < 2 {
			return fmt.Errorf("usage: create-admin <email> [name] (password via ADMIN_PASSWORD)")
		}
		name := ""
		if len(args) > 2 {
			name = args[2]
		}
		return runCreateAdmin(cfg, args[1], name)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	identRepo := repository.NewPostgresIdentityRepo(db)
	locRepo := repository.NewPostgresLocationRepo(db)
	eventRepo := repository.NewPostgresEventRepo(db)
	favRepo := repository.NewPostgresFavoriteRepo(db)

	// 3. トークン・ボット検証・OAuthの初期化
	issuer := token.NewIssuer(cfg.SessionSecret, cfg.SessionMaxAge)

	var verifier captcha.Verifier
	if cfg.CaptchaSecret != "" {
		verifier = captcha.NewRecaptchaVerifier(nil, cfg.CaptchaSecret, cfg.CaptchaThreshold)
	} else {
		slog.Warn("RECAPTCHA_SECRET_KEY not set, bot verification disabled")
	}

	var oauthProvider auth.OAuthProvider
	if cfg.GoogleClientID != "" {
		oauthProvider = auth.NewGoogleOAuthProvider(nil, auth.GoogleOAuthConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
	} else {
		slog.Warn("GOOGLE_CLIENT_ID not set, OAuth login disabled")
	}

	// 4. ドメインサービスの初期化
	authService := auth.NewService(oauthProvider, userRepo, identRepo, issuer, verifier)
	locationService := location.NewService(locRepo)
	eventService := event.NewService(eventRepo)
	favoriteService := favorite.NewService(favRepo, locRepo, userRepo)

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. レート制限の初期化（設定値はreq/min単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.AuthRate = rate.Limit(float64(cfg.RateLimitAuth) / 60.0)
	rateLimiterCfg.AuthBurst = cfg.RateLimitAuth
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		TokenVerifier:     issuer,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		AuthService:     authService,
		RegisterService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: int(cfg.SessionMaxAge.Seconds()),
		},

		LocationService: locationService,
		EventService:    eventService,
		FavoriteService: favoriteService,

		Metrics:        collector,
		MetricsHandler: metrics.Handler(registry),
		Health:         db,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
