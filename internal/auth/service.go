// Package auth は資格情報認証、OAuth認証フロー、セッショントークン発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniway/atlas/internal/captcha"
	"github.com/uniway/atlas/internal/model"
	"github.com/uniway/atlas/internal/repository"
)

// bcryptCost はパスワードハッシュ化のコスト。
const bcryptCost = 10

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Provider       string // "google" 等
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// TokenService はセッショントークンの発行と検証のインターフェース。
type TokenService interface {
	Issue(userID, email string, role model.Role) (string, error)
	Verify(tokenString string) (*model.SessionInfo, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth     OAuthProvider
	userRepo  repository.UserRepository
	identRepo repository.IdentityRepository
	tokens    TokenService
	captcha   captcha.Verifier
}

// NewService はServiceを生成する。
// oauthとcaptchaはnilでもよい。その場合は対応する機能が無効になる。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	identRepo repository.IdentityRepository,
	tokens TokenService,
	verifier captcha.Verifier,
) *Service {
	return &Service{
		oauth:     oauth,
		userRepo:  userRepo,
		identRepo: identRepo,
		tokens:    tokens,
		captcha:   verifier,
	}
}

// Authenticate はメールアドレスとパスワードで認証し、セッショントークンを発行する。
// 失敗理由（メール不明かパスワード誤りか）は呼び出し側に区別させない。
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, *model.User, error) {
	if email == "" || password == "" {
		return "", nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		// OAuth専用ユーザーはパスワードハッシュを持たないため、資格情報ログイン不可
		return "", nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, model.NewInvalidCredentialsError()
	}

	tok, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	slog.Info("user authenticated", slog.String("user_id", user.ID))
	return tok, user, nil
}

// RegisterInput は新規登録のリクエスト内容。
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	CaptchaToken string
}

// Register は新規ユーザーを登録し、セッショントークンを発行する。
// ボット検証に失敗した場合は登録を拒否する。
// メールアドレスの重複はリポジトリがEMAIL_TAKENのAPIErrorとして返す。
func (s *Service) Register(ctx context.Context, input RegisterInput) (string, *model.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return "", nil, model.NewInvalidRequestError("名前・メールアドレス・パスワードは必須です")
	}

	if s.captcha != nil {
		ok, err := s.captcha.Verify(ctx, input.CaptchaToken)
		if err != nil {
			return "", nil, fmt.Errorf("ボット検証に失敗しました: %w", err)
		}
		if !ok {
			return "", nil, model.NewCaptchaFailedError()
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", nil, err
	}

	tok, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return tok, user, nil
}

// CurrentUser はセッショントークンから現在のユーザーを取得する。
// トークンが無効・期限切れ、またはユーザーが存在しない場合はUNAUTHORIZEDを返す。
func (s *Service) CurrentUser(ctx context.Context, tokenString string) (*model.User, error) {
	if tokenString == "" {
		return nil, model.NewUnauthorizedError()
	}

	info, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, info.UserID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		// トークンは有効だがユーザーが削除済み
		return nil, model.NewUnauthorizedError()
	}

	return user, nil
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	if s.oauth == nil {
		return ""
	}
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッショントークンを発行する。
// 未登録ユーザーの場合はusersレコードとidentitiesレコードを同時に自動作成する。
// 登録済みユーザーの場合はidentitiesテーブルで既存ユーザーを特定しログインする。
func (s *Service) HandleCallback(ctx context.Context, code string) (string, *model.User, error) {
	if s.oauth == nil {
		return "", nil, model.NewInvalidRequestError("OAuthログインは設定されていません")
	}

	userInfo, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("認可コードの交換に失敗しました: %w", err)
	}

	identity, err := s.identRepo.FindByProviderAndProviderUserID(ctx, userInfo.Provider, userInfo.ProviderUserID)
	if err != nil {
		return "", nil, fmt.Errorf("連携情報の検索に失敗しました: %w", err)
	}

	var user *model.User

	if identity != nil {
		user, err = s.userRepo.FindByID(ctx, identity.UserID)
		if err != nil {
			return "", nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
		}
		if user == nil {
			return "", nil, model.NewUserNotFoundError()
		}
		slog.Info("existing user logged in via oauth",
			slog.String("user_id", user.ID),
			slog.String("provider", userInfo.Provider),
		)
	} else {
		now := time.Now()
		user = &model.User{
			ID:        uuid.New().String(),
			Email:     userInfo.Email,
			Name:      userInfo.Name,
			Role:      model.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		}
		newIdentity := &model.Identity{
			ID:             uuid.New().String(),
			UserID:         user.ID,
			Provider:       userInfo.Provider,
			ProviderUserID: userInfo.ProviderUserID,
			CreatedAt:      now,
		}

		if err := s.userRepo.CreateWithIdentity(ctx, user, newIdentity); err != nil {
			return "", nil, fmt.Errorf("ユーザーと連携情報の作成に失敗しました: %w", err)
		}

		slog.Info("new user created via oauth",
			slog.String("user_id", user.ID),
			slog.String("provider", userInfo.Provider),
		)
	}

	tok, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	return tok, user, nil
}
