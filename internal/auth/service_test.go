package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/uniway/atlas/internal/model"
	"github.com/uniway/atlas/internal/token"
)

// mockUserRepo はテスト用のUserRepositoryモック
type mockUserRepo struct {
	findByIDFunc           func(ctx context.Context, id string) (*model.User, error)
	findByEmailFunc        func(ctx context.Context, email string) (*model.User, error)
	createFunc             func(ctx context.Context, user *model.User) error
	createWithIdentityFunc func(ctx context.Context, user *model.User, identity *model.Identity) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.createFunc(ctx, user)
}

func (m *mockUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	return m.createWithIdentityFunc(ctx, user, identity)
}

// mockIdentityRepo はテスト用のIdentityRepositoryモック
type mockIdentityRepo struct {
	findFunc func(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

func (m *mockIdentityRepo) FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
	return m.findFunc(ctx, provider, providerUserID)
}

// mockOAuthProvider はテスト用のOAuthProviderモック
type mockOAuthProvider struct {
	loginURL     string
	exchangeFunc func(ctx context.Context, code string) (*OAuthUserInfo, error)
}

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	return m.loginURL + "?state=" + state
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	return m.exchangeFunc(ctx, code)
}

// mockVerifier はテスト用のcaptcha.Verifierモック
type mockVerifier struct {
	verifyFunc func(ctx context.Context, token string) (bool, error)
}

func (m *mockVerifier) Verify(ctx context.Context, tok string) (bool, error) {
	return m.verifyFunc(ctx, tok)
}

func testTokens(t *testing.T) *token.Issuer {
	t.Helper()
	return token.NewIssuer("test-secret-key", time.Hour)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func TestAuthenticate_Success(t *testing.T) {
	hash := hashPassword(t, "correct-password")
	userRepo := &mockUserRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			if email != "taro@example.com" {
				t.Errorf("unexpected email: %s", email)
			}
			return &model.User{
				ID:           "user-1",
				Email:        "taro@example.com",
				PasswordHash: hash,
				Role:         model.RoleUser,
			}, nil
		},
	}
	tokens := testTokens(t)
	svc := NewService(nil, userRepo, nil, tokens, nil)

	tok, user, err := svc.Authenticate(context.Background(), "taro@example.com", "correct-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user ID = %q, want user-1", user.ID)
	}

	// 発行されたトークンが検証可能であること
	info, err := tokens.Verify(tok)
	if err != nil {
		t.Fatalf("issued token should verify: %v", err)
	}
	if info.UserID != "user-1" || info.Role != "user" {
		t.Errorf("unexpected session info: %+v", info)
	}
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	hash := hashPassword(t, "correct-password")
	userRepo := &mockUserRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := NewService(nil, userRepo, nil, testTokens(t), nil)

	_, _, err := svc.Authenticate(context.Background(), "taro@example.com", "wrong-password")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	userRepo := &mockUserRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(nil, userRepo, nil, testTokens(t), nil)

	_, _, err := svc.Authenticate(context.Background(), "nobody@example.com", "password")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
}

func TestAuthenticate_OAuthOnlyUser(t *testing.T) {
	// OAuth経由で作成されたユーザーはパスワードハッシュが空
	userRepo := &mockUserRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email, PasswordHash: ""}, nil
		},
	}
	svc := NewService(nil, userRepo, nil, testTokens(t), nil)

	_, _, err := svc.Authenticate(context.Background(), "taro@example.com", "any-password")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
}

func TestAuthenticate_EmptyFields(t *testing.T) {
	svc := NewService(nil, &mockUserRepo{}, nil, testTokens(t), nil)

	_, _, err := svc.Authenticate(context.Background(), "", "")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
}

func TestRegister_Success(t *testing.T) {
	var created *model.User
	userRepo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, tok string) (bool, error) {
			return true, nil
		},
	}
	tokens := testTokens(t)
	svc := NewService(nil, userRepo, nil, tokens, verifier)

	tok, user, err := svc.Register(context.Background(), RegisterInput{
		Name:         "Taro",
		Email:        "taro@example.com",
		Password:     "secret-password",
		CaptchaToken: "captcha-token",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("user should be persisted")
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, want user", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret-password" {
		t.Error("password should be stored as a bcrypt hash")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-password")); err != nil {
		t.Errorf("stored hash should match original password: %v", err)
	}

	if _, err := tokens.Verify(tok); err != nil {
		t.Errorf("issued token should verify: %v", err)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	svc := NewService(nil, &mockUserRepo{}, nil, testTokens(t), nil)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"名前なし", RegisterInput{Email: "a@example.com", Password: "pw"}},
		{"メールなし", RegisterInput{Name: "Taro", Password: "pw"}},
		{"パスワードなし", RegisterInput{Name: "Taro", Email: "a@example.com"}},
		{"空白のみの名前", RegisterInput{Name: "   ", Email: "a@example.com", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tt.input)
			assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
		})
	}
}

func TestRegister_CaptchaRejected(t *testing.T) {
	userRepo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *model.User) error {
			t.Error("user should not be created when captcha fails")
			return nil
		},
	}
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, tok string) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(nil, userRepo, nil, testTokens(t), verifier)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Taro",
		Email:    "taro@example.com",
		Password: "pw",
	})
	assertAPIErrorCode(t, err, model.ErrCodeCaptchaFailed)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *model.User) error {
			return model.NewEmailTakenError()
		},
	}
	svc := NewService(nil, userRepo, nil, testTokens(t), nil)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Taro",
		Email:    "taken@example.com",
		Password: "pw",
	})
	assertAPIErrorCode(t, err, model.ErrCodeEmailTaken)
}

func TestCurrentUser_Success(t *testing.T) {
	tokens := testTokens(t)
	tok, err := tokens.Issue("user-1", "taro@example.com", "admin")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			if id != "user-1" {
				t.Errorf("unexpected user ID: %s", id)
			}
			return &model.User{ID: "user-1", Role: model.RoleAdmin}, nil
		},
	}
	svc := NewService(nil, userRepo, nil, tokens, nil)

	user, err := svc.CurrentUser(context.Background(), tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin", user.Role)
	}
}

func TestCurrentUser_InvalidToken(t *testing.T) {
	svc := NewService(nil, &mockUserRepo{}, nil, testTokens(t), nil)

	_, err := svc.CurrentUser(context.Background(), "not-a-valid-token")
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

func TestCurrentUser_DeletedUser(t *testing.T) {
	tokens := testTokens(t)
	tok, _ := tokens.Issue("gone-user", "gone@example.com", "user")

	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(nil, userRepo, nil, tokens, nil)

	_, err := svc.CurrentUser(context.Background(), tok)
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

func TestHandleCallback_ExistingUser(t *testing.T) {
	oauth := &mockOAuthProvider{
		exchangeFunc: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return &OAuthUserInfo{
				ProviderUserID: "google-sub-123",
				Email:          "taro@example.com",
				Name:           "Taro",
				Provider:       "google",
			}, nil
		},
	}
	identRepo := &mockIdentityRepo{
		findFunc: func(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
			return &model.Identity{ID: "ident-1", UserID: "user-1"}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: "taro@example.com", Role: model.RoleUser}, nil
		},
		createWithIdentityFunc: func(ctx context.Context, user *model.User, identity *model.Identity) error {
			t.Error("existing user should not be re-created")
			return nil
		},
	}
	tokens := testTokens(t)
	svc := NewService(oauth, userRepo, identRepo, tokens, nil)

	tok, user, err := svc.HandleCallback(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user ID = %q, want user-1", user.ID)
	}
	if _, err := tokens.Verify(tok); err != nil {
		t.Errorf("issued token should verify: %v", err)
	}
}

func TestHandleCallback_NewUser(t *testing.T) {
	oauth := &mockOAuthProvider{
		exchangeFunc: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return &OAuthUserInfo{
				ProviderUserID: "google-sub-456",
				Email:          "hanako@example.com",
				Name:           "Hanako",
				Provider:       "google",
			}, nil
		},
	}
	identRepo := &mockIdentityRepo{
		findFunc: func(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
			return nil, nil
		},
	}
	var createdUser *model.User
	var createdIdentity *model.Identity
	userRepo := &mockUserRepo{
		createWithIdentityFunc: func(ctx context.Context, user *model.User, identity *model.Identity) error {
			createdUser = user
			createdIdentity = identity
			return nil
		},
	}
	svc := NewService(oauth, userRepo, identRepo, testTokens(t), nil)

	_, user, err := svc.HandleCallback(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if createdUser == nil || createdIdentity == nil {
		t.Fatal("user and identity should be created together")
	}
	if createdIdentity.UserID != createdUser.ID {
		t.Error("identity should reference the new user")
	}
	if createdIdentity.Provider != "google" || createdIdentity.ProviderUserID != "google-sub-456" {
		t.Errorf("unexpected identity: %+v", createdIdentity)
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, want user", user.Role)
	}
	if user.PasswordHash != "" {
		t.Error("oauth user should not have a password hash")
	}
}

func TestHandleCallback_ExchangeFails(t *testing.T) {
	oauth := &mockOAuthProvider{
		exchangeFunc: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return nil, errors.New("token exchange failed")
		},
	}
	svc := NewService(oauth, &mockUserRepo{}, &mockIdentityRepo{}, testTokens(t), nil)

	_, _, err := svc.HandleCallback(context.Background(), "bad-code")
	if err == nil {
		t.Fatal("expected error")
	}
}

// assertAPIErrorCode はエラーが期待したコードのAPIErrorであることを検証する。
func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}
