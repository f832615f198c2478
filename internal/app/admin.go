package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniway/atlas/internal/config"
	"github.com/uniway/atlas/internal/database"
	"github.com/uniway/atlas/internal/model"
	"github.com/uniway/atlas/internal/repository"
)

// adminBcryptCost は管理者パスワードのハッシュ化コスト。通常登録と同じ値。
const adminBcryptCost = 10

// runCreateAdmin は管理者ロールのユーザーを作成する。
// パスワードはシェル履歴に残さないため、引数ではなくADMIN_PASSWORD環境変数で受け取る。
func runCreateAdmin(cfg *config.Config, email, name string) error {
	password := os.Getenv("ADMIN_PASSWORD")

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := createAdminUser(ctx, repository.NewPostgresUserRepo(db), email, password, name)
	if err != nil {
		return err
	}

	slog.Info("admin user created",
		slog.String("user_id", admin.ID),
		slog.String("email", admin.Email),
	)
	return nil
}

// createAdminUser は管理者ユーザー作成の本体。
// メールアドレスが登録済みの場合はエラーを返す（既存ユーザーの昇格は行わない）。
func createAdminUser(ctx context.Context, userRepo repository.UserRepository, email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("usage: create-admin <email> [name] (password via ADMIN_PASSWORD)")
	}
	if password == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD environment variable is not set")
	}
	if strings.TrimSpace(name) == "" {
		name = "Admin User"
	}

	existing, err := userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user %s already exists (role: %s)", email, existing.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), adminBcryptCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := time.Now()
	admin := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		return nil, err
	}

	return admin, nil
}
