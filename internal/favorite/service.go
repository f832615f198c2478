// Package favorite はお気に入り管理のドメインロジックを提供する。
package favorite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/uniway/atlas/internal/model"
	"github.com/uniway/atlas/internal/repository"
)

// Service はお気に入り管理のサービス層。
// お気に入りはセッションユーザー本人のものだけを操作できる。
type Service struct {
	favRepo  repository.FavoriteRepository
	locRepo  repository.LocationRepository
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	favRepo repository.FavoriteRepository,
	locRepo repository.LocationRepository,
	userRepo repository.UserRepository,
) *Service {
	return &Service{
		favRepo:  favRepo,
		locRepo:  locRepo,
		userRepo: userRepo,
	}
}

// List はユーザーがお気に入り登録した施設一覧を登録順で返す。
// トークンは有効だがユーザーが削除済みの場合はUSER_NOT_FOUNDを返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Location, error) {
	if err := s.ensureUserExists(ctx, userID); err != nil {
		return nil, err
	}

	locs, err := s.favRepo.ListLocationsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}
	if locs == nil {
		locs = []*model.Location{}
	}
	return locs, nil
}

// Add は施設をお気に入りに追加する。
// 既に登録済みの場合は何もしない（冪等）。施設が存在しない場合はLOCATION_NOT_FOUNDを返す。
func (s *Service) Add(ctx context.Context, userID string, locationID int) error {
	if err := s.ensureUserExists(ctx, userID); err != nil {
		return err
	}

	loc, err := s.locRepo.FindByLocationID(ctx, locationID)
	if err != nil {
		return fmt.Errorf("施設の確認に失敗しました: %w", err)
	}
	if loc == nil {
		return model.NewLocationNotFoundError(locationID)
	}

	fav := &model.Favorite{
		ID:         uuid.New().String(),
		UserID:     userID,
		LocationID: locationID,
		CreatedAt:  time.Now(),
	}

	if err := s.favRepo.Create(ctx, fav); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeDuplicateFavorite {
			// 二重登録は成功扱い
			return nil
		}
		return err
	}

	slog.Info("favorite added",
		slog.String("user_id", userID),
		slog.Int("location_id", locationID),
	)
	return nil
}

// Remove は施設をお気に入りから削除する。該当がなくてもエラーにしない（冪等）。
func (s *Service) Remove(ctx context.Context, userID string, locationID int) error {
	if err := s.ensureUserExists(ctx, userID); err != nil {
		return err
	}

	if err := s.favRepo.Delete(ctx, userID, locationID); err != nil {
		return fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}

	slog.Info("favorite removed",
		slog.String("user_id", userID),
		slog.Int("location_id", locationID),
	)
	return nil
}

// Count はユーザーのお気に入り数を返す。
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	count, err := s.favRepo.CountByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("お気に入り数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// ensureUserExists はセッションのユーザーがまだ存在することを確認する。
func (s *Service) ensureUserExists(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの確認に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}
	return nil
}
