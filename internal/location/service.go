// Package location は施設管理のドメインロジックを提供する。
package location

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/uniway/atlas/internal/model"
	"github.com/uniway/atlas/internal/repository"
)

// defaultHours は営業時間が未指定の場合の表示値。
const defaultHours = "N/A"

// Service は施設管理のサービス層。
// 施設の一覧取得、作成、部分更新、削除のビジネスロジックを提供する。
type Service struct {
	locRepo repository.LocationRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(locRepo repository.LocationRepository) *Service {
	return &Service{locRepo: locRepo}
}

// List は全施設を名前昇順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Location, error) {
	locs, err := s.locRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("施設一覧の取得に失敗しました: %w", err)
	}
	if locs == nil {
		locs = []*model.Location{}
	}
	return locs, nil
}

// Get は公開用の安定IDで施設を取得する。
func (s *Service) Get(ctx context.Context, locationID int) (*model.Location, error) {
	loc, err := s.locRepo.FindByLocationID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("施設の取得に失敗しました: %w", err)
	}
	if loc == nil {
		return nil, model.NewLocationNotFoundError(locationID)
	}
	return loc, nil
}

// CreateInput は施設作成のリクエスト内容。
type CreateInput struct {
	Name        string
	Category    string
	Coordinates model.Coordinates
	Hours       string
	Status      string
}

// Create は施設を作成する。
// ステータス未指定時はOPEN、営業時間未指定時はN/Aを補完する。
// 公開用IDの採番はリポジトリ（データベースのシーケンス）に委譲する。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Location, error) {
	name := strings.TrimSpace(input.Name)
	category := strings.TrimSpace(input.Category)
	if name == "" || category == "" {
		return nil, model.NewInvalidRequestError("施設名とカテゴリは必須です")
	}

	status := model.LocationStatus(input.Status)
	if input.Status == "" {
		status = model.LocationStatusOpen
	} else if !model.IsValidLocationStatus(status) {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("不正なステータスです: %s", input.Status))
	}

	hours := input.Hours
	if strings.TrimSpace(hours) == "" {
		hours = defaultHours
	}

	loc := &model.Location{
		ID:          uuid.New().String(),
		Name:        name,
		Category:    category,
		Coordinates: input.Coordinates,
		Hours:       hours,
		Status:      status,
	}

	if err := s.locRepo.Create(ctx, loc); err != nil {
		return nil, err
	}

	slog.Info("location created",
		slog.Int("location_id", loc.LocationID),
		slog.String("name", loc.Name),
	)
	return loc, nil
}

// UpdateInput は施設の部分更新内容。nilのフィールドは変更しない。
type UpdateInput struct {
	Name        *string
	Category    *string
	Coordinates *model.Coordinates
	Hours       *string
	Status      *string
}

// Update は施設を部分更新する。指定されたフィールドのみを変更する。
func (s *Service) Update(ctx context.Context, locationID int, input UpdateInput) (*model.Location, error) {
	patch := model.LocationPatch{
		Name:        input.Name,
		Category:    input.Category,
		Coordinates: input.Coordinates,
		Hours:       input.Hours,
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, model.NewInvalidRequestError("施設名を空にはできません")
	}
	if input.Status != nil {
		status := model.LocationStatus(*input.Status)
		if !model.IsValidLocationStatus(status) {
			return nil, model.NewInvalidRequestError(fmt.Sprintf("不正なステータスです: %s", *input.Status))
		}
		patch.Status = &status
	}

	loc, err := s.locRepo.UpdatePartial(ctx, locationID, patch)
	if err != nil {
		return nil, fmt.Errorf("施設の更新に失敗しました: %w", err)
	}
	if loc == nil {
		return nil, model.NewLocationNotFoundError(locationID)
	}

	slog.Info("location updated", slog.Int("location_id", locationID))
	return loc, nil
}

// Delete は施設を削除する。関連するお気に入りも一緒に削除される。
func (s *Service) Delete(ctx context.Context, locationID int) error {
	deleted, err := s.locRepo.Delete(ctx, locationID)
	if err != nil {
		return fmt.Errorf("施設の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewLocationNotFoundError(locationID)
	}

	slog.Info("location deleted", slog.Int("location_id", locationID))
	return nil
}
