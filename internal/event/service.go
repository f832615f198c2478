// Package event はイベント管理のドメインロジックを提供する。
package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uniway/atlas/internal/model"
	"github.com/uniway/atlas/internal/repository"
)

// Service はイベント管理のサービス層。
type Service struct {
	eventRepo repository.EventRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(eventRepo repository.EventRepository) *Service {
	return &Service{eventRepo: eventRepo}
}

// List は全イベントを開催日時の降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	if events == nil {
		events = []*model.Event{}
	}
	return events, nil
}

// Get は指定IDのイベントを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Event, error) {
	ev, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	if ev == nil {
		return nil, model.NewEventNotFoundError(id)
	}
	return ev, nil
}

// CreateInput はイベント作成のリクエスト内容。
// TimeはRFC3339形式の文字列で受け取り、解析できない場合は作成を拒否する。
type CreateInput struct {
	Name        string
	Time        string
	Location    string
	Host        string
	Description string
}

// Create はイベントを作成する。全フィールドが必須。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.Location) == "" ||
		strings.TrimSpace(input.Host) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, model.NewInvalidRequestError("イベントの全フィールドは必須です")
	}

	eventTime, err := time.Parse(time.RFC3339, input.Time)
	if err != nil {
		return nil, model.NewInvalidEventTimeError(input.Time)
	}

	ev := &model.Event{
		ID:          uuid.New().String(),
		Name:        name,
		Time:        eventTime,
		Location:    input.Location,
		Host:        input.Host,
		Description: input.Description,
	}

	if err := s.eventRepo.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}

	slog.Info("event created",
		slog.String("event_id", ev.ID),
		slog.String("name", ev.Name),
	)
	return ev, nil
}

// Delete はイベントを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.eventRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewEventNotFoundError(id)
	}

	slog.Info("event deleted", slog.String("event_id", id))
	return nil
}
