package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/uniway/atlas/internal/config"
	"github.com/uniway/atlas/internal/database"
	"github.com/uniway/atlas/internal/model"
	"github.com/uniway/atlas/internal/repository"
)

// seedLocation はシードファイルの1施設分のエントリ。
type seedLocation struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Coordinates [2]float64 `json:"coordinates"`
	Hours       string     `json:"hours"`
	Status      string     `json:"status"`
}

// runSeed はJSONファイルから施設の初期データを投入する。
// 施設IDはファイルの明示的なIDをそのまま使用し、投入後にシーケンスを進める。
// 既存のIDと衝突するエントリはスキップして続行する。
func runSeed(cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var entries []seedLocation
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	locRepo := repository.NewPostgresLocationRepo(db)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	inserted := 0
	skipped := 0
	for _, entry := range entries {
		status := model.LocationStatus(entry.Status)
		if entry.Status == "" {
			status = model.LocationStatusOpen
		}
		if !model.IsValidLocationStatus(status) {
			return fmt.Errorf("invalid status %q for location %d", entry.Status, entry.ID)
		}

		hours := entry.Hours
		if hours == "" {
			hours = "N/A"
		}

		loc := &model.Location{
			ID:          uuid.New().String(),
			LocationID:  entry.ID,
			Name:        entry.Name,
			Category:    entry.Category,
			Coordinates: model.Coordinates(entry.Coordinates),
			Hours:       hours,
			Status:      status,
		}

		if err := locRepo.Create(ctx, loc); err != nil {
			var apiErr *model.APIError
			if errors.As(err, &apiErr) {
				// ID重複は再実行を許容するためスキップする
				slog.Warn("skipping existing location",
					slog.Int("location_id", entry.ID),
					slog.String("name", entry.Name),
				)
				skipped++
				continue
			}
			return fmt.Errorf("failed to seed location %d: %w", entry.ID, err)
		}
		inserted++
	}

	// 明示的なIDで投入したため、採番シーケンスを最大値まで進める
	if err := advanceLocationSequence(ctx, db); err != nil {
		return err
	}

	slog.Info("seed completed",
		slog.Int("inserted", inserted),
		slog.Int("skipped", skipped),
	)
	return nil
}

// advanceLocationSequence は施設ID採番シーケンスを既存の最大IDに合わせる。
func advanceLocationSequence(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx,
		`SELECT setval('location_ids', GREATEST((SELECT COALESCE(MAX(location_id), 0) FROM locations), 1))`,
	)
	if err != nil {
		return fmt.Errorf("failed to advance location id sequence: %w", err)
	}
	return nil
}
