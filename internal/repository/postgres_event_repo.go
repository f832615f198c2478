package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uniway/atlas/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// List は全イベントを開催日時の降順で返す。
func (r *PostgresEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, time, location, host, description, created_at, updated_at
		 FROM events ORDER BY time DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		ev := &model.Event{}
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Time, &ev.Location, &ev.Host, &ev.Description, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, fmt.Errorf("イベント行の読み取りに失敗しました: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の走査に失敗しました: %w", err)
	}
	return events, nil
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	ev := &model.Event{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, time, location, host, description, created_at, updated_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&ev.ID, &ev.Name, &ev.Time, &ev.Location, &ev.Host, &ev.Description, &ev.CreatedAt, &ev.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}

	return ev, nil
}

// Create はイベントを作成する。作成時のタイムスタンプをevに書き戻す。
func (r *PostgresEventRepo) Create(ctx context.Context, ev *model.Event) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO events (id, name, time, location, host, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		ev.ID, ev.Name, ev.Time, ev.Location, ev.Host, ev.Description,
	).Scan(&ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのイベントを削除する。削除した場合はtrueを返す。
func (r *PostgresEventRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
