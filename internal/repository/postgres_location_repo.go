package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uniway/atlas/internal/model"
)

// PostgresLocationRepo はPostgreSQLを使用した施設リポジトリ。
type PostgresLocationRepo struct {
	db *sql.DB
}

// NewPostgresLocationRepo はPostgresLocationRepoを生成する。
func NewPostgresLocationRepo(db *sql.DB) *PostgresLocationRepo {
	return &PostgresLocationRepo{db: db}
}

// scanLocation は1行分の施設データを読み取る。
func scanLocation(row interface{ Scan(...any) error }) (*model.Location, error) {
	loc := &model.Location{}
	err := row.Scan(
		&loc.ID, &loc.LocationID, &loc.Name, &loc.Category,
		&loc.Coordinates[0], &loc.Coordinates[1],
		&loc.Hours, &loc.Status, &loc.CreatedAt, &loc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// List は全施設を名前昇順で返す。
func (r *PostgresLocationRepo) List(ctx context.Context) ([]*model.Location, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, location_id, name, category, lat, lng, hours, status, created_at, updated_at
		 FROM locations ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("施設一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var locs []*model.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("施設行の読み取りに失敗しました: %w", err)
		}
		locs = append(locs, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("施設一覧の走査に失敗しました: %w", err)
	}
	return locs, nil
}

// FindByLocationID は公開用の安定IDで施設を取得する。見つからない場合はnilを返す。
func (r *PostgresLocationRepo) FindByLocationID(ctx context.Context, locationID int) (*model.Location, error) {
	loc, err := scanLocation(r.db.QueryRowContext(ctx,
		`SELECT id, location_id, name, category, lat, lng, hours, status, created_at, updated_at
		 FROM locations WHERE location_id = $1`,
		locationID,
	))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("施設の取得に失敗しました: %w", err)
	}

	return loc, nil
}

// Create は施設を作成する。
// loc.LocationIDが0の場合はシーケンスで採番し、採番結果とタイムスタンプをlocに書き戻す。
// 採番をデータベースに委譲することで、並行作成時のID重複を防ぐ。
func (r *PostgresLocationRepo) Create(ctx context.Context, loc *model.Location) error {
	var err error
	if loc.LocationID > 0 {
		// シードデータ投入など、既知のIDをそのまま使用する場合
		err = r.db.QueryRowContext(ctx,
			`INSERT INTO locations (id, location_id, name, category, lat, lng, hours, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING location_id, created_at, updated_at`,
			loc.ID, loc.LocationID, loc.Name, loc.Category,
			loc.Coordinates[0], loc.Coordinates[1], loc.Hours, loc.Status,
		).Scan(&loc.LocationID, &loc.CreatedAt, &loc.UpdatedAt)
	} else {
		err = r.db.QueryRowContext(ctx,
			`INSERT INTO locations (id, name, category, lat, lng, hours, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING location_id, created_at, updated_at`,
			loc.ID, loc.Name, loc.Category,
			loc.Coordinates[0], loc.Coordinates[1], loc.Hours, loc.Status,
		).Scan(&loc.LocationID, &loc.CreatedAt, &loc.UpdatedAt)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewInvalidRequestError(fmt.Sprintf("施設ID %d は既に使用されています", loc.LocationID))
		}
		return fmt.Errorf("施設の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdatePartial は施設を部分更新する。nilのフィールドは変更しない。
// 該当行がない場合はnilを返す。
func (r *PostgresLocationRepo) UpdatePartial(ctx context.Context, locationID int, patch model.LocationPatch) (*model.Location, error) {
	var lat, lng *float64
	if patch.Coordinates != nil {
		lat = &patch.Coordinates[0]
		lng = &patch.Coordinates[1]
	}
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	loc, err := scanLocation(r.db.QueryRowContext(ctx,
		`UPDATE locations SET
			name = COALESCE($2, name),
			category = COALESCE($3, category),
			lat = COALESCE($4, lat),
			lng = COALESCE($5, lng),
			hours = COALESCE($6, hours),
			status = COALESCE($7, status),
			updated_at = NOW()
		 WHERE location_id = $1
		 RETURNING id, location_id, name, category, lat, lng, hours, status, created_at, updated_at`,
		locationID, patch.Name, patch.Category, lat, lng, patch.Hours, status,
	))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("施設の更新に失敗しました: %w", err)
	}

	return loc, nil
}

// Delete は指定IDの施設を削除する。削除した場合はtrueを返す。
// 関連するお気に入りは外部キーのCASCADEで一緒に削除される。
func (r *PostgresLocationRepo) Delete(ctx context.Context, locationID int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM locations WHERE location_id = $1`,
		locationID,
	)
	if err != nil {
		return false, fmt.Errorf("施設の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ LocationRepository = (*PostgresLocationRepo)(nil)
