package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uniway/atlas/internal/model"
)

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// ListLocationsByUserID はユーザーがお気に入り登録した施設一覧を登録順で返す。
// 施設が削除されるとお気に入り行もCASCADEで消えるため、宙に浮いた参照は返らない。
func (r *PostgresFavoriteRepo) ListLocationsByUserID(ctx context.Context, userID string) ([]*model.Location, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.location_id, l.name, l.category, l.lat, l.lng, l.hours, l.status, l.created_at, l.updated_at
		 FROM favorites f
		 JOIN locations l ON l.location_id = f.location_id
		 WHERE f.user_id = $1
		 ORDER BY f.created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var locs []*model.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("お気に入り行の読み取りに失敗しました: %w", err)
		}
		locs = append(locs, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("お気に入り一覧の走査に失敗しました: %w", err)
	}
	return locs, nil
}

// Create はお気に入りを作成する。
// (user, location)の一意制約違反はDUPLICATE_FAVORITEのAPIErrorに変換する。
func (r *PostgresFavoriteRepo) Create(ctx context.Context, fav *model.Favorite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (id, user_id, location_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		fav.ID, fav.UserID, fav.LocationID, fav.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDuplicateFavoriteError(fav.LocationID)
		}
		return fmt.Errorf("お気に入りの作成に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定ユーザー・施設のお気に入りを削除する。該当行がなくてもエラーにしない。
func (r *PostgresFavoriteRepo) Delete(ctx context.Context, userID string, locationID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND location_id = $2`,
		userID, locationID,
	)
	if err != nil {
		return fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	return nil
}

// CountByUserID はユーザーのお気に入り数を返す。
func (r *PostgresFavoriteRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("お気に入り数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
