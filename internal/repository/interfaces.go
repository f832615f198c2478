// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/uniway/atlas/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが既に登録されている場合はEMAIL_TAKENのAPIErrorを返す。
	Create(ctx context.Context, user *model.User) error

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	// OAuth初回ログイン時の自動登録で使用する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// LocationRepository は施設データの永続化インターフェース。
type LocationRepository interface {
	// List は全施設を名前昇順で返す。
	List(ctx context.Context) ([]*model.Location, error)

	// FindByLocationID は公開用の安定IDで施設を取得する。見つからない場合はnilを返す。
	FindByLocationID(ctx context.Context, locationID int) (*model.Location, error)

	// Create は施設を作成する。
	// loc.LocationIDが0の場合はシーケンスで採番し、結果をlocに書き戻す。
	// 正の値が指定されている場合（シードデータ投入）はその値をそのまま使用する。
	Create(ctx context.Context, loc *model.Location) error

	// UpdatePartial は施設を部分更新する。nilのフィールドは変更しない。
	// 更新後の施設を返す。該当行がない場合はnilを返す。
	UpdatePartial(ctx context.Context, locationID int, patch model.LocationPatch) (*model.Location, error)

	// Delete は指定IDの施設を削除する。削除した場合はtrueを返す。
	// 該当行がない場合はfalseを返す（冪等）。関連するお気に入りはCASCADE削除される。
	Delete(ctx context.Context, locationID int) (bool, error)
}

// EventRepository はイベントデータの永続化インターフェース。
type EventRepository interface {
	// List は全イベントを開催日時の降順で返す。
	List(ctx context.Context) ([]*model.Event, error)

	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// Create はイベントを作成する。
	Create(ctx context.Context, event *model.Event) error

	// Delete は指定IDのイベントを削除する。削除した場合はtrueを返す。
	// 該当行がない場合はfalseを返す（冪等）。
	Delete(ctx context.Context, id string) (bool, error)
}

// FavoriteRepository はお気に入りデータの永続化インターフェース。
type FavoriteRepository interface {
	// ListLocationsByUserID はユーザーがお気に入り登録した施設一覧を
	// 登録順（古い順）で返す。
	ListLocationsByUserID(ctx context.Context, userID string) ([]*model.Location, error)

	// Create はお気に入りを作成する。
	// 同じ(user, location)の組が既に存在する場合はDUPLICATE_FAVORITEのAPIErrorを返す。
	Create(ctx context.Context, fav *model.Favorite) error

	// Delete は指定ユーザー・施設のお気に入りを削除する。
	// 該当行がなくてもエラーにしない（冪等）。
	Delete(ctx context.Context, userID string, locationID int) error

	// CountByUserID はユーザーのお気に入り数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)
}
