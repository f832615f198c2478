// Package model はドメインモデルを定義する。
package model

import "time"

// Event はキャンパスイベントを表す。
// 全フィールドが作成時に必須で、Timeは有効な日時に解析できなければならない。
type Event struct {
	ID          string
	Name        string
	Time        time.Time
	Location    string // 開催場所（自由記述）
	Host        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Favorite はユーザーと施設のお気に入り関係を表す。
// (UserID, LocationID) の組み合わせで一意。
type Favorite struct {
	ID         string
	UserID     string
	LocationID int
	CreatedAt  time.Time
}
