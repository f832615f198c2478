// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限を表す。
type Role string

const (
	// RoleUser は一般ユーザー権限。
	RoleUser Role = "user"
	// RoleAdmin は管理者権限。管理画面とその配下のAPIにアクセスできる。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// PasswordHashはクライアントに返してはならない。
// OAuth経由で作成されたユーザーはPasswordHashが空になる。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
// 将来的に複数のIdP（Google, GitHub等）に対応可能な構造。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// SessionInfo は署名付きトークンから復元したセッション情報を表す。
// サーバー側にセッションストアは持たない。
type SessionInfo struct {
	UserID string
	Email  string
	Role   Role
}
