// Package model はドメインモデルを定義する。
package model

import "time"

// LocationStatus は施設の開館状態を表す。
type LocationStatus string

const (
	// LocationStatusOpen は開館中。未指定の場合のデフォルト値。
	LocationStatusOpen LocationStatus = "OPEN"
	// LocationStatusMaintenance はメンテナンス中。
	LocationStatusMaintenance LocationStatus = "MAINTENANCE"
	// LocationStatusClose は閉館中。
	LocationStatusClose LocationStatus = "CLOSE"
)

// IsValidLocationStatus はstatusが定義済みの値かどうかを返す。
func IsValidLocationStatus(s LocationStatus) bool {
	switch s {
	case LocationStatusOpen, LocationStatusMaintenance, LocationStatusClose:
		return true
	}
	return false
}

// Coordinates は緯度・経度のペアを表す。
// JSONでは [lat, lng] の2要素配列として表現される。
type Coordinates [2]float64

// Location はキャンパス内の施設を表す。
// LocationIDは作成時に一度だけ採番される安定した整数IDで、以後変更されない。
// 行の内部IDとは別物としてクライアントに公開される。
type Location struct {
	ID          string // 内部行ID
	LocationID  int    // 公開用の安定ID
	Name        string
	Category    string
	Coordinates Coordinates
	Hours       string
	Status      LocationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LocationPatch は施設の部分更新を表す。nilのフィールドは変更しない。
type LocationPatch struct {
	Name        *string
	Category    *string
	Coordinates *Coordinates
	Hours       *string
	Status      *LocationStatus
}
