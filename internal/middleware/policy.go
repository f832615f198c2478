package middleware

import (
	"github.com/uniway/atlas/internal/model"
)

// RequireAdmin はセッションが管理者権限を持つことを検証する。
// 管理者ルートのゲートと各ハンドラーの両方から同じ判定を使う。
func RequireAdmin(info *model.SessionInfo) error {
	if info == nil {
		return model.NewUnauthorizedError()
	}
	if info.Role != model.RoleAdmin {
		return model.NewForbiddenError()
	}
	return nil
}
