// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, location, event, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeLocationNotFound   = "LOCATION_NOT_FOUND"
	ErrCodeEventNotFound      = "EVENT_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeDuplicateFavorite  = "DUPLICATE_FAVORITE"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidEventTime   = "INVALID_EVENT_TIME"
	ErrCodeCaptchaFailed      = "CAPTCHA_FAILED"
	ErrCodeNetworkError       = "NETWORK_ERROR"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレスとパスワードのどちらが誤っていたかは開示しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewLocationNotFoundError は施設未検出エラーを生成する。
func NewLocationNotFoundError(locationID int) *APIError {
	return &APIError{
		Code:     ErrCodeLocationNotFound,
		Message:  fmt.Sprintf("指定された施設が見つかりません: %d", locationID),
		Category: "location",
		Action:   "施設IDを確認してください。",
	}
}

// NewEventNotFoundError はイベント未検出エラーを生成する。
func NewEventNotFoundError(eventID string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("指定されたイベントが見つかりません: %s", eventID),
		Category: "event",
		Action:   "イベントIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewDuplicateFavoriteError はお気に入り重複エラーを生成する。
func NewDuplicateFavoriteError(locationID int) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateFavorite,
		Message:  fmt.Sprintf("この施設は既にお気に入りに登録されています: %d", locationID),
		Category: "location",
		Action:   "お気に入り一覧を確認してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidEventTimeError はイベント日時が解析できない場合のエラーを生成する。
func NewInvalidEventTimeError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEventTime,
		Message:  fmt.Sprintf("イベント日時を解析できません: %s", value),
		Category: "validation",
		Action:   "日時はRFC3339形式（例: 2026-04-01T10:00:00Z）で指定してください。",
	}
}

// NewCaptchaFailedError はボット検証失敗エラーを生成する。
func NewCaptchaFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeCaptchaFailed,
		Message:  "ボット検証に失敗しました。",
		Category: "validation",
		Action:   "ページを再読み込みして再度お試しください。",
	}
}

// NewNetworkError は通信失敗エラーを生成する。リトライ可能として扱う。
func NewNetworkError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeNetworkError,
		Message:  fmt.Sprintf("サーバーとの通信に失敗しました: %s", reason),
		Category: "system",
		Action:   "接続状況を確認して再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternalError,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
