package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/uniway/atlas/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// statusCodeはクライアント側の分岐（401→再ログイン、404→未検出表示）に使われる。
type ErrorResponseBody struct {
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Error:      apiErr.Message,
		StatusCode: statusCode,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
