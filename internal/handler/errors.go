package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/uniway/atlas/internal/middleware"
	"github.com/uniway/atlas/internal/model"
)

// writeAPIErrorResponse は統一エラーフォーマット {error, statusCode} でエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeJSON は成功レスポンスをJSONで書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う。詳細はログのみ
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeLocationNotFound, model.ErrCodeEventNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeEmailTaken, model.ErrCodeDuplicateFavorite:
		return http.StatusConflict
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidEventTime, model.ErrCodeCaptchaFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
