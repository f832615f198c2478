package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/uniway/atlas/internal/middleware"
	"github.com/uniway/atlas/internal/model"
)

// FavoriteServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type FavoriteServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.Location, error)
	Add(ctx context.Context, userID string, locationID int) error
	Remove(ctx context.Context, userID string, locationID int) error
}

// FavoriteHandler はお気に入り管理のHTTPハンドラー。
// すべての操作でセッションが必須。
type FavoriteHandler struct {
	service FavoriteServiceInterface
}

// NewFavoriteHandler はFavoriteHandlerを生成する。
func NewFavoriteHandler(service FavoriteServiceInterface) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// favoriteRequest はお気に入り追加・削除リクエストのボディ。
type favoriteRequest struct {
	LocationID int `json:"locationId"`
}

// ListFavorites はセッションユーザーのお気に入り施設一覧を返す。
// GET /api/favorites
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	locs, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLocationResponses(locs))
}

// AddFavorite は施設をお気に入りに追加する。
// POST /api/favorites
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.service.Add(r.Context(), userID, req.LocationID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// RemoveFavorite は施設をお気に入りから削除する。
// DELETE /api/favorites
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.service.Remove(r.Context(), userID, req.LocationID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
