// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/uniway/atlas/internal/location"
	"github.com/uniway/atlas/internal/model"
)

// LocationServiceInterface は施設ハンドラーが必要とするサービスインターフェース。
type LocationServiceInterface interface {
	List(ctx context.Context) ([]*model.Location, error)
	Get(ctx context.Context, locationID int) (*model.Location, error)
	Create(ctx context.Context, input location.CreateInput) (*model.Location, error)
	Update(ctx context.Context, locationID int, input location.UpdateInput) (*model.Location, error)
	Delete(ctx context.Context, locationID int) error
}

// LocationHandler は施設管理のHTTPハンドラー。
type LocationHandler struct {
	service LocationServiceInterface
}

// NewLocationHandler はLocationHandlerを生成する。
func NewLocationHandler(service LocationServiceInterface) *LocationHandler {
	return &LocationHandler{service: service}
}

// locationResponse は施設のAPIレスポンス。
// idは公開用の整数ID。coordinatesは[lat, lng]の2要素配列。
type locationResponse struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Coordinates [2]float64 `json:"coordinates"`
	Hours       string     `json:"hours"`
	Status      string     `json:"status"`
}

// createLocationRequest は施設作成リクエストのボディ。
type createLocationRequest struct {
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Coordinates *[2]float64 `json:"coordinates"`
	Hours       string      `json:"hours"`
	Status      string      `json:"status"`
}

// updateLocationRequest は施設部分更新リクエストのボディ。nilのフィールドは変更しない。
type updateLocationRequest struct {
	Name        *string     `json:"name"`
	Category    *string     `json:"category"`
	Coordinates *[2]float64 `json:"coordinates"`
	Hours       *string     `json:"hours"`
	Status      *string     `json:"status"`
}

// locationIDFromURL はパスパラメータの施設IDを検証付きで取り出す。
// 数値でないIDはビジネスロジックに到達する前に400で弾く。
func locationIDFromURL(r *http.Request) (int, *model.APIError) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewInvalidRequestError("施設IDは整数で指定してください: " + raw)
	}
	return id, nil
}

// ListLocations は全施設を返す。
// GET /api/locations
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLocationResponses(locs))
}

// GetLocation は指定IDの施設を返す。
// GET /api/locations/{id}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, apiErr := locationIDFromURL(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	loc, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLocationResponse(loc))
}

// CreateLocation は施設を作成する。
// POST /api/locations
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	input := location.CreateInput{
		Name:     req.Name,
		Category: req.Category,
		Hours:    req.Hours,
		Status:   req.Status,
	}
	if req.Coordinates != nil {
		input.Coordinates = model.Coordinates(*req.Coordinates)
	}

	loc, err := h.service.Create(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLocationResponse(loc))
}

// UpdateLocation は施設を部分更新する。
// PATCH /api/locations/{id}
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, apiErr := locationIDFromURL(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	input := location.UpdateInput{
		Name:     req.Name,
		Category: req.Category,
		Hours:    req.Hours,
		Status:   req.Status,
	}
	if req.Coordinates != nil {
		coords := model.Coordinates(*req.Coordinates)
		input.Coordinates = &coords
	}

	loc, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLocationResponse(loc))
}

// DeleteLocation は施設を削除する。
// DELETE /api/locations/{id}
func (h *LocationHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, apiErr := locationIDFromURL(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- ヘルパー関数 ---

// toLocationResponse はmodel.LocationからAPIレスポンスに変換する。
func toLocationResponse(loc *model.Location) locationResponse {
	return locationResponse{
		ID:          loc.LocationID,
		Name:        loc.Name,
		Category:    loc.Category,
		Coordinates: [2]float64(loc.Coordinates),
		Hours:       loc.Hours,
		Status:      string(loc.Status),
	}
}

func toLocationResponses(locs []*model.Location) []locationResponse {
	out := make([]locationResponse, len(locs))
	for i, loc := range locs {
		out[i] = toLocationResponse(loc)
	}
	return out
}
