package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uniway/atlas/internal/event"
	"github.com/uniway/atlas/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	List(ctx context.Context) ([]*model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	Create(ctx context.Context, input event.CreateInput) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{service: service}
}

// eventResponse はイベントのAPIレスポンス。timeはRFC3339形式。
type eventResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Time        time.Time `json:"time"`
	Location    string    `json:"location"`
	Host        string    `json:"host"`
	Description string    `json:"description"`
}

// createEventRequest はイベント作成リクエストのボディ。全フィールド必須。
type createEventRequest struct {
	Name        string `json:"name"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Host        string `json:"host"`
	Description string `json:"description"`
}

// ListEvents は全イベントを開催日時の降順で返す。
// GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponses(events))
}

// GetEvent は指定IDのイベントを返す。
// GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(ev))
}

// CreateEvent はイベントを作成する。
// POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	ev, err := h.service.Create(r.Context(), event.CreateInput{
		Name:        req.Name,
		Time:        req.Time,
		Location:    req.Location,
		Host:        req.Host,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(ev))
}

// DeleteEvent はイベントを削除する。
// DELETE /api/events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- ヘルパー関数 ---

func toEventResponse(ev *model.Event) eventResponse {
	return eventResponse{
		ID:          ev.ID,
		Name:        ev.Name,
		Time:        ev.Time,
		Location:    ev.Location,
		Host:        ev.Host,
		Description: ev.Description,
	}
}

func toEventResponses(events []*model.Event) []eventResponse {
	out := make([]eventResponse, len(events))
	for i, ev := range events {
		out[i] = toEventResponse(ev)
	}
	return out
}
