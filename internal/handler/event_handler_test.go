package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uniway/atlas/internal/event"
	"github.com/uniway/atlas/internal/model"
)

// --- モック定義 ---

// mockEventService はEventServiceInterfaceのモック実装。
type mockEventService struct {
	listFn   func(ctx context.Context) ([]*model.Event, error)
	getFn    func(ctx context.Context, id string) (*model.Event, error)
	createFn func(ctx context.Context, input event.CreateInput) (*model.Event, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockEventService) List(ctx context.Context) ([]*model.Event, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockEventService) Get(ctx context.Context, id string) (*model.Event, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockEventService) Create(ctx context.Context, input event.CreateInput) (*model.Event, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return nil, nil
}

func (m *mockEventService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func eventTestRouter(h *EventHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/events", h.ListEvents)
	r.Post("/api/events", h.CreateEvent)
	r.Get("/api/events/{id}", h.GetEvent)
	r.Delete("/api/events/{id}", h.DeleteEvent)
	return r
}

func sampleEvent(id, name string, at time.Time) *model.Event {
	return &model.Event{
		ID:          id,
		Name:        name,
		Time:        at,
		Location:    "大講堂",
		Host:        "学生会",
		Description: "年次総会",
	}
}

// --- GET /api/events テスト ---

func TestEventHandler_ListEvents_Success(t *testing.T) {
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	svc := &mockEventService{
		listFn: func(ctx context.Context) ([]*model.Event, error) {
			return []*model.Event{sampleEvent("ev-1", "新歓祭", at)}, nil
		},
	}
	router := eventTestRouter(NewEventHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result []eventResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("result length = %d, want 1", len(result))
	}
	if result[0].ID != "ev-1" || !result[0].Time.Equal(at) {
		t.Errorf("unexpected response: %+v", result[0])
	}
}

// --- GET /api/events/{id} テスト ---

func TestEventHandler_GetEvent_NotFound(t *testing.T) {
	svc := &mockEventService{
		getFn: func(ctx context.Context, id string) (*model.Event, error) {
			return nil, model.NewEventNotFoundError(id)
		},
	}
	router := eventTestRouter(NewEventHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/events/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- POST /api/events テスト ---

func TestEventHandler_CreateEvent_Success(t *testing.T) {
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	svc := &mockEventService{
		createFn: func(ctx context.Context, input event.CreateInput) (*model.Event, error) {
			if input.Name != "新歓祭" {
				t.Errorf("name = %q, want %q", input.Name, "新歓祭")
			}
			if input.Time != "2026-04-01T10:00:00Z" {
				t.Errorf("time = %q", input.Time)
			}
			return sampleEvent("ev-new", input.Name, at), nil
		},
	}
	router := eventTestRouter(NewEventHandler(svc))

	body := `{"name":"新歓祭","time":"2026-04-01T10:00:00Z","location":"大講堂","host":"学生会","description":"年次総会"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestEventHandler_CreateEvent_InvalidTime(t *testing.T) {
	svc := &mockEventService{
		createFn: func(ctx context.Context, input event.CreateInput) (*model.Event, error) {
			return nil, model.NewInvalidEventTimeError(input.Time)
		},
	}
	router := eventTestRouter(NewEventHandler(svc))

	body := `{"name":"新歓祭","time":"not-a-date","location":"大講堂","host":"学生会","description":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- DELETE /api/events/{id} テスト ---

func TestEventHandler_DeleteEvent_Success(t *testing.T) {
	svc := &mockEventService{
		deleteFn: func(ctx context.Context, id string) error {
			if id != "ev-1" {
				t.Errorf("id = %q, want %q", id, "ev-1")
			}
			return nil
		},
	}
	router := eventTestRouter(NewEventHandler(svc))

	req := httptest.NewRequest(http.MethodDelete, "/api/events/ev-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
