package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/uniway/atlas/internal/middleware"
	"github.com/uniway/atlas/internal/model"
)

// --- モック定義 ---

// mockFavoriteService はFavoriteServiceInterfaceのモック実装。
type mockFavoriteService struct {
	listFn   func(ctx context.Context, userID string) ([]*model.Location, error)
	addFn    func(ctx context.Context, userID string, locationID int) error
	removeFn func(ctx context.Context, userID string, locationID int) error
}

func (m *mockFavoriteService) List(ctx context.Context, userID string) ([]*model.Location, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFavoriteService) Add(ctx context.Context, userID string, locationID int) error {
	if m.addFn != nil {
		return m.addFn(ctx, userID, locationID)
	}
	return nil
}

func (m *mockFavoriteService) Remove(ctx context.Context, userID string, locationID int) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, locationID)
	}
	return nil
}

// withSession はリクエストにセッション情報を注入する。
func withSession(req *http.Request, userID string) *http.Request {
	info := &model.SessionInfo{UserID: userID, Email: "taro@example.com", Role: model.RoleUser}
	return req.WithContext(middleware.ContextWithSession(req.Context(), info))
}

// --- GET /api/favorites テスト ---

func TestFavoriteHandler_ListFavorites_Success(t *testing.T) {
	svc := &mockFavoriteService{
		listFn: func(ctx context.Context, userID string) ([]*model.Location, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			return []*model.Location{sampleLocation(1, "中央図書館")}, nil
		},
	}
	h := NewFavoriteHandler(svc)

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/favorites", nil), "user-123")
	w := httptest.NewRecorder()
	h.ListFavorites(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result []locationResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result) != 1 || result[0].ID != 1 {
		t.Errorf("unexpected response: %+v", result)
	}
}

func TestFavoriteHandler_ListFavorites_NoSession(t *testing.T) {
	h := NewFavoriteHandler(&mockFavoriteService{})

	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	w := httptest.NewRecorder()
	h.ListFavorites(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- POST /api/favorites テスト ---

func TestFavoriteHandler_AddFavorite_Success(t *testing.T) {
	svc := &mockFavoriteService{
		addFn: func(ctx context.Context, userID string, locationID int) error {
			if userID != "user-123" || locationID != 7 {
				t.Errorf("userID = %q, locationID = %d", userID, locationID)
			}
			return nil
		},
	}
	h := NewFavoriteHandler(svc)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewBufferString(`{"locationId":7}`)), "user-123")
	w := httptest.NewRecorder()
	h.AddFavorite(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestFavoriteHandler_AddFavorite_LocationNotFound(t *testing.T) {
	svc := &mockFavoriteService{
		addFn: func(ctx context.Context, userID string, locationID int) error {
			return model.NewLocationNotFoundError(locationID)
		},
	}
	h := NewFavoriteHandler(svc)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewBufferString(`{"locationId":999}`)), "user-123")
	w := httptest.NewRecorder()
	h.AddFavorite(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestFavoriteHandler_AddFavorite_UserVanished(t *testing.T) {
	svc := &mockFavoriteService{
		addFn: func(ctx context.Context, userID string, locationID int) error {
			return model.NewUserNotFoundError()
		},
	}
	h := NewFavoriteHandler(svc)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewBufferString(`{"locationId":1}`)), "gone-user")
	w := httptest.NewRecorder()
	h.AddFavorite(w, req)

	// セッションは有効だがユーザーが削除済みの場合は404
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestFavoriteHandler_AddFavorite_InvalidBody(t *testing.T) {
	h := NewFavoriteHandler(&mockFavoriteService{})

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewBufferString("{broken")), "user-123")
	w := httptest.NewRecorder()
	h.AddFavorite(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- DELETE /api/favorites テスト ---

func TestFavoriteHandler_RemoveFavorite_Success(t *testing.T) {
	svc := &mockFavoriteService{
		removeFn: func(ctx context.Context, userID string, locationID int) error {
			if locationID != 7 {
				t.Errorf("locationID = %d, want 7", locationID)
			}
			return nil
		},
	}
	h := NewFavoriteHandler(svc)

	req := withSession(httptest.NewRequest(http.MethodDelete, "/api/favorites", bytes.NewBufferString(`{"locationId":7}`)), "user-123")
	w := httptest.NewRecorder()
	h.RemoveFavorite(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result["success"] {
		t.Error("success = false, want true")
	}
}

func TestFavoriteHandler_RemoveFavorite_NoSession(t *testing.T) {
	h := NewFavoriteHandler(&mockFavoriteService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/favorites", bytes.NewBufferString(`{"locationId":7}`))
	w := httptest.NewRecorder()
	h.RemoveFavorite(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
