// Package client はREST APIの型付きHTTPクライアントを提供する。
// storeパッケージのSourceとして注入して使う。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/uniway/atlas/internal/model"
	"github.com/uniway/atlas/internal/store"
)

// compile-time interface check
var _ store.Source = (*Client)(nil)

// defaultTimeout はHTTPリクエスト全体のタイムアウト。
const defaultTimeout = 10 * time.Second

// sessionCookieName はサーバー側のセッションCookie名と一致させる。
const sessionCookieName = "session_token"

// Client はバックエンドAPIの型付きクライアント。
// ゴルーチン間で共有できる。セッショントークンはロックで保護する。
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu           sync.RWMutex
	sessionToken string
}

// NewClient はClientを生成する。
// httpClientがnilの場合はデフォルトタイムアウト付きのクライアントを使用する。
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// SetSessionToken は以降のリクエストに付与するセッショントークンを設定する。
// Login成功時には自動的に設定される。
func (c *Client) SetSessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionToken = token
}

// currentSessionToken は設定済みのセッショントークンを返す。未設定の場合は空文字列。
func (c *Client) currentSessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken
}

// IsRetryable はリトライ可能なエラー（通信失敗）かどうかを判定する。
func IsRetryable(err error) bool {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == model.ErrCodeNetworkError
	}
	return false
}

// locationPayload は施設エンドポイントのリクエスト・レスポンスボディ。
type locationPayload struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Coordinates [2]float64 `json:"coordinates"`
	Hours       string     `json:"hours"`
	Status      string     `json:"status"`
}

// LocationInput は施設作成のリクエスト内容。
type LocationInput struct {
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Coordinates [2]float64 `json:"coordinates"`
	Hours       string     `json:"hours,omitempty"`
	Status      string     `json:"status,omitempty"`
}

// LocationUpdateInput は施設部分更新のリクエスト内容。nilのフィールドは送信しない。
type LocationUpdateInput struct {
	Name        *string     `json:"name,omitempty"`
	Category    *string     `json:"category,omitempty"`
	Coordinates *[2]float64 `json:"coordinates,omitempty"`
	Hours       *string     `json:"hours,omitempty"`
	Status      *string     `json:"status,omitempty"`
}

// EventInput はイベント作成のリクエスト内容。
type EventInput struct {
	Name        string `json:"name"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Host        string `json:"host"`
	Description string `json:"description"`
}

// --- 施設 ---

// FetchLocations は全施設を取得する。store.Sourceを満たす。
func (c *Client) FetchLocations(ctx context.Context) ([]*model.Location, error) {
	var payload []locationPayload
	if err := c.do(ctx, http.MethodGet, "/api/locations", nil, &payload, ""); err != nil {
		return nil, err
	}
	locs := make([]*model.Location, len(payload))
	for i, p := range payload {
		locs[i] = toLocation(p)
	}
	return locs, nil
}

// GetLocation は指定IDの施設を取得する。
func (c *Client) GetLocation(ctx context.Context, locationID int) (*model.Location, error) {
	var payload locationPayload
	path := fmt.Sprintf("/api/locations/%d", locationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload, model.ErrCodeLocationNotFound); err != nil {
		return nil, err
	}
	return toLocation(payload), nil
}

// CreateLocation は施設を作成する。
func (c *Client) CreateLocation(ctx context.Context, input LocationInput) (*model.Location, error) {
	var payload locationPayload
	if err := c.do(ctx, http.MethodPost, "/api/locations", input, &payload, ""); err != nil {
		return nil, err
	}
	return toLocation(payload), nil
}

// UpdateLocation は施設を部分更新する。
func (c *Client) UpdateLocation(ctx context.Context, locationID int, input LocationUpdateInput) (*model.Location, error) {
	var payload locationPayload
	path := fmt.Sprintf("/api/locations/%d", locationID)
	if err := c.do(ctx, http.MethodPatch, path, input, &payload, model.ErrCodeLocationNotFound); err != nil {
		return nil, err
	}
	return toLocation(payload), nil
}

// DeleteLocation は施設を削除する。
func (c *Client) DeleteLocation(ctx context.Context, locationID int) error {
	path := fmt.Sprintf("/api/locations/%d", locationID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, model.ErrCodeLocationNotFound)
}

// --- イベント ---

// eventPayload はイベントエンドポイントのレスポンスボディ。
type eventPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Time        time.Time `json:"time"`
	Location    string    `json:"location"`
	Host        string    `json:"host"`
	Description string    `json:"description"`
}

// ListEvents は全イベントを取得する。
func (c *Client) ListEvents(ctx context.Context) ([]*model.Event, error) {
	var payload []eventPayload
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &payload, ""); err != nil {
		return nil, err
	}
	events := make([]*model.Event, len(payload))
	for i, p := range payload {
		events[i] = toEvent(p)
	}
	return events, nil
}

// GetEvent は指定IDのイベントを取得する。
func (c *Client) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	var payload eventPayload
	if err := c.do(ctx, http.MethodGet, "/api/events/"+eventID, nil, &payload, model.ErrCodeEventNotFound); err != nil {
		return nil, err
	}
	return toEvent(payload), nil
}

// CreateEvent はイベントを作成する。
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*model.Event, error) {
	var payload eventPayload
	if err := c.do(ctx, http.MethodPost, "/api/events", input, &payload, ""); err != nil {
		return nil, err
	}
	return toEvent(payload), nil
}

// DeleteEvent はイベントを削除する。
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+eventID, nil, nil, model.ErrCodeEventNotFound)
}

// --- お気に入り ---

type favoritePayload struct {
	LocationID int `json:"locationId"`
}

// ListFavorites はセッションユーザーのお気に入り施設一覧を取得する。
func (c *Client) ListFavorites(ctx context.Context) ([]*model.Location, error) {
	var payload []locationPayload
	if err := c.do(ctx, http.MethodGet, "/api/favorites", nil, &payload, ""); err != nil {
		return nil, err
	}
	locs := make([]*model.Location, len(payload))
	for i, p := range payload {
		locs[i] = toLocation(p)
	}
	return locs, nil
}

// AddFavorite は施設をお気に入りに追加する。
func (c *Client) AddFavorite(ctx context.Context, locationID int) error {
	return c.do(ctx, http.MethodPost, "/api/favorites", favoritePayload{LocationID: locationID}, nil, model.ErrCodeLocationNotFound)
}

// RemoveFavorite は施設をお気に入りから削除する。
func (c *Client) RemoveFavorite(ctx context.Context, locationID int) error {
	return c.do(ctx, http.MethodDelete, "/api/favorites", favoritePayload{LocationID: locationID}, nil, model.ErrCodeLocationNotFound)
}

// --- 認証 ---

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login は資格情報で認証し、受け取ったセッショントークンを以降のリクエストに引き継ぐ。
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	body, err := json.Marshal(loginPayload{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("リクエストの生成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewNetworkError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp, "")
	}

	// Set-Cookieからセッショントークンを取り込む
	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookieName {
			c.SetSessionToken(cookie.Value)
		}
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("レスポンスの解析に失敗しました: %w", err)
	}
	return &model.User{
		ID:    payload.ID,
		Name:  payload.Name,
		Email: payload.Email,
		Role:  model.Role(payload.Role),
	}, nil
}

// --- 内部ヘルパー ---

// do はリクエストを送信し、レスポンスをoutにデコードする。
// 通信失敗・タイムアウトはNETWORK_ERRORのAPIErrorとして返す。
// 非2xxはエラーボディ {error, statusCode} をAPIErrorに変換する。
// notFoundCodeは404時に割り当てるエラーコード（空文字列なら汎用コード）。
func (c *Client) do(ctx context.Context, method, path string, body, out any, notFoundCode string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("リクエストの生成に失敗しました: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentSessionToken(); token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// タイムアウト・接続拒否などの通信系エラーはリトライ可能として分類する
		return model.NewNetworkError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp, notFoundCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("レスポンスの解析に失敗しました: %w", err)
	}
	return nil
}

// decodeAPIError はエラーレスポンスのボディをAPIErrorに変換する。
func decodeAPIError(resp *http.Response, notFoundCode string) error {
	var body struct {
		Error      string `json:"error"`
		StatusCode int    `json:"statusCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		body.Error = resp.Status
		body.StatusCode = resp.StatusCode
	}

	code := codeForStatus(resp.StatusCode, notFoundCode)
	return &model.APIError{
		Code:     code,
		Message:  body.Error,
		Category: categoryForCode(code),
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// codeForStatus はHTTPステータスコードからエラーコードを推定する。
func codeForStatus(statusCode int, notFoundCode string) string {
	switch statusCode {
	case http.StatusUnauthorized:
		return model.ErrCodeUnauthorized
	case http.StatusForbidden:
		return model.ErrCodeForbidden
	case http.StatusNotFound:
		if notFoundCode != "" {
			return notFoundCode
		}
		return model.ErrCodeInvalidRequest
	case http.StatusConflict:
		return model.ErrCodeDuplicateFavorite
	case http.StatusBadRequest:
		return model.ErrCodeInvalidRequest
	default:
		return model.ErrCodeInternalError
	}
}

func categoryForCode(code string) string {
	switch code {
	case model.ErrCodeUnauthorized, model.ErrCodeForbidden:
		return "auth"
	case model.ErrCodeLocationNotFound, model.ErrCodeDuplicateFavorite:
		return "location"
	case model.ErrCodeEventNotFound:
		return "event"
	case model.ErrCodeInvalidRequest:
		return "validation"
	default:
		return "system"
	}
}

func toLocation(p locationPayload) *model.Location {
	return &model.Location{
		LocationID:  p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Coordinates: model.Coordinates(p.Coordinates),
		Hours:       p.Hours,
		Status:      model.LocationStatus(p.Status),
	}
}

func toEvent(p eventPayload) *model.Event {
	return &model.Event{
		ID:          p.ID,
		Name:        p.Name,
		Time:        p.Time,
		Location:    p.Location,
		Host:        p.Host,
		Description: p.Description,
	}
}
