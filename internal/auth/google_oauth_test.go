package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestGetLoginURL(t *testing.T) {
	provider := NewGoogleOAuthProvider(nil, GoogleOAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost:8080/api/auth/google/callback",
	})

	loginURL := provider.GetLoginURL("random-state")

	parsed, err := url.Parse(loginURL)
	if err != nil {
		t.Fatalf("failed to parse login URL: %v", err)
	}
	q := parsed.Query()
	if q.Get("client_id") != "test-client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "random-state" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if !strings.Contains(q.Get("scope"), "email") {
		t.Errorf("scope should include email: %q", q.Get("scope"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
}

func TestExchangeCode_Success(t *testing.T) {
	// トークン交換とユーザー情報取得の両方を偽装
	userInfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-access-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub": "google-sub-1", "email": "taro@example.com", "name": "Taro"}`))
	}))
	defer userInfoServer.Close()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.PostFormValue("code"); got != "auth-code" {
			t.Errorf("code = %q", got)
		}
		if got := r.PostFormValue("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "test-access-token", "token_type": "Bearer"}`))
	}))
	defer tokenServer.Close()

	provider := NewGoogleOAuthProvider(nil, GoogleOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     tokenServer.URL,
		UserInfoURL:  userInfoServer.URL,
	})

	info, err := provider.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ProviderUserID != "google-sub-1" {
		t.Errorf("ProviderUserID = %q", info.ProviderUserID)
	}
	if info.Email != "taro@example.com" {
		t.Errorf("Email = %q", info.Email)
	}
	if info.Provider != "google" {
		t.Errorf("Provider = %q", info.Provider)
	}
}

func TestExchangeCode_TokenEndpointError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	provider := NewGoogleOAuthProvider(nil, GoogleOAuthConfig{
		TokenURL: tokenServer.URL,
	})

	_, err := provider.ExchangeCode(context.Background(), "expired-code")
	if err == nil {
		t.Fatal("expected error for rejected code")
	}
}

func TestExchangeCode_EmptyAccessToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type": "Bearer"}`))
	}))
	defer tokenServer.Close()

	provider := NewGoogleOAuthProvider(nil, GoogleOAuthConfig{
		TokenURL: tokenServer.URL,
	})

	_, err := provider.ExchangeCode(context.Background(), "auth-code")
	if err == nil {
		t.Fatal("expected error for empty access token")
	}
}
