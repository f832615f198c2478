package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestVerifier(t *testing.T, handler http.HandlerFunc) (*RecaptchaVerifier, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	v := NewRecaptchaVerifier(server.Client(), "test-secret", 0.5)
	v.endpoint = server.URL
	return v, server
}

func TestVerify_Success(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.PostFormValue("secret"); got != "test-secret" {
			t.Errorf("secret = %q", got)
		}
		if got := r.PostFormValue("response"); got != "user-token" {
			t.Errorf("response = %q", got)
		}
		w.Write([]byte(`{"success": true, "score": 0.9}`))
	})

	ok, err := v.Verify(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("high-score token should pass")
	}
}

func TestVerify_LowScore(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "score": 0.2}`))
	})

	ok, err := v.Verify(context.Background(), "bot-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("score below threshold should be rejected")
	}
}

func TestVerify_NotSuccess(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	})

	ok, err := v.Verify(context.Background(), "garbage-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("unsuccessful verification should be rejected")
	}
}

func TestVerify_EmptyToken(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("siteverify should not be called for empty token")
	})

	ok, err := v.Verify(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("empty token should be rejected")
	}
}

func TestVerify_ServerError(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	_, err := v.Verify(context.Background(), "user-token")
	if err == nil {
		t.Fatal("expected error when siteverify is unavailable")
	}
}

func TestVerify_ScoreAtThreshold(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "score": 0.5}`))
	})

	ok, err := v.Verify(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("score equal to threshold should pass")
	}
}
