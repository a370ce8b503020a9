package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clientTestUser はクライアントCLIテスト用のユーザーレスポンス。
type clientTestUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func setClientEnv(t *testing.T, serverURL string) {
	t.Helper()
	t.Setenv("BASE_URL", serverURL)
	t.Setenv("SUMIKA_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))
}

func TestRunClient_NoArgs_ReturnsError(t *testing.T) {
	var buf bytes.Buffer
	if err := runClient(&buf, nil); err == nil {
		t.Fatal("expected error for missing command")
	}
	if !strings.Contains(buf.String(), "usage:") {
		t.Errorf("output should contain usage, got %q", buf.String())
	}
}

func TestRunClient_UnknownCommand_ReturnsError(t *testing.T) {
	var buf bytes.Buffer
	if err := runClient(&buf, []string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunClient_Login_PrintsUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "t1",
			"user":  clientTestUser{ID: "u1", Email: "taro@example.com", Role: "user"},
		})
	}))
	defer server.Close()
	setClientEnv(t, server.URL)

	var buf bytes.Buffer
	if err := runClient(&buf, []string{"login", "taro@example.com", "password123"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "taro@example.com") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRunClient_Login_MissingArgs_ReturnsError(t *testing.T) {
	var buf bytes.Buffer
	if err := runClient(&buf, []string{"login", "taro@example.com"}); err == nil {
		t.Fatal("expected usage error")
	}
}

func TestRunClient_Me_NotLoggedIn_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	setClientEnv(t, server.URL)

	var buf bytes.Buffer
	if err := runClient(&buf, []string{"me"}); err == nil {
		t.Fatal("expected error when not logged in")
	}
}

func TestRunClient_Properties_PrintsList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/properties" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("location"); got != "杉並区" {
			t.Errorf("location = %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "prop-1", "title": "グリーンハイツ301", "location": "杉並区", "price": 950},
		})
	}))
	defer server.Close()
	setClientEnv(t, server.URL)

	var buf bytes.Buffer
	if err := runClient(&buf, []string{"properties", "杉並区"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "グリーンハイツ301") {
		t.Errorf("output = %q", buf.String())
	}
}
