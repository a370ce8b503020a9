package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/sumika/internal/middleware"
	"github.com/hitoshi/sumika/internal/model"
)

// --- ミドルウェア用モック ---

// mockTokenFinder はmiddleware.TokenFinderのモック実装。
type mockTokenFinder struct {
	tokens map[string]*model.AuthToken
}

func (m *mockTokenFinder) Find(ctx context.Context, token string) (*model.AuthToken, error) {
	return m.tokens[token], nil
}

// mockUserFinder はmiddleware.UserFinderのモック実装。
type mockUserFinder struct {
	users map[string]*model.User
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}

// newTestRouter は全ルートとミドルウェアを構成したテスト用ルーターを返す。
// user-tokenは一般ユーザー、admin-tokenは管理者として認証される。
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rateLimiter.Stop)

	tokenFinder := &mockTokenFinder{tokens: map[string]*model.AuthToken{
		"user-token":  {Token: "user-token", UserID: "user-123", ExpiresAt: time.Now().Add(time.Hour)},
		"admin-token": {Token: "admin-token", UserID: "admin-1", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	userFinder := &mockUserFinder{users: map[string]*model.User{
		"user-123": {ID: "user-123", Email: "taro@example.com", Role: model.RoleUser},
		"admin-1":  {ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin},
	}}

	return NewRouter(&RouterDeps{
		TokenFinder:       tokenFinder,
		UserFinder:        userFinder,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rateLimiter,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		AuthService: &mockAuthService{
			getCurrentUserFn: func(ctx context.Context, userID string) (*model.User, error) {
				return testUser(), nil
			},
		},
		AccountService: &mockAccountService{},
		PropertyService: &mockPropertyService{
			listFn: func(ctx context.Context, filter model.PropertyFilter) ([]*model.Property, error) {
				return []*model.Property{testProperty()}, nil
			},
		},
		AIService:     &mockAIService{},
		MarketService: &mockMarketService{},
	})
}

func TestRouter_HealthEndpoint_NoAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRouter_ProtectedRoute_WithoutToken_ReturnsUnauthorized(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/properties", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	var got apiErrorResponse
	json.NewDecoder(resp.Body).Decode(&got)
	if got.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", got.Code, model.ErrCodeUnauthorized)
	}
}

func TestRouter_ProtectedRoute_WithValidToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/properties", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRouter_AdminRoute_WithUserToken_ReturnsForbidden(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/news-sources", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestRouter_AdminRoute_WithAdminToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/news-sources", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRouter_LoginRoute_NoBearerRequired(t *testing.T) {
	router := newTestRouter(t)

	// 認証前のルートはBearerトークンなしで到達できる（不正ボディは400）
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode == http.StatusUnauthorized {
		t.Errorf("login route should not require bearer auth, got %d", resp.StatusCode)
	}
}

func TestRouter_CORSHeaders(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/properties", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
