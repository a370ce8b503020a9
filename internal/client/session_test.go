package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// sessionTestServer はセッションテスト用のAPIスタブ。
type sessionTestServer struct {
	meUser       *User
	loginResp    *AuthResponse
	loginStatus  int
	loginGate    chan struct{} // 非nilの場合、ログイン応答をゲートが開くまで保留する
	loginStarted chan struct{} // 非nilの場合、ログイン要求を受け付けた時点で閉じる
	logoutFail   bool
}

func (s *sessionTestServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if s.meUser == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(s.meUser)
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if s.loginStarted != nil {
			close(s.loginStarted)
		}
		if s.loginGate != nil {
			<-s.loginGate
		}
		if s.loginStatus != 0 {
			w.WriteHeader(s.loginStatus)
			json.NewEncoder(w).Encode(map[string]string{"message": "メールアドレスまたはパスワードが正しくありません"})
			return
		}
		json.NewEncoder(w).Encode(s.loginResp)
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if s.logoutFail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestSession(t *testing.T, stub *sessionTestServer, tokens TokenStore) *SessionManager {
	t.Helper()
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)
	return NewSessionManager(newTestClient(server.URL, tokens), testClientLogger())
}

func TestSessionManager_InitialState(t *testing.T) {
	s := newTestSession(t, &sessionTestServer{}, NewMemoryTokenStore())

	if s.State() != StateUninitialized {
		t.Errorf("state = %v, want uninitialized", s.State())
	}
	if s.User() != nil || s.IsAdmin() {
		t.Error("session should start empty")
	}
}

func TestSessionManager_Initialize_RestoresSession(t *testing.T) {
	stub := &sessionTestServer{meUser: &User{ID: "u1", Role: "admin"}}
	tokens := NewMemoryTokenStore()
	tokens.Save("saved-token")
	s := newTestSession(t, stub, tokens)

	s.Initialize(context.Background())

	if s.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", s.State())
	}
	if user := s.User(); user == nil || user.ID != "u1" {
		t.Errorf("user = %+v", user)
	}
	if !s.IsAdmin() {
		t.Error("isAdmin = false, want true")
	}
}

func TestSessionManager_Initialize_FailureBecomesAnonymous(t *testing.T) {
	// /auth/me が401を返してもInitializeはエラーを出さない
	s := newTestSession(t, &sessionTestServer{meUser: nil}, NewMemoryTokenStore())

	s.Initialize(context.Background())

	if s.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous", s.State())
	}
	if s.User() != nil {
		t.Errorf("user = %+v, want nil", s.User())
	}
}

func TestSessionManager_Login_PersistsTokenAndSetsSession(t *testing.T) {
	stub := &sessionTestServer{loginResp: &AuthResponse{
		Token: "t1",
		User:  &User{ID: "u1", Role: "user"},
	}}
	tokens := NewMemoryTokenStore()
	s := newTestSession(t, stub, tokens)

	resp, err := s.Login(context.Background(), "a@b.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token != "t1" {
		t.Errorf("raw response token = %q", resp.Token)
	}

	token, _ := tokens.Load()
	if token != "t1" {
		t.Errorf("persisted token = %q, want t1", token)
	}
	if s.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", s.State())
	}
	if s.IsAdmin() {
		t.Error("isAdmin = true for role user")
	}
}

func TestSessionManager_Login_AdminRoleRecomputed(t *testing.T) {
	stub := &sessionTestServer{loginResp: &AuthResponse{
		Token: "t1",
		User:  &User{ID: "admin-1", Role: "admin"},
	}}
	s := newTestSession(t, stub, NewMemoryTokenStore())

	if _, err := s.Login(context.Background(), "admin@example.com", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.IsAdmin() {
		t.Error("isAdmin = false, want true")
	}
}

func TestSessionManager_Login_FailurePropagatesAndSessionUntouched(t *testing.T) {
	stub := &sessionTestServer{loginStatus: http.StatusUnauthorized}
	tokens := NewMemoryTokenStore()
	s := newTestSession(t, stub, tokens)

	_, err := s.Login(context.Background(), "a@b.com", "wrong")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("error kind = %v, want ErrAuth", err)
	}
	if s.State() == StateAuthenticated {
		t.Error("session should not be authenticated after rejected login")
	}
	if token, _ := tokens.Load(); token != "" {
		t.Errorf("token = %q, want empty", token)
	}
}

func TestSessionManager_Logout_ClearsStateEvenWhenEndpointFails(t *testing.T) {
	stub := &sessionTestServer{
		loginResp:  &AuthResponse{Token: "t1", User: &User{ID: "u1", Role: "user"}},
		logoutFail: true,
	}
	tokens := NewMemoryTokenStore()
	s := newTestSession(t, stub, tokens)

	if _, err := s.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	s.Logout(context.Background())

	if s.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous", s.State())
	}
	if s.User() != nil || s.IsAdmin() {
		t.Error("session should be cleared")
	}
	if token, _ := tokens.Load(); token != "" {
		t.Errorf("token = %q, want empty after logout", token)
	}
}

func TestSessionManager_StaleLoginResponse_CannotResurrectSession(t *testing.T) {
	// ログイン応答が保留されている間にログアウトした場合、
	// 遅れて解決したログイン応答はセッションもトークンも復活させない
	gate := make(chan struct{})
	started := make(chan struct{})
	stub := &sessionTestServer{
		loginResp:    &AuthResponse{Token: "t1", User: &User{ID: "u1", Role: "user"}},
		loginGate:    gate,
		loginStarted: started,
	}
	tokens := NewMemoryTokenStore()
	s := newTestSession(t, stub, tokens)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Login(context.Background(), "a@b.com", "pw")
	}()

	<-started
	s.Logout(context.Background())
	close(gate)
	wg.Wait()

	if s.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous", s.State())
	}
	if token, _ := tokens.Load(); token != "" {
		t.Errorf("token = %q, stale login must not persist a token", token)
	}
}

func TestSessionManager_AuthExpiredHook_DropsSession(t *testing.T) {
	stub := &sessionTestServer{
		loginResp: &AuthResponse{Token: "t1", User: &User{ID: "u1", Role: "admin"}},
	}
	tokens := NewMemoryTokenStore()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			json.NewEncoder(w).Encode(stub.loginResp)
			return
		}
		// 認証必須エンドポイントはすべて401を返す
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(server.URL, tokens)
	s := NewSessionManager(c, testClientLogger())

	if _, err := s.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// 任意のエンドポイントの401がセッションを破棄する
	_, err := c.GetUser(context.Background(), "u1")
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("error kind = %v, want ErrAuthExpired", err)
	}

	if s.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous", s.State())
	}
	if s.IsAdmin() {
		t.Error("isAdmin should be recomputed to false")
	}
	if token, _ := tokens.Load(); token != "" {
		t.Errorf("token = %q, want empty", token)
	}
}
