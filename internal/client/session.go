package client

import (
	"context"
	"log/slog"
	"sync"
)

// SessionState はセッションのライフサイクル状態。
type SessionState int

const (
	// StateUninitialized は初期化前の状態。
	StateUninitialized SessionState = iota
	// StateInitializing は初期化中（/auth/me呼び出し中）の状態。
	StateInitializing
	// StateAuthenticated はログイン済みの状態。
	StateAuthenticated
	// StateAnonymous は未ログインの状態。
	StateAnonymous
)

// String はSessionStateの文字列表現を返す。
func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// roleAdmin は管理者ロールの値。
const roleAdmin = "admin"

// SessionManager はログイン状態の唯一の管理者。
// セッション書き込みはすべてミューテックスとシーケンス番号で保護され、
// 古いレスポンスが新しい状態を上書きすることはない。
type SessionManager struct {
	client *Client
	logger *slog.Logger

	mu      sync.Mutex
	seq     uint64
	state   SessionState
	user    *User
	isAdmin bool
}

// NewSessionManager はSessionManagerを生成し、クライアントの401フックに
// セッション破棄を登録する。
func NewSessionManager(apiClient *Client, logger *slog.Logger) *SessionManager {
	s := &SessionManager{
		client: apiClient,
		logger: logger,
		state:  StateUninitialized,
	}
	apiClient.SetAuthExpiredHandler(s.expire)
	return s
}

// Initialize は保存済みトークンからセッションを復元する。
// 失敗（トークンなし・期限切れ・ネットワークエラー）は匿名状態として扱い、
// 呼び出し元にエラーを返すことはない。
func (s *SessionManager) Initialize(ctx context.Context) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state = StateInitializing
	s.mu.Unlock()

	user := s.client.CurrentUser(ctx)
	if user == nil {
		s.logger.Debug("セッションを復元できなかったため匿名として扱います")
	}
	s.apply(seq, user, "")
}

// Login は認証してセッションを確立する。成功時は返却されたトークンを
// 永続化し、レスポンスをそのまま返す。失敗はそのまま伝播させる。
func (s *SessionManager) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.apply(seq, resp.User, resp.Token)
	return resp, nil
}

// Signup は新規登録してセッションを確立する。契約はLoginと対称。
func (s *SessionManager) Signup(ctx context.Context, email, password string) (*AuthResponse, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	resp, err := s.client.Signup(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.apply(seq, resp.User, resp.Token)
	return resp, nil
}

// Logout はサーバー側のトークン失効をベストエフォートで試み、
// 結果にかかわらずローカルのトークンとセッションを必ず破棄する。
func (s *SessionManager) Logout(ctx context.Context) {
	// 先にシーケンスを進めてローカル状態を破棄する。これ以降に解決する
	// 古いログイン・初期化レスポンスはセッションを復活させられない
	s.mu.Lock()
	s.seq++
	s.state = StateAnonymous
	s.user = nil
	s.isAdmin = false
	s.mu.Unlock()

	if err := s.client.Logout(ctx); err != nil {
		s.logger.Warn("ログアウトAPIの呼び出しに失敗しました", slog.String("error", err.Error()))
	}
	if err := s.client.tokens.Clear(); err != nil {
		s.logger.Error("トークンのクリアに失敗しました", slog.String("error", err.Error()))
	}
}

// State は現在のセッション状態を返す。
func (s *SessionManager) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User は現在のセッションのユーザーを返す。未ログイン時はnil。
func (s *SessionManager) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAdmin は現在のユーザーが管理者かどうかを返す。
// セッションが設定されるたびにロールから再計算される。
func (s *SessionManager) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAdmin
}

// apply は操作開始時のシーケンス番号を検証したうえでセッションを設定する。
// 検証後に新しい操作が開始していた場合、古い結果は破棄される。
func (s *SessionManager) apply(seq uint64, user *User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.logger.Debug("古いレスポンスを破棄しました",
			slog.Uint64("seq", seq),
			slog.Uint64("current", s.seq),
		)
		return
	}

	if token != "" {
		if err := s.client.tokens.Save(token); err != nil {
			s.logger.Error("トークンの保存に失敗しました", slog.String("error", err.Error()))
		}
	}

	if user != nil {
		s.state = StateAuthenticated
		s.user = user
		s.isAdmin = user.Role == roleAdmin
	} else {
		s.state = StateAnonymous
		s.user = nil
		s.isAdmin = false
	}
}

// expire は401応答を受けた際にセッションを匿名状態へ落とす。
// トークン自体はClient側で既にクリアされている。
func (s *SessionManager) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = StateAnonymous
	s.user = nil
	s.isAdmin = false
}
