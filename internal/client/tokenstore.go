package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore は認証トークンの永続化を抽象化する。
// トークンが保存されていない場合、Loadは空文字列を返す。
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore はトークンを単一ファイルに保存するTokenStore実装。
type FileTokenStore struct {
	path string
}

// コンパイル時にインターフェースを満たすことを保証
var _ TokenStore = (*FileTokenStore)(nil)

// NewFileTokenStore は指定されたパスにトークンを保存するFileTokenStoreを生成する。
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load は保存されたトークンを読み込む。ファイルが存在しない場合は空文字列を返す。
func (s *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("トークンファイルの読み込みに失敗しました: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save はトークンをファイルに保存する。親ディレクトリがなければ作成する。
func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("トークンディレクトリの作成に失敗しました: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("トークンファイルの書き込みに失敗しました: %w", err)
	}
	return nil
}

// Clear は保存されたトークンを削除する。ファイルが存在しなくてもエラーにしない。
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("トークンファイルの削除に失敗しました: %w", err)
	}
	return nil
}

// MemoryTokenStore はトークンをメモリに保持するTokenStore実装。テスト用。
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

var _ TokenStore = (*MemoryTokenStore)(nil)

// NewMemoryTokenStore はMemoryTokenStoreを生成する。
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Load は保持中のトークンを返す。
func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

// Save はトークンを保持する。
func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear は保持中のトークンを破棄する。
func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
