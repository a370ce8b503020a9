package client

import (
	"context"
	"log/slog"
	"net/http"
)

// credentialsRequest はサインアップ・ログインのリクエストボディ。
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup は新規ユーザーを登録する。
// 拒否された場合はErrAuth種別のエラーを返す。
func (c *Client) Signup(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doCredential(ctx, http.MethodPost, "/auth/signup", credentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login はメールアドレスとパスワードで認証する。
// 認証情報が不正な場合はErrAuth種別のエラーを返す。
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doCredential(ctx, http.MethodPost, "/auth/login", credentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout は現在のトークンをサーバー側で失効させる。
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// CurrentUser は認証中のユーザーを取得する。
// 失敗した場合（トークンなし・期限切れ・ネットワークエラー）はnilを返し、
// エラーは呼び出し元に伝播させない。
func (c *Client) CurrentUser(ctx context.Context) *User {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		c.logger.Debug("認証中ユーザーの取得に失敗しました", slog.String("error", err.Error()))
		return nil
	}
	return &user
}
