// Package client はsumika APIのクライアントSDKを提供する。
// 全エンドポイント呼び出しを統一されたリクエスト実行・認証ヘッダー注入・
// エラー正規化の上に構築する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Client はsumika APIのHTTPクライアント。
// トークンストアに保存されたトークンを全リクエストに自動付与する。
type Client struct {
	httpClient    *http.Client
	tokens        TokenStore
	logger        *slog.Logger
	baseURL       string
	onAuthExpired func()
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, tokens TokenStore, logger *slog.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// SetAuthExpiredHandler は401応答でトークンがクリアされた直後に呼ばれる
// フックを登録する。リクエスト実行前に設定すること。
func (c *Client) SetAuthExpiredHandler(fn func()) {
	c.onAuthExpired = fn
}

// do は認証必須エンドポイント向けのリクエスト実行プリミティブ。
func (c *Client) do(ctx context.Context, method, path string, reqBody, out any) error {
	return c.send(ctx, method, path, reqBody, out, false)
}

// doCredential はログイン・サインアップ向けのリクエスト実行プリミティブ。
// 認証情報の拒否（4xx）はErrAuthとして返し、保存済みトークンには触れない。
func (c *Client) doCredential(ctx context.Context, method, path string, reqBody, out any) error {
	return c.send(ctx, method, path, reqBody, out, true)
}

// send はHTTPリクエストを実行し、レスポンスをエラー種別に正規化する。
// リトライ・タイムアウト・重複排除は行わない。キャンセルはctx経由のみ。
func (c *Client) send(ctx context.Context, method, path string, reqBody, out any, credential bool) error {
	// 1. リクエストボディの組み立て
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return newError(ErrRequest, fmt.Sprintf("リクエストボディの生成に失敗しました: %v", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return newError(ErrRequest, fmt.Sprintf("リクエストの作成に失敗しました: %v", err))
	}

	// 2. ヘッダー注入。トークンが保存されていればBearerとして付与する
	req.Header.Set("Content-Type", "application/json")
	token, err := c.tokens.Load()
	if err != nil {
		c.logger.Warn("トークンの読み込みに失敗しました", slog.String("error", err.Error()))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// 3. 実行。ネットワークレベルの失敗は種類を問わず同一に扱う
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(ErrRequest, fmt.Sprintf("APIへの接続に失敗しました: %v", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return newError(ErrRequest, fmt.Sprintf("レスポンスの読み取りに失敗しました: %v", err))
	}

	// 4. ステータスに応じたエラー正規化
	if resp.StatusCode == http.StatusUnauthorized && !credential {
		return c.expireAuth(data)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := ErrRequest
		if credential && resp.StatusCode < 500 {
			kind = ErrAuth
		}
		return newError(kind, errorMessage(data))
	}

	// 5. 2xx: JSONボディをそのままデコードする（スキーマ検証はしない）
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return newError(ErrRequest, fmt.Sprintf("レスポンスJSONのパースに失敗しました: %v", err))
		}
	}
	return nil
}

// expireAuth は401応答の共通処理。保存済みトークンをクリアし、
// 登録済みフックを呼んだうえでErrAuthExpiredを返す。
func (c *Client) expireAuth(data []byte) error {
	if err := c.tokens.Clear(); err != nil {
		c.logger.Error("トークンのクリアに失敗しました", slog.String("error", err.Error()))
	}
	if c.onAuthExpired != nil {
		c.onAuthExpired()
	}
	return newError(ErrAuthExpired, errorMessage(data))
}

// errorMessage はエラーレスポンスのボディからメッセージを抽出する。
// パースできない場合は汎用メッセージを返す。
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return "リクエストの処理中にエラーが発生しました"
}
