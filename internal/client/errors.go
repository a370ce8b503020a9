package client

import "errors"

// エラー種別のセンチネル。呼び出し元はHTTPステータスを調べる代わりに
// errors.Isでパターンマッチする。
var (
	// ErrAuthExpired は認証トークンが無効または期限切れの場合のエラー種別。
	// このエラーが返る時点で保存済みトークンはクリアされている。
	ErrAuthExpired = errors.New("認証の有効期限が切れました")
	// ErrAuth はログイン・サインアップがバックエンドに拒否された場合のエラー種別。
	// セッション状態には影響しない。
	ErrAuth = errors.New("認証に失敗しました")
	// ErrRequest は上記以外のAPIエラーおよびネットワークエラーの種別。
	ErrRequest = errors.New("リクエストに失敗しました")
)

// Error はAPIクライアントが返すエラー。
// Kindはセンチネルのいずれかを保持し、errors.Isで判別できる。
type Error struct {
	Kind    error
	Message string
}

// Error はエラーメッセージを返す。
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap はエラー種別のセンチネルを返す。
func (e *Error) Unwrap() error {
	return e.Kind
}

// newError は指定された種別のErrorを生成する。
func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
