// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/sumika/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// userRoleContextKey はリクエストコンテキストにユーザーロールを格納するためのキー。
var userRoleContextKey = contextKey("user_role")

// TokenFinder は認証トークンの検索に必要なインターフェース。
// repository.TokenRepositoryの部分集合として定義する。
type TokenFinder interface {
	Find(ctx context.Context, token string) (*model.AuthToken, error)
}

// UserFinder はユーザーの検索に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// トークンが有効な場合、認証済みユーザーIDとロールをリクエストコンテキストに注入する。
// ヘッダーが無い、トークンが未登録、または期限切れのリクエストには401を返す。
func NewAuthMiddleware(tokenFinder TokenFinder, userFinder UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取り出す
			token, ok := bearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. トークンの有効性を検証
			authToken, err := tokenFinder.Find(r.Context(), token)
			if err != nil {
				slog.Error("failed to find auth token",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if authToken == nil || authToken.ExpiresAt.Before(time.Now()) {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. ロール判定のためユーザーを取得
			user, err := userFinder.FindByID(r.Context(), authToken.UserID)
			if err != nil {
				slog.Error("failed to find user for auth token",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if user == nil {
				// トークンは残っているがユーザーが削除済み
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 4. 認証済みユーザーIDとロールをコンテキストに注入
			ctx := ContextWithUserID(r.Context(), user.ID)
			ctx = ContextWithRole(ctx, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireAdminMiddleware は管理者ロールを要求するミドルウェアを返す。
// NewAuthMiddlewareの後段に配置すること。管理者以外には403を返す。
func NewRequireAdminMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := RoleFromContext(r.Context())
			if err != nil || role != model.RoleAdmin {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// 取得できない場合は空文字列を返す。ログアウト処理で使用する。
func BearerToken(r *http.Request) string {
	token, _ := bearerToken(r)
	return token
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// RoleFromContext はリクエストコンテキストからユーザーロールを取得する。
func RoleFromContext(ctx context.Context) (model.Role, error) {
	role, ok := ctx.Value(userRoleContextKey).(model.Role)
	if !ok || role == "" {
		return "", fmt.Errorf("user role not found in context")
	}
	return role, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextWithRole はコンテキストにユーザーロールを注入する。
func ContextWithRole(ctx context.Context, role model.Role) context.Context {
	return context.WithValue(ctx, userRoleContextKey, role)
}
