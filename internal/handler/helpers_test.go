package handler

import (
	"net/http"

	"github.com/hitoshi/sumika/internal/middleware"
	"github.com/hitoshi/sumika/internal/model"
)

// withUserID はリクエストコンテキストに認証済みユーザーIDを注入する。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// withRole はリクエストコンテキストにユーザーロールを注入する。
func withRole(r *http.Request, role model.Role) *http.Request {
	return r.WithContext(middleware.ContextWithRole(r.Context(), role))
}
