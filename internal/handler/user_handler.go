package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sumika/internal/middleware"
	"github.com/hitoshi/sumika/internal/model"
)

// AccountServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// GetUser は指定IDのユーザーを取得する。本人または管理者のみアクセス可能。
	GetUser(ctx context.Context, requesterID string, requesterRole model.Role, targetID string) (*model.User, error)
	// GetPreferences は指定ユーザーの検索条件を取得する。未保存の場合はnilを返す。
	GetPreferences(ctx context.Context, userID string) (*model.Preferences, error)
	// UpdatePreferences は検索条件を保存する。
	UpdatePreferences(ctx context.Context, prefs *model.Preferences) (*model.Preferences, error)
	// AddFavorite はお気に入りを冪等に追加する。
	AddFavorite(ctx context.Context, userID, propertyID string) error
	// RemoveFavorite はお気に入りを削除する。
	RemoveFavorite(ctx context.Context, userID, propertyID string) error
	// ListFavorites はお気に入り物件を返す。削除済み物件は除外する。
	ListFavorites(ctx context.Context, userID string) ([]*model.Property, error)
	// Withdraw は退会処理を行い、ユーザーと関連データを削除する。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザーアカウントのHTTPハンドラー。
type UserHandler struct {
	service AccountServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service AccountServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// preferencesRequest は検索条件保存のリクエストボディ。
type preferencesRequest struct {
	Location     string            `json:"location"`
	Budget       model.BudgetRange `json:"budget"`
	PropertyType string            `json:"propertyType"`
	MinBedrooms  int               `json:"minBedrooms"`
	MinBathrooms int               `json:"minBathrooms"`
	Features     []string          `json:"features"`
}

// requireSelfOrAdmin はパスのユーザーIDが本人または管理者のアクセスかを確認する。
// 許可された場合は対象ユーザーIDを返す。
func requireSelfOrAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return "", false
	}

	targetID := chi.URLParam(r, "id")
	if targetID != requesterID {
		role, err := middleware.RoleFromContext(r.Context())
		if err != nil || role != model.RoleAdmin {
			writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
			return "", false
		}
	}
	return targetID, true
}

// GetUser はユーザー情報を取得する。
// GET /users/:id
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	role, _ := middleware.RoleFromContext(r.Context())

	user, err := h.service.GetUser(r.Context(), requesterID, role, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// GetPreferences は検索条件を取得する。未保存の場合は空のオブジェクトを返す。
// GET /users/:id/preferences
func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	targetID, ok := requireSelfOrAdmin(w, r)
	if !ok {
		return
	}

	prefs, err := h.service.GetPreferences(r.Context(), targetID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if prefs == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesResponse(prefs))
}

// UpdatePreferences は検索条件を保存する。
// PUT /users/:id/preferences
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	targetID, ok := requireSelfOrAdmin(w, r)
	if !ok {
		return
	}

	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	prefs, err := h.service.UpdatePreferences(r.Context(), &model.Preferences{
		UserID:       targetID,
		Location:     req.Location,
		Budget:       req.Budget,
		PropertyType: req.PropertyType,
		MinBedrooms:  req.MinBedrooms,
		MinBathrooms: req.MinBathrooms,
		Features:     req.Features,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPreferencesResponse(prefs))
}

// ListFavorites はお気に入りの物件IDリストを返す。
// GET /users/:id/favorites
func (h *UserHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	targetID, ok := requireSelfOrAdmin(w, r)
	if !ok {
		return
	}

	properties, err := h.service.ListFavorites(r.Context(), targetID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 削除済み物件はサービス層で除外済み。IDのみ返す。
	ids := make([]string, 0, len(properties))
	for _, p := range properties {
		ids = append(ids, p.ID)
	}
	writeJSON(w, http.StatusOK, ids)
}

// AddFavorite はお気に入りを追加する。冪等。
// POST /users/:id/favorites/:propertyId
func (h *UserHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	targetID, ok := requireSelfOrAdmin(w, r)
	if !ok {
		return
	}

	if err := h.service.AddFavorite(r.Context(), targetID, chi.URLParam(r, "propertyId")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavorite はお気に入りを削除する。対象が存在しなくても成功を返す。
// DELETE /users/:id/favorites/:propertyId
func (h *UserHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	targetID, ok := requireSelfOrAdmin(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveFavorite(r.Context(), targetID, chi.URLParam(r, "propertyId")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Withdraw は退会処理を行う。認証済みユーザー本人のみ実行できる。
// DELETE /users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
