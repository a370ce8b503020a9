package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sumika/internal/model"
)

// MarketServiceInterface はニュースソースハンドラーが必要とするサービスインターフェース。
type MarketServiceInterface interface {
	// RegisterSource はURLからフィードを検出しニュースソースを登録する。
	RegisterSource(ctx context.Context, inputURL, location string) (*model.NewsSource, error)
	// ListSources は全ニュースソースを返す。
	ListSources(ctx context.Context) ([]*model.NewsSource, error)
	// DeleteSource は指定IDのニュースソースを削除する。
	DeleteSource(ctx context.Context, id string) error
}

// SourceHandler は市場ニュースソース管理のHTTPハンドラー。管理者専用。
type SourceHandler struct {
	service MarketServiceInterface
}

// NewSourceHandler はSourceHandlerを生成する。
func NewSourceHandler(service MarketServiceInterface) *SourceHandler {
	return &SourceHandler{service: service}
}

// registerSourceRequest はニュースソース登録のリクエストボディ。
type registerSourceRequest struct {
	URL      string `json:"url"`
	Location string `json:"location"`
}

// Register はニュースソースを登録する。
// 指定URLがHTMLページの場合はフィードの自動検出を行う。
// POST /admin/news-sources
func (h *SourceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.URL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("URLが空です"))
		return
	}

	source, err := h.service.RegisterSource(r.Context(), req.URL, req.Location)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toNewsSourceResponse(source))
}

// List は全ニュースソースを返す。
// GET /admin/news-sources
func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	sources, err := h.service.ListSources(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]newsSourceResponse, 0, len(sources))
	for _, s := range sources {
		responses = append(responses, toNewsSourceResponse(s))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Delete はニュースソースを削除する。
// DELETE /admin/news-sources/:id
func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSource(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
