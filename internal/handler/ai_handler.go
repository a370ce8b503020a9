package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sumika/internal/ai"
	"github.com/hitoshi/sumika/internal/model"
)

// AIServiceInterface はAIハンドラーが必要とするサービスインターフェース。
type AIServiceInterface interface {
	// MarketTrends は指定地域の市場動向と関連ニュースを返す。
	MarketTrends(ctx context.Context, location string) (*ai.MarketTrendsResult, error)
	// PricePrediction は物件の適正価格予測を返す。
	PricePrediction(ctx context.Context, property *model.Property) (json.RawMessage, error)
	// GenerateDescription は物件の紹介文を生成する。
	GenerateDescription(ctx context.Context, propertyID string) (string, error)
	// Insights はユーザー向けのパーソナライズされたインサイトを返す。
	Insights(ctx context.Context, userID string) (json.RawMessage, error)
}

// AIHandler はAI分析機能のHTTPハンドラー。
// 分析の計算はすべて上流のAIプロバイダーに委譲する。
type AIHandler struct {
	service AIServiceInterface
}

// NewAIHandler はAIHandlerを生成する。
func NewAIHandler(service AIServiceInterface) *AIHandler {
	return &AIHandler{service: service}
}

// marketTrendsResponse は市場動向のAPIレスポンス。
type marketTrendsResponse struct {
	Trends json.RawMessage       `json:"trends"`
	News   []newsArticleResponse `json:"news"`
}

// MarketTrends は指定地域の市場動向分析を取得する。
// GET /ai/market-trends/:location
func (h *AIHandler) MarketTrends(w http.ResponseWriter, r *http.Request) {
	location, err := url.PathUnescape(chi.URLParam(r, "location"))
	if err != nil {
		handleServiceError(w, model.NewValidationError("地域の指定が不正です"))
		return
	}

	result, err := h.service.MarketTrends(r.Context(), location)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, marketTrendsResponse{
		Trends: result.Trends,
		News:   toNewsArticleResponses(result.News),
	})
}

// PricePrediction は物件の適正価格予測を取得する。
// POST /ai/price-prediction
func (h *AIHandler) PricePrediction(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	prediction, err := h.service.PricePrediction(r.Context(), propertyFromRequest("", &req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(prediction)
}

// GenerateDescription は物件の紹介文を生成する。
// GET /ai/generate-description/:propertyId
func (h *AIHandler) GenerateDescription(w http.ResponseWriter, r *http.Request) {
	description, err := h.service.GenerateDescription(r.Context(), chi.URLParam(r, "propertyId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"description": description})
}

// Insights はユーザー向けのパーソナライズされたインサイトを取得する。
// GET /ai/insights/:userId
func (h *AIHandler) Insights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.service.Insights(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(insights)
}
