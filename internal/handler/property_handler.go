package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sumika/internal/model"
)

// PropertyServiceInterface は物件ハンドラーが必要とするサービスインターフェース。
type PropertyServiceInterface interface {
	// List は検索条件に合致する物件を返す。
	List(ctx context.Context, filter model.PropertyFilter) ([]*model.Property, error)
	// Get は指定IDの物件を取得する。
	Get(ctx context.Context, id string) (*model.Property, error)
	// Create は物件を登録する。
	Create(ctx context.Context, property *model.Property) (*model.Property, error)
	// Update は物件を更新する。
	Update(ctx context.Context, property *model.Property) (*model.Property, error)
	// Delete は物件を削除する。
	Delete(ctx context.Context, id string) error
	// Recommendations はユーザーの検索条件に基づくおすすめ物件を返す。
	Recommendations(ctx context.Context, userID string) ([]*model.ScoredProperty, error)
	// Compatibility は物件とユーザー検索条件の相性スコアを返す。
	Compatibility(ctx context.Context, propertyID, userID string) (float64, error)
	// SearchNLP は自然言語クエリで物件を検索する。
	SearchNLP(ctx context.Context, query string) ([]*model.Property, model.PropertyFilter, error)
}

// PropertyHandler は物件のHTTPハンドラー。
type PropertyHandler struct {
	service PropertyServiceInterface
}

// NewPropertyHandler はPropertyHandlerを生成する。
func NewPropertyHandler(service PropertyServiceInterface) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// propertyRequest は物件登録・更新のリクエストボディ。
type propertyRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Location    string   `json:"location"`
	Price       int      `json:"price"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	Features    []string `json:"features"`
	ImageURL    string   `json:"imageUrl"`
}

// nlpSearchRequest は自然言語検索のリクエストボディ。
type nlpSearchRequest struct {
	Query string `json:"query"`
}

// parsedFilterResponse は自然言語検索で解析されたフィルタのレスポンス。
type parsedFilterResponse struct {
	Location  *string `json:"location,omitempty"`
	Type      *string `json:"type,omitempty"`
	MinPrice  *int    `json:"minPrice,omitempty"`
	MaxPrice  *int    `json:"maxPrice,omitempty"`
	Bedrooms  *int    `json:"bedrooms,omitempty"`
	Bathrooms *int    `json:"bathrooms,omitempty"`
	Feature   *string `json:"feature,omitempty"`
}

// nlpSearchResponse は自然言語検索のレスポンス。
type nlpSearchResponse struct {
	Properties []propertyResponse   `json:"properties"`
	Filter     parsedFilterResponse `json:"filter"`
}

// filterFromQuery はクエリパラメータから検索フィルタを構築する。
// 指定されていないパラメータは条件に含めない。
func filterFromQuery(r *http.Request) (model.PropertyFilter, error) {
	var filter model.PropertyFilter
	query := r.URL.Query()

	if v := query.Get("location"); v != "" {
		filter.Location = &v
	}
	if v := query.Get("type"); v != "" {
		filter.Type = &v
	}
	if v := query.Get("feature"); v != "" {
		filter.Feature = &v
	}

	for name, target := range map[string]**int{
		"minPrice":  &filter.MinPrice,
		"maxPrice":  &filter.MaxPrice,
		"bedrooms":  &filter.Bedrooms,
		"bathrooms": &filter.Bathrooms,
	} {
		v := query.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.PropertyFilter{}, model.NewInvalidFilterError(
				fmt.Sprintf("%sは数値で指定してください", name))
		}
		*target = &n
	}

	return filter, nil
}

// List は物件一覧を取得する。
// GET /properties
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	properties, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPropertyResponses(properties))
}

// Get は物件詳細を取得する。
// GET /properties/:id
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	property, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPropertyResponse(property))
}

// Recommendations はユーザーへのおすすめ物件を返す。
// AIプロバイダーが利用できない場合はスコアなしで物件のみ返す。
// GET /properties/recommendations/:userId
func (h *PropertyHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	scored, err := h.service.Recommendations(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]scoredPropertyResponse, 0, len(scored))
	for _, sp := range scored {
		responses = append(responses, scoredPropertyResponse{
			propertyResponse:   toPropertyResponse(&sp.Property),
			CompatibilityScore: sp.CompatibilityScore,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

// Compatibility は物件とユーザー検索条件の相性スコアを返す。
// GET /properties/:id/compatibility/:userId
func (h *PropertyHandler) Compatibility(w http.ResponseWriter, r *http.Request) {
	score, err := h.service.Compatibility(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"score": score})
}

// SearchNLP は自然言語クエリで物件を検索する。
// POST /properties/search/nlp
func (h *PropertyHandler) SearchNLP(w http.ResponseWriter, r *http.Request) {
	var req nlpSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	properties, filter, err := h.service.SearchNLP(r.Context(), req.Query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nlpSearchResponse{
		Properties: toPropertyResponses(properties),
		Filter: parsedFilterResponse{
			Location:  filter.Location,
			Type:      filter.Type,
			MinPrice:  filter.MinPrice,
			MaxPrice:  filter.MaxPrice,
			Bedrooms:  filter.Bedrooms,
			Bathrooms: filter.Bathrooms,
			Feature:   filter.Feature,
		},
	})
}

// Create は物件を登録する。管理者専用。
// POST /admin/properties
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	property, err := h.service.Create(r.Context(), propertyFromRequest("", &req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPropertyResponse(property))
}

// Update は物件を更新する。管理者専用。
// PUT /admin/properties/:id
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	property, err := h.service.Update(r.Context(), propertyFromRequest(chi.URLParam(r, "id"), &req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPropertyResponse(property))
}

// Delete は物件を削除する。管理者専用。
// DELETE /admin/properties/:id
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// propertyFromRequest はリクエストボディからモデルに変換する。
func propertyFromRequest(id string, req *propertyRequest) *model.Property {
	return &model.Property{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Type:        model.PropertyType(req.Type),
		Location:    req.Location,
		Price:       req.Price,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Features:    req.Features,
		ImageURL:    req.ImageURL,
	}
}
