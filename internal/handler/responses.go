package handler

import (
	"time"

	"github.com/hitoshi/sumika/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
// パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// propertyResponse は物件情報のAPIレスポンス。
type propertyResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Price       int       `json:"price"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	Features    []string  `json:"features"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// scoredPropertyResponse は適合スコア付き物件のAPIレスポンス。
// スコア算出に失敗した物件はcompatibilityScoreがnullになる。
type scoredPropertyResponse struct {
	propertyResponse
	CompatibilityScore *float64 `json:"compatibilityScore"`
}

// preferencesResponse は検索条件のAPIレスポンス。
type preferencesResponse struct {
	Location     string            `json:"location"`
	Budget       model.BudgetRange `json:"budget"`
	PropertyType string            `json:"propertyType"`
	MinBedrooms  int               `json:"minBedrooms"`
	MinBathrooms int               `json:"minBathrooms"`
	Features     []string          `json:"features"`
}

// newsArticleResponse は市場ニュース記事のAPIレスポンス。
type newsArticleResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"publishedAt"`
}

// newsSourceResponse はニュースソースのAPIレスポンス。
type newsSourceResponse struct {
	ID          string `json:"id"`
	FeedURL     string `json:"feedUrl"`
	SiteURL     string `json:"siteUrl"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	FetchStatus string `json:"fetchStatus"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

func toPropertyResponse(property *model.Property) propertyResponse {
	features := property.Features
	if features == nil {
		features = []string{}
	}
	return propertyResponse{
		ID:          property.ID,
		Title:       property.Title,
		Description: property.Description,
		Type:        string(property.Type),
		Location:    property.Location,
		Price:       property.Price,
		Bedrooms:    property.Bedrooms,
		Bathrooms:   property.Bathrooms,
		Features:    features,
		ImageURL:    property.ImageURL,
		CreatedAt:   property.CreatedAt,
		UpdatedAt:   property.UpdatedAt,
	}
}

func toPropertyResponses(properties []*model.Property) []propertyResponse {
	responses := make([]propertyResponse, 0, len(properties))
	for _, p := range properties {
		responses = append(responses, toPropertyResponse(p))
	}
	return responses
}

func toPreferencesResponse(prefs *model.Preferences) preferencesResponse {
	features := prefs.Features
	if features == nil {
		features = []string{}
	}
	return preferencesResponse{
		Location:     prefs.Location,
		Budget:       prefs.Budget,
		PropertyType: prefs.PropertyType,
		MinBedrooms:  prefs.MinBedrooms,
		MinBathrooms: prefs.MinBathrooms,
		Features:     features,
	}
}

func toNewsArticleResponses(articles []*model.NewsArticle) []newsArticleResponse {
	responses := make([]newsArticleResponse, 0, len(articles))
	for _, a := range articles {
		responses = append(responses, newsArticleResponse{
			ID:          a.ID,
			Title:       a.Title,
			Link:        a.Link,
			Summary:     a.Summary,
			PublishedAt: a.PublishedAt,
		})
	}
	return responses
}

func toNewsSourceResponse(source *model.NewsSource) newsSourceResponse {
	return newsSourceResponse{
		ID:          source.ID,
		FeedURL:     source.FeedURL,
		SiteURL:     source.SiteURL,
		Title:       source.Title,
		Location:    source.Location,
		FetchStatus: string(source.FetchStatus),
	}
}
