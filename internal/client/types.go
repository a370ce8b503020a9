package client

import (
	"encoding/json"
	"time"
)

// User はAPIが返すユーザー情報。
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse はサインアップ・ログインのレスポンス。
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// BudgetRange は希望家賃の範囲。
type BudgetRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Preferences はユーザーの物件希望条件。
type Preferences struct {
	Location     string      `json:"location"`
	Budget       BudgetRange `json:"budget"`
	PropertyType string      `json:"propertyType"`
	MinBedrooms  int         `json:"minBedrooms"`
	MinBathrooms int         `json:"minBathrooms"`
	Features     []string    `json:"features"`
}

// Property は物件情報。
type Property struct {
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

// ScoredProperty は適合度スコア付きの物件情報。
// AIプロバイダーが利用できない場合、スコアはnullになる。
type ScoredProperty struct {
	Property
	CompatibilityScore *float64 `json:"compatibilityScore"`
}

// ParsedFilter は自然言語検索から抽出された検索条件。
type ParsedFilter struct {
	Location  *string `json:"location,omitempty"`
	Type      *string `json:"type,omitempty"`
	MinPrice  *int    `json:"minPrice,omitempty"`
	MaxPrice  *int    `json:"maxPrice,omitempty"`
	Bedrooms  *int    `json:"bedrooms,omitempty"`
	Bathrooms *int    `json:"bathrooms,omitempty"`
	Feature   *string `json:"feature,omitempty"`
}

// NLPSearchResult は自然言語検索のレスポンス。
type NLPSearchResult struct {
	Properties []Property   `json:"properties"`
	Filter     ParsedFilter `json:"filter"`
}

// NewsArticle は市場ニュース記事。
type NewsArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"publishedAt"`
}

// MarketTrends は地域の市場動向分析と関連ニュース。
// TrendsはAIプロバイダーのレスポンスをそのまま保持する。
type MarketTrends struct {
	Trends json.RawMessage `json:"trends"`
	News   []NewsArticle   `json:"news"`
}
