// Package model はドメインモデルを定義する。
package model

import "time"

// PropertyType は物件の種別を表す。
type PropertyType string

const (
	// PropertyTypeApartment はアパート・マンション。
	PropertyTypeApartment PropertyType = "apartment"
	// PropertyTypeHouse は一戸建て。
	PropertyTypeHouse PropertyType = "house"
	// PropertyTypeStudio はワンルーム。
	PropertyTypeStudio PropertyType = "studio"
)

// Property は賃貸物件のリスティングを表す。
// DescriptionはサニタイズされたHTML。ImageURLは登録時にSSRF検証済み。
type Property struct {
	ID          string
	Title       string
	Description string
	Type        PropertyType
	Location    string
	Price       int
	Bedrooms    int
	Bathrooms   int
	Features    []string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PropertyFilter は物件一覧のクエリ条件を表す。
// nilのフィールドは条件に含めない。
type PropertyFilter struct {
	Location  *string
	Type      *string
	MinPrice  *int
	MaxPrice  *int
	Bedrooms  *int
	Bathrooms *int
	Feature   *string
	Limit     int
}

// ScoredProperty は物件とAI算出の適合スコアの組を表す。
// Scoreがnilの場合はスコア算出に失敗したことを示す（物件自体は有効）。
type ScoredProperty struct {
	Property
	CompatibilityScore *float64
}
