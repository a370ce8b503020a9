package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// PropertyFilter は物件一覧の検索条件。nilまたは空のフィールドは
// クエリ文字列から除外される。
type PropertyFilter struct {
	Location  string
	Type      string
	MinPrice  *int
	MaxPrice  *int
	Bedrooms  *int
	Bathrooms *int
	Feature   string
}

// encode は検索条件をクエリ文字列に変換する。
// キーの順序はサーバーのパラメータ定義順に固定する。
func (f PropertyFilter) encode() string {
	var pairs []string
	add := func(key, value string) {
		pairs = append(pairs, key+"="+url.QueryEscape(value))
	}

	if f.Location != "" {
		add("location", f.Location)
	}
	if f.Type != "" {
		add("type", f.Type)
	}
	if f.MinPrice != nil {
		add("minPrice", strconv.Itoa(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		add("maxPrice", strconv.Itoa(*f.MaxPrice))
	}
	if f.Bedrooms != nil {
		add("bedrooms", strconv.Itoa(*f.Bedrooms))
	}
	if f.Bathrooms != nil {
		add("bathrooms", strconv.Itoa(*f.Bathrooms))
	}
	if f.Feature != "" {
		add("feature", f.Feature)
	}

	return strings.Join(pairs, "&")
}

// ListProperties は検索条件に一致する物件の一覧を取得する。
func (c *Client) ListProperties(ctx context.Context, filter PropertyFilter) ([]Property, error) {
	path := "/properties"
	if qs := filter.encode(); qs != "" {
		path += "?" + qs
	}

	var properties []Property
	if err := c.do(ctx, http.MethodGet, path, nil, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

// GetProperty は指定IDの物件を取得する。
func (c *Client) GetProperty(ctx context.Context, propertyID string) (*Property, error) {
	var property Property
	if err := c.do(ctx, http.MethodGet, "/properties/"+propertyID, nil, &property); err != nil {
		return nil, err
	}
	return &property, nil
}

// Recommendations は指定ユーザー向けのおすすめ物件を取得する。
// AIプロバイダーが利用できない場合、各物件のスコアはnilになる。
func (c *Client) Recommendations(ctx context.Context, userID string) ([]ScoredProperty, error) {
	var properties []ScoredProperty
	if err := c.do(ctx, http.MethodGet, "/properties/recommendations/"+userID, nil, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

// CompatibilityScore は物件とユーザーの適合度スコアを取得する。
func (c *Client) CompatibilityScore(ctx context.Context, propertyID, userID string) (float64, error) {
	var resp struct {
		Score float64 `json:"score"`
	}
	if err := c.do(ctx, http.MethodGet, "/properties/"+propertyID+"/compatibility/"+userID, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Score, nil
}

// SearchNLP は自然言語クエリで物件を検索する。
func (c *Client) SearchNLP(ctx context.Context, query string) (*NLPSearchResult, error) {
	reqBody := struct {
		Query string `json:"query"`
	}{Query: query}

	var result NLPSearchResult
	if err := c.do(ctx, http.MethodPost, "/properties/search/nlp", reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
