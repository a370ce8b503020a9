package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// MarketTrends は指定地域の市場動向分析を取得する。
// 地域名はパスセグメントとしてURLエスケープされる。
func (c *Client) MarketTrends(ctx context.Context, location string) (*MarketTrends, error) {
	var trends MarketTrends
	if err := c.do(ctx, http.MethodGet, "/ai/market-trends/"+url.PathEscape(location), nil, &trends); err != nil {
		return nil, err
	}
	return &trends, nil
}

// PricePrediction は物件の特徴量から家賃予測を取得する。
// レスポンスはAIプロバイダーの出力をそのまま返す。
func (c *Client) PricePrediction(ctx context.Context, property Property) (json.RawMessage, error) {
	var prediction json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/ai/price-prediction", property, &prediction); err != nil {
		return nil, err
	}
	return prediction, nil
}

// GenerateDescription は物件の紹介文を生成する。
func (c *Client) GenerateDescription(ctx context.Context, propertyID string) (string, error) {
	var resp struct {
		Description string `json:"description"`
	}
	if err := c.do(ctx, http.MethodGet, "/ai/generate-description/"+propertyID, nil, &resp); err != nil {
		return "", err
	}
	return resp.Description, nil
}

// PersonalizedInsights は指定ユーザー向けのパーソナライズ分析を取得する。
// レスポンスはAIプロバイダーの出力をそのまま返す。
func (c *Client) PersonalizedInsights(ctx context.Context, userID string) (json.RawMessage, error) {
	var insights json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/ai/insights/"+userID, nil, &insights); err != nil {
		return nil, err
	}
	return insights, nil
}
