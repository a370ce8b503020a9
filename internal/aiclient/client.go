// Package aiclient はAIプロバイダーAPIのクライアントを提供する。
// 市場分析、価格予測、物件相性スコアなどの計算はすべて上流のプロバイダーに
// 委譲し、このパッケージは呼び出しとレスポンスの受け渡しのみを担当する。
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/sumika/internal/model"
)

// maxResponseSize はプロバイダーレスポンスの最大サイズ（1MB）。
const maxResponseSize = 1 << 20

// MetricsRecorder はプロバイダー呼び出しのメトリクス記録インターフェース。
// nilの場合は記録しない。
type MetricsRecorder interface {
	RecordAICall(operation string)
	RecordAIFailure(operation string)
	RecordAILatency(operation string, duration time.Duration)
}

// Client はAIプロバイダーAPIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    MetricsRecorder
	baseURL    string // テスト用にエンドポイントを差し替え可能
	apiKey     string
	timeout    time.Duration
}

// NewClient はClientの新しいインスタンスを生成する。
// apiKeyが空の場合はAuthorizationヘッダーを付与しない。
func NewClient(httpClient *http.Client, logger *slog.Logger, metrics MetricsRecorder, baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
	}
}

// MarketTrends は指定地域の市場動向分析を取得する。
// レスポンスはプロバイダーのJSONをそのまま返す。
func (c *Client) MarketTrends(ctx context.Context, location string) (json.RawMessage, error) {
	var result json.RawMessage
	path := "/market-trends/" + url.PathEscape(location)
	if err := c.doJSON(ctx, "market_trends", http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// PricePrediction は物件の適正価格予測を取得する。
func (c *Client) PricePrediction(ctx context.Context, property *model.Property) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.doJSON(ctx, "price_prediction", http.MethodPost, "/price-prediction", property, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateDescription は物件情報から紹介文を生成する。
func (c *Client) GenerateDescription(ctx context.Context, property *model.Property) (string, error) {
	var result struct {
		Description string `json:"description"`
	}
	if err := c.doJSON(ctx, "generate_description", http.MethodPost, "/generate-description", property, &result); err != nil {
		return "", err
	}
	return result.Description, nil
}

// insightsRequest はインサイト取得リクエストのペイロード。
type insightsRequest struct {
	Preferences *model.Preferences `json:"preferences,omitempty"`
	Favorites   []*model.Property  `json:"favorites"`
}

// Insights はユーザーの検索条件とお気に入りを元にしたインサイトを取得する。
func (c *Client) Insights(ctx context.Context, prefs *model.Preferences, favorites []*model.Property) (json.RawMessage, error) {
	var result json.RawMessage
	req := insightsRequest{Preferences: prefs, Favorites: favorites}
	if err := c.doJSON(ctx, "insights", http.MethodPost, "/insights", req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// compatibilityRequest は相性スコア計算リクエストのペイロード。
type compatibilityRequest struct {
	Property    *model.Property    `json:"property"`
	Preferences *model.Preferences `json:"preferences,omitempty"`
}

// CompatibilityScore は物件とユーザー検索条件の相性スコア（0.0〜1.0）を取得する。
func (c *Client) CompatibilityScore(ctx context.Context, property *model.Property, prefs *model.Preferences) (float64, error) {
	var result struct {
		Score float64 `json:"score"`
	}
	req := compatibilityRequest{Property: property, Preferences: prefs}
	if err := c.doJSON(ctx, "compatibility", http.MethodPost, "/compatibility", req, &result); err != nil {
		return 0, err
	}
	return result.Score, nil
}

// parsedQueryResponse は自然言語検索クエリの解析結果。
// 省略されたフィールドはフィルタ条件に含めない。
type parsedQueryResponse struct {
	Location  *string `json:"location"`
	Type      *string `json:"type"`
	MinPrice  *int    `json:"minPrice"`
	MaxPrice  *int    `json:"maxPrice"`
	Bedrooms  *int    `json:"bedrooms"`
	Bathrooms *int    `json:"bathrooms"`
	Feature   *string `json:"feature"`
}

// ParseSearchQuery は自然言語の検索クエリを構造化フィルタに変換する。
// 実際の物件検索はローカルのデータベースで行う。
func (c *Client) ParseSearchQuery(ctx context.Context, query string) (model.PropertyFilter, error) {
	var result parsedQueryResponse
	req := map[string]string{"query": query}
	if err := c.doJSON(ctx, "parse_query", http.MethodPost, "/parse-query", req, &result); err != nil {
		return model.PropertyFilter{}, err
	}

	return model.PropertyFilter{
		Location:  result.Location,
		Type:      result.Type,
		MinPrice:  result.MinPrice,
		MaxPrice:  result.MaxPrice,
		Bedrooms:  result.Bedrooms,
		Bathrooms: result.Bathrooms,
		Feature:   result.Feature,
	}, nil
}

// doJSON はJSONリクエストを送信し、レスポンスをoutにデコードする。
// 各呼び出しには設定されたタイムアウトが適用され、結果がメトリクスに記録される。
func (c *Client) doJSON(ctx context.Context, operation, method, path string, reqBody any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.metrics != nil {
		c.metrics.RecordAICall(operation)
		start := time.Now()
		defer func() {
			c.metrics.RecordAILatency(operation, time.Since(start))
		}()
	}

	// リクエストボディの構築
	var body io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("AIプロバイダーの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		if c.metrics != nil {
			c.metrics.RecordAIFailure(operation)
		}
		return fmt.Errorf("AIプロバイダーの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("AIプロバイダーがエラーステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		if c.metrics != nil {
			c.metrics.RecordAIFailure(operation)
		}
		return fmt.Errorf("AIプロバイダーがステータス %d を返しました", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error("AIプロバイダーのレスポンスのパースに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return nil
}
