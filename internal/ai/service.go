// Package ai はAIプロバイダー連携のゲートウェイロジックを提供する。
// 分析の計算自体は行わず、上流プロバイダーの呼び出しと
// ローカルデータ（物件、検索条件、市場ニュース）の合成のみを担当する。
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/sumika/internal/model"
	"github.com/hitoshi/sumika/internal/repository"
)

// newsLimit は市場動向レスポンスに含める最新記事の最大件数。
const newsLimit = 10

// ProviderClient はAIプロバイダー呼び出しのインターフェース。
// aiclient.Clientの部分集合として定義する。
type ProviderClient interface {
	MarketTrends(ctx context.Context, location string) (json.RawMessage, error)
	PricePrediction(ctx context.Context, property *model.Property) (json.RawMessage, error)
	GenerateDescription(ctx context.Context, property *model.Property) (string, error)
	Insights(ctx context.Context, prefs *model.Preferences, favorites []*model.Property) (json.RawMessage, error)
}

// Sanitizer は生成された紹介文のサニタイズインターフェース。
type Sanitizer interface {
	SanitizeDescription(rawHTML string) string
}

// MarketTrendsResult は市場動向分析と関連ニュースの合成結果。
type MarketTrendsResult struct {
	Trends json.RawMessage      `json:"trends"`
	News   []*model.NewsArticle `json:"news"`
}

// Service はAIゲートウェイのサービス層。
type Service struct {
	provider     ProviderClient
	propertyRepo repository.PropertyRepository
	prefRepo     repository.PreferenceRepository
	favoriteRepo repository.FavoriteRepository
	articleRepo  repository.NewsArticleRepository
	sanitizer    Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	provider ProviderClient,
	propertyRepo repository.PropertyRepository,
	prefRepo repository.PreferenceRepository,
	favoriteRepo repository.FavoriteRepository,
	articleRepo repository.NewsArticleRepository,
	sanitizer Sanitizer,
) *Service {
	return &Service{
		provider:     provider,
		propertyRepo: propertyRepo,
		prefRepo:     prefRepo,
		favoriteRepo: favoriteRepo,
		articleRepo:  articleRepo,
		sanitizer:    sanitizer,
	}
}

// MarketTrends は指定地域の市場動向分析を取得し、最新の市場ニュースを合成する。
// ニュースの取得失敗は分析結果の返却を妨げない。
func (s *Service) MarketTrends(ctx context.Context, location string) (*MarketTrendsResult, error) {
	if strings.TrimSpace(location) == "" {
		return nil, model.NewValidationError("地域が指定されていません。")
	}

	trends, err := s.provider.MarketTrends(ctx, location)
	if err != nil {
		slog.Error("market trends request failed",
			slog.String("location", location),
			slog.String("error", err.Error()),
		)
		return nil, model.NewAIUnavailableError()
	}

	result := &MarketTrendsResult{
		Trends: trends,
		News:   []*model.NewsArticle{},
	}

	articles, err := s.articleRepo.ListRecent(ctx, location, newsLimit)
	if err != nil {
		slog.Warn("failed to load market news, returning trends only",
			slog.String("location", location),
			slog.String("error", err.Error()),
		)
		return result, nil
	}
	if articles != nil {
		result.News = articles
	}

	return result, nil
}

// PricePrediction は物件の適正価格予測を取得する。
func (s *Service) PricePrediction(ctx context.Context, property *model.Property) (json.RawMessage, error) {
	if property == nil {
		return nil, model.NewValidationError("物件情報が指定されていません。")
	}

	prediction, err := s.provider.PricePrediction(ctx, property)
	if err != nil {
		slog.Error("price prediction request failed",
			slog.String("error", err.Error()),
		)
		return nil, model.NewAIUnavailableError()
	}
	return prediction, nil
}

// GenerateDescription は物件の紹介文を生成する。
// 生成結果はサニタイズしてから返す。
func (s *Service) GenerateDescription(ctx context.Context, propertyID string) (string, error) {
	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		return "", fmt.Errorf("物件の取得に失敗しました: %w", err)
	}
	if property == nil {
		return "", model.NewPropertyNotFoundError(propertyID)
	}

	description, err := s.provider.GenerateDescription(ctx, property)
	if err != nil {
		slog.Error("description generation failed",
			slog.String("property_id", propertyID),
			slog.String("error", err.Error()),
		)
		return "", model.NewAIUnavailableError()
	}

	return s.sanitizer.SanitizeDescription(description), nil
}

// Insights はユーザーの検索条件とお気に入りを元にしたインサイトを取得する。
func (s *Service) Insights(ctx context.Context, userID string) (json.RawMessage, error) {
	prefs, err := s.prefRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("検索条件の取得に失敗しました: %w", err)
	}

	favorites, err := s.listFavoriteProperties(ctx, userID)
	if err != nil {
		return nil, err
	}

	insights, err := s.provider.Insights(ctx, prefs, favorites)
	if err != nil {
		slog.Error("insights request failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewAIUnavailableError()
	}
	return insights, nil
}

// listFavoriteProperties はユーザーのお気に入り物件を解決する。
// 削除済み物件はスキップする。
func (s *Service) listFavoriteProperties(ctx context.Context, userID string) ([]*model.Property, error) {
	ids, err := s.favoriteRepo.ListPropertyIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}

	favorites := make([]*model.Property, 0, len(ids))
	for _, id := range ids {
		property, err := s.propertyRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("お気に入り物件の取得に失敗しました: %w", err)
		}
		if property == nil {
			continue
		}
		favorites = append(favorites, property)
	}
	return favorites, nil
}
