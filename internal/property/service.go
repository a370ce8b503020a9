// Package property は物件の検索、管理、レコメンドのドメインロジックを提供する。
package property

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/sumika/internal/model"
	"github.com/hitoshi/sumika/internal/repository"
)

// recommendationLimit はレコメンド候補の最大件数。
const recommendationLimit = 20

// AIScorer は物件相性スコアの計算インターフェース。
// aiclient.Clientの部分集合として定義する。
type AIScorer interface {
	CompatibilityScore(ctx context.Context, property *model.Property, prefs *model.Preferences) (float64, error)
}

// QueryParser は自然言語検索クエリの解析インターフェース。
type QueryParser interface {
	ParseSearchQuery(ctx context.Context, query string) (model.PropertyFilter, error)
}

// Sanitizer は物件説明文のサニタイズインターフェース。
// security.ContentSanitizerServiceの部分集合として定義する。
type Sanitizer interface {
	SanitizeDescription(rawHTML string) string
}

// ImageURLValidator は物件画像URLの検証インターフェース。
// security.URLGuardServiceの部分集合として定義する。
type ImageURLValidator interface {
	ValidateImageURL(rawURL string) error
}

// Service は物件のサービス層。
type Service struct {
	propertyRepo repository.PropertyRepository
	prefRepo     repository.PreferenceRepository
	scorer       AIScorer
	parser       QueryParser
	sanitizer    Sanitizer
	urlValidator ImageURLValidator
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	propertyRepo repository.PropertyRepository,
	prefRepo repository.PreferenceRepository,
	scorer AIScorer,
	parser QueryParser,
	sanitizer Sanitizer,
	urlValidator ImageURLValidator,
) *Service {
	return &Service{
		propertyRepo: propertyRepo,
		prefRepo:     prefRepo,
		scorer:       scorer,
		parser:       parser,
		sanitizer:    sanitizer,
		urlValidator: urlValidator,
	}
}

// List は検索条件に合致する物件一覧を返す。
func (s *Service) List(ctx context.Context, filter model.PropertyFilter) ([]*model.Property, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	properties, err := s.propertyRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("物件一覧の取得に失敗しました: %w", err)
	}
	return properties, nil
}

// Get は指定IDの物件を取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Property, error) {
	property, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("物件の取得に失敗しました: %w", err)
	}
	if property == nil {
		return nil, model.NewPropertyNotFoundError(id)
	}
	return property, nil
}

// Create は物件を新規登録する。管理者専用。
// 説明文はサニタイズし、画像URLはSSRFガードで検証する。
func (s *Service) Create(ctx context.Context, property *model.Property) (*model.Property, error) {
	if err := s.prepare(property); err != nil {
		return nil, err
	}

	now := time.Now()
	property.ID = uuid.New().String()
	property.CreatedAt = now
	property.UpdatedAt = now

	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, fmt.Errorf("物件の登録に失敗しました: %w", err)
	}

	slog.Info("property created",
		slog.String("property_id", property.ID),
		slog.String("location", property.Location),
	)

	return property, nil
}

// Update は物件情報を上書き更新する。管理者専用。
func (s *Service) Update(ctx context.Context, property *model.Property) (*model.Property, error) {
	existing, err := s.propertyRepo.FindByID(ctx, property.ID)
	if err != nil {
		return nil, fmt.Errorf("物件の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewPropertyNotFoundError(property.ID)
	}

	if err := s.prepare(property); err != nil {
		return nil, err
	}

	property.CreatedAt = existing.CreatedAt
	property.UpdatedAt = time.Now()

	if err := s.propertyRepo.Update(ctx, property); err != nil {
		return nil, fmt.Errorf("物件の更新に失敗しました: %w", err)
	}

	return property, nil
}

// Delete は物件を削除する。管理者専用。
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("物件の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewPropertyNotFoundError(id)
	}

	if err := s.propertyRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("物件の削除に失敗しました: %w", err)
	}

	slog.Info("property deleted",
		slog.String("property_id", id),
	)

	return nil
}

// Recommendations はユーザーの検索条件に基づくレコメンド物件を返す。
// AIプロバイダーが利用可能な場合は相性スコアを付与する。
// プロバイダー障害時はスコアなしで返し、エラーにはしない。
func (s *Service) Recommendations(ctx context.Context, userID string) ([]*model.ScoredProperty, error) {
	prefs, err := s.prefRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("検索条件の取得に失敗しました: %w", err)
	}

	filter := filterFromPreferences(prefs)
	filter.Limit = recommendationLimit

	properties, err := s.propertyRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("レコメンド候補の取得に失敗しました: %w", err)
	}

	scored := make([]*model.ScoredProperty, 0, len(properties))
	scoringFailed := false
	for _, p := range properties {
		sp := &model.ScoredProperty{Property: *p}

		// 一度失敗したらこのリクエスト内では再試行しない
		if !scoringFailed {
			score, err := s.scorer.CompatibilityScore(ctx, p, prefs)
			if err != nil {
				scoringFailed = true
				slog.Warn("compatibility scoring unavailable, returning unscored results",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
			} else {
				sp.CompatibilityScore = &score
			}
		}

		scored = append(scored, sp)
	}

	return scored, nil
}

// Compatibility は物件とユーザー検索条件の相性スコアを返す。
// プロバイダー障害時はAI_UNAVAILABLEを返す。
func (s *Service) Compatibility(ctx context.Context, propertyID, userID string) (float64, error) {
	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		return 0, fmt.Errorf("物件の取得に失敗しました: %w", err)
	}
	if property == nil {
		return 0, model.NewPropertyNotFoundError(propertyID)
	}

	prefs, err := s.prefRepo.FindByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("検索条件の取得に失敗しました: %w", err)
	}

	score, err := s.scorer.CompatibilityScore(ctx, property, prefs)
	if err != nil {
		slog.Error("compatibility scoring failed",
			slog.String("property_id", propertyID),
			slog.String("error", err.Error()),
		)
		return 0, model.NewAIUnavailableError()
	}

	return score, nil
}

// SearchNLP は自然言語クエリをAIプロバイダーで構造化フィルタに変換し、
// ローカルデータベースで物件を検索する。
// クエリ解析の失敗はAI_UNAVAILABLEを返す。
func (s *Service) SearchNLP(ctx context.Context, query string) ([]*model.Property, model.PropertyFilter, error) {
	if strings.TrimSpace(query) == "" {
		return nil, model.PropertyFilter{}, model.NewValidationError("検索クエリが指定されていません。")
	}

	filter, err := s.parser.ParseSearchQuery(ctx, query)
	if err != nil {
		slog.Error("NLP query parsing failed",
			slog.String("error", err.Error()),
		)
		return nil, model.PropertyFilter{}, model.NewAIUnavailableError()
	}

	properties, err := s.propertyRepo.List(ctx, filter)
	if err != nil {
		return nil, model.PropertyFilter{}, fmt.Errorf("物件一覧の取得に失敗しました: %w", err)
	}

	return properties, filter, nil
}

// prepare は登録・更新前の検証とサニタイズを行う。
func (s *Service) prepare(property *model.Property) error {
	if strings.TrimSpace(property.Title) == "" {
		return model.NewValidationError("物件タイトルが指定されていません。")
	}
	if property.Price <= 0 {
		return model.NewValidationError("価格には正の値を指定してください。")
	}
	if !validPropertyType(property.Type) {
		return model.NewValidationError(
			fmt.Sprintf("物件タイプが不正です: %s", property.Type))
	}
	if property.Bedrooms < 0 || property.Bathrooms < 0 {
		return model.NewValidationError("部屋数には0以上の値を指定してください。")
	}

	if property.ImageURL != "" {
		if err := s.urlValidator.ValidateImageURL(property.ImageURL); err != nil {
			return model.NewInvalidURLError(err.Error())
		}
	}

	property.Description = s.sanitizer.SanitizeDescription(property.Description)
	return nil
}

// validateFilter は検索条件の値域を検証する。
func validateFilter(filter model.PropertyFilter) error {
	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		return model.NewInvalidFilterError("minPriceには0以上の値を指定してください")
	}
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return model.NewInvalidFilterError("maxPriceには0以上の値を指定してください")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return model.NewInvalidFilterError("minPriceがmaxPriceを超えています")
	}
	if filter.Bedrooms != nil && *filter.Bedrooms < 0 {
		return model.NewInvalidFilterError("bedroomsには0以上の値を指定してください")
	}
	if filter.Bathrooms != nil && *filter.Bathrooms < 0 {
		return model.NewInvalidFilterError("bathroomsには0以上の値を指定してください")
	}
	if filter.Type != nil && !validPropertyType(model.PropertyType(*filter.Type)) {
		return model.NewInvalidFilterError(
			fmt.Sprintf("typeが不正です: %s", *filter.Type))
	}
	return nil
}

// validPropertyType は物件タイプの妥当性を判定する。
func validPropertyType(t model.PropertyType) bool {
	switch t {
	case model.PropertyTypeApartment, model.PropertyTypeHouse, model.PropertyTypeStudio:
		return true
	}
	return false
}

// filterFromPreferences はユーザー検索条件を物件フィルタに変換する。
// prefsがnilの場合は条件なしのフィルタを返す。
func filterFromPreferences(prefs *model.Preferences) model.PropertyFilter {
	var filter model.PropertyFilter
	if prefs == nil {
		return filter
	}

	if prefs.Location != "" {
		location := prefs.Location
		filter.Location = &location
	}
	if prefs.PropertyType != "" {
		propertyType := prefs.PropertyType
		filter.Type = &propertyType
	}
	if prefs.Budget.Min > 0 {
		minPrice := prefs.Budget.Min
		filter.MinPrice = &minPrice
	}
	if prefs.Budget.Max > 0 {
		maxPrice := prefs.Budget.Max
		filter.MaxPrice = &maxPrice
	}
	if prefs.MinBedrooms > 0 {
		bedrooms := prefs.MinBedrooms
		filter.Bedrooms = &bedrooms
	}
	if prefs.MinBathrooms > 0 {
		bathrooms := prefs.MinBathrooms
		filter.Bathrooms = &bathrooms
	}
	if len(prefs.Features) > 0 {
		feature := prefs.Features[0]
		filter.Feature = &feature
	}

	return filter
}
