package market

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/sumika/internal/model"
	"github.com/hitoshi/sumika/internal/repository"
)

// FeedDetector はフィード自動検出のインターフェース。
type FeedDetector interface {
	Detect(ctx context.Context, inputURL string) (*DetectResult, error)
}

// Service は市場ニュースソース管理のサービス層。管理者専用の操作を提供する。
type Service struct {
	sourceRepo repository.NewsSourceRepository
	detector   FeedDetector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(sourceRepo repository.NewsSourceRepository, detector FeedDetector) *Service {
	return &Service{
		sourceRepo: sourceRepo,
		detector:   detector,
	}
}

// RegisterSource はニュースソースを登録する。
// 入力URLからフィードを自動検出し、既に同じフィードが登録済みの場合は
// 既存のソースをそのまま返す（冪等）。
func (s *Service) RegisterSource(ctx context.Context, inputURL, location string) (*model.NewsSource, error) {
	result, err := s.detector.Detect(ctx, inputURL)
	if err != nil {
		return nil, err
	}

	// 重複チェック
	existing, err := s.sourceRepo.FindByFeedURL(ctx, result.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("ニュースソースの重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	source := &model.NewsSource{
		ID:          uuid.New().String(),
		FeedURL:     result.FeedURL,
		SiteURL:     inputURL,
		Title:       result.Title,
		Location:    location,
		FetchStatus: model.NewsFetchStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("ニュースソースの登録に失敗しました: %w", err)
	}

	slog.Info("news source registered",
		slog.String("source_id", source.ID),
		slog.String("feed_url", source.FeedURL),
		slog.String("location", location),
	)

	return source, nil
}

// ListSources は全ニュースソースを返す。
func (s *Service) ListSources(ctx context.Context) ([]*model.NewsSource, error) {
	sources, err := s.sourceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ニュースソース一覧の取得に失敗しました: %w", err)
	}
	return sources, nil
}

// DeleteSource はニュースソースを削除する。保存済みの記事はCASCADE削除される。
func (s *Service) DeleteSource(ctx context.Context, id string) error {
	existing, err := s.sourceRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ニュースソースの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewSourceNotFoundError(id)
	}

	if err := s.sourceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("ニュースソースの削除に失敗しました: %w", err)
	}

	slog.Info("news source deleted",
		slog.String("source_id", id),
	)

	return nil
}
