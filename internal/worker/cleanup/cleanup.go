// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れの認証トークンと、保持期間を超過した市場ニュース記事を
// 日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/sumika/internal/repository"
)

// Job は期限切れデータの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type Job struct {
	tokenRepo     repository.TokenRepository
	articleRepo   repository.NewsArticleRepository
	logger        *slog.Logger
	RetentionDays int // ニュース記事の保持日数（デフォルト: 90）
}

// NewJob は新しいJobを生成する。デフォルトの記事保持日数は90日。
func NewJob(tokenRepo repository.TokenRepository, articleRepo repository.NewsArticleRepository, logger *slog.Logger) *Job {
	return &Job{
		tokenRepo:     tokenRepo,
		articleRepo:   articleRepo,
		logger:        logger,
		RetentionDays: 90,
	}
}

// Run は期限切れトークンと古いニュース記事を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
// トークン削除に失敗しても記事削除は試行する。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	var firstErr error

	tokensDeleted, err := j.tokenRepo.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れトークンの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		firstErr = fmt.Errorf("期限切れトークンの削除に失敗: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -j.RetentionDays)
	articlesDeleted, err := j.articleRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("ニュース記事クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		if firstErr == nil {
			firstErr = fmt.Errorf("ニュース記事クリーンアップの実行に失敗: %w", err)
		}
	}

	if firstErr != nil {
		return firstErr
	}

	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("tokens_deleted", tokensDeleted),
		slog.Int64("articles_deleted", articlesDeleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
