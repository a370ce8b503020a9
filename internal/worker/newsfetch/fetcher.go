// Package newsfetch は市場ニュースのバックグラウンドフェッチ処理を提供する。
// スケジューラとフェッチャーを含む。
package newsfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/sumika/internal/model"
	"github.com/hitoshi/sumika/internal/repository"
)

// maxConsecutiveErrors はソースをerror状態に遷移させる連続エラー回数。
const maxConsecutiveErrors = 5

// URLGuard はSSRF検証のインターフェース。
type URLGuard interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// SummarySanitizer は記事サマリーのサニタイズインターフェース。
type SummarySanitizer interface {
	SanitizeSummary(rawHTML string) string
}

// MetricsRecorder はフェッチ結果のメトリクス記録インターフェース。nilの場合は記録しない。
type MetricsRecorder interface {
	RecordNewsFetchSuccess(sourceID string)
	RecordNewsFetchFailure(sourceID string, reason string)
	RecordArticlesUpserted(count int)
}

// Fetcher は個別ニュースソースのHTTPフェッチとパースを行う。
// SSRF検証付きクライアントで取得し、gofeedでパースした記事を
// サニタイズして保存する。
type Fetcher struct {
	sourceRepo  repository.NewsSourceRepository
	articleRepo repository.NewsArticleRepository
	urlGuard    URLGuard
	sanitizer   SummarySanitizer
	metrics     MetricsRecorder
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(
	sourceRepo repository.NewsSourceRepository,
	articleRepo repository.NewsArticleRepository,
	urlGuard URLGuard,
	sanitizer SummarySanitizer,
	metrics MetricsRecorder,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	return &Fetcher{
		sourceRepo:  sourceRepo,
		articleRepo: articleRepo,
		urlGuard:    urlGuard,
		sanitizer:   sanitizer,
		metrics:     metrics,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// FetchSource はニュースソースをフェッチし、結果に応じてソース状態を更新する。
// 登録後にDNSが変わる可能性があるため、SSRF検証はフェッチのたびに行う。
func (f *Fetcher) FetchSource(ctx context.Context, source *model.NewsSource) error {
	start := time.Now()

	if err := f.urlGuard.ValidateURL(source.FeedURL); err != nil {
		return f.recordFailure(ctx, source, fmt.Sprintf("SSRF検証失敗: %s", err.Error()))
	}

	client := f.urlGuard.NewSafeClient(f.timeout, f.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.FeedURL, nil)
	if err != nil {
		return f.recordFailure(ctx, source, fmt.Sprintf("リクエスト作成失敗: %s", err.Error()))
	}
	req.Header.Set("User-Agent", "Sumika/1.0 Market News")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return f.recordFailure(ctx, source, fmt.Sprintf("HTTPリクエスト失敗: %s", err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return f.recordFailure(ctx, source,
			fmt.Sprintf("HTTPステータス %d が返されました", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return f.recordFailure(ctx, source, fmt.Sprintf("レスポンス読み取り失敗: %s", err.Error()))
	}

	parsedFeed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return f.recordFailure(ctx, source, fmt.Sprintf("フィードのパース失敗: %s", err.Error()))
	}

	// フィード側のタイトルで未設定分を補完する
	if source.Title == "" && parsedFeed.Title != "" {
		source.Title = parsedFeed.Title
	}
	if source.SiteURL == "" && parsedFeed.Link != "" {
		source.SiteURL = parsedFeed.Link
	}

	inserted := 0
	for _, item := range parsedFeed.Items {
		article := f.articleFromItem(source.ID, item)
		if article == nil {
			continue
		}

		isNew, err := f.articleRepo.Upsert(ctx, article)
		if err != nil {
			f.logger.Error("記事の保存に失敗しました",
				slog.String("source_id", source.ID),
				slog.String("link", article.Link),
				slog.String("error", err.Error()),
			)
			continue
		}
		if isNew {
			inserted++
		}
	}

	f.recordSuccess(ctx, source)

	if f.metrics != nil {
		f.metrics.RecordNewsFetchSuccess(source.ID)
		f.metrics.RecordArticlesUpserted(inserted)
	}

	f.logger.Info("ニュースソースのフェッチが完了しました",
		slog.String("source_id", source.ID),
		slog.String("feed_url", source.FeedURL),
		slog.Int("items_total", len(parsedFeed.Items)),
		slog.Int("items_inserted", inserted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// articleFromItem はgofeedの記事をNewsArticleに変換する。
// タイトルまたはリンクのない記事はスキップする（nilを返す）。
func (f *Fetcher) articleFromItem(sourceID string, item *gofeed.Item) *model.NewsArticle {
	if item == nil || item.Title == "" || item.Link == "" {
		return nil
	}

	publishedAt := time.Now()
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		publishedAt = *item.UpdatedParsed
	}

	return &model.NewsArticle{
		ID:          uuid.New().String(),
		SourceID:    sourceID,
		Title:       item.Title,
		Link:        item.Link,
		Summary:     f.sanitizer.SanitizeSummary(item.Description),
		PublishedAt: publishedAt,
	}
}

// recordSuccess はフェッチ成功時のソース状態を保存する。
func (f *Fetcher) recordSuccess(ctx context.Context, source *model.NewsSource) {
	source.FetchStatus = model.NewsFetchStatusActive
	source.ConsecutiveErrors = 0
	source.ErrorMessage = ""
	source.LastFetchedAt = time.Now()

	if err := f.sourceRepo.UpdateFetchState(ctx, source); err != nil {
		f.logger.Error("ソース状態の更新に失敗しました",
			slog.String("source_id", source.ID),
			slog.String("error", err.Error()),
		)
	}
}

// recordFailure はフェッチ失敗を記録し、連続エラー回数が上限に達した
// ソースをerror状態に遷移させてフェッチ対象から外す。
func (f *Fetcher) recordFailure(ctx context.Context, source *model.NewsSource, reason string) error {
	source.ConsecutiveErrors++
	source.ErrorMessage = reason
	source.LastFetchedAt = time.Now()
	if source.ConsecutiveErrors >= maxConsecutiveErrors {
		source.FetchStatus = model.NewsFetchStatusError
	}

	if f.metrics != nil {
		f.metrics.RecordNewsFetchFailure(source.ID, reason)
	}

	f.logger.Warn("ニュースソースのフェッチに失敗しました",
		slog.String("source_id", source.ID),
		slog.String("feed_url", source.FeedURL),
		slog.String("reason", reason),
		slog.Int("consecutive_errors", source.ConsecutiveErrors),
		slog.String("fetch_status", string(source.FetchStatus)),
	)

	if err := f.sourceRepo.UpdateFetchState(ctx, source); err != nil {
		f.logger.Error("ソース状態の更新に失敗しました",
			slog.String("source_id", source.ID),
			slog.String("error", err.Error()),
		)
	}

	return fmt.Errorf("ニュースソースのフェッチに失敗: %s", reason)
}
