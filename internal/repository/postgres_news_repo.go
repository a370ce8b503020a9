package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/sumika/internal/model"
)

// PostgresNewsSourceRepo はPostgreSQLを使用したニュースソースリポジトリ。
type PostgresNewsSourceRepo struct {
	db *sql.DB
}

// NewPostgresNewsSourceRepo はPostgresNewsSourceRepoを生成する。
func NewPostgresNewsSourceRepo(db *sql.DB) *PostgresNewsSourceRepo {
	return &PostgresNewsSourceRepo{db: db}
}

// Create はニュースソースを作成する。
func (r *PostgresNewsSourceRepo) Create(ctx context.Context, source *model.NewsSource) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO news_sources (id, feed_url, site_url, title, location,
		                           fetch_status, consecutive_errors, error_message, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		source.ID, source.FeedURL, source.SiteURL, source.Title, source.Location,
		source.FetchStatus, source.ConsecutiveErrors, source.ErrorMessage,
		source.CreatedAt, source.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert news source: %w", err)
	}
	return nil
}

// scanNewsSource は1行分のニュースソースをスキャンする。
func scanNewsSource(scan func(...interface{}) error) (*model.NewsSource, error) {
	s := &model.NewsSource{}
	var lastFetchedAt sql.NullTime
	err := scan(
		&s.ID, &s.FeedURL, &s.SiteURL, &s.Title, &s.Location,
		&s.FetchStatus, &s.ConsecutiveErrors, &s.ErrorMessage,
		&lastFetchedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastFetchedAt.Valid {
		s.LastFetchedAt = lastFetchedAt.Time
	}
	return s, nil
}

const newsSourceColumns = `id, feed_url, site_url, title, location,
	fetch_status, consecutive_errors, error_message, last_fetched_at, created_at, updated_at`

// FindByID は指定IDのニュースソースを取得する。見つからない場合はnilを返す。
func (r *PostgresNewsSourceRepo) FindByID(ctx context.Context, id string) (*model.NewsSource, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+newsSourceColumns+` FROM news_sources WHERE id = $1`, id,
	)
	source, err := scanNewsSource(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find news source: %w", err)
	}
	return source, nil
}

// FindByFeedURL はフィードURLでニュースソースを検索する。見つからない場合はnilを返す。
func (r *PostgresNewsSourceRepo) FindByFeedURL(ctx context.Context, feedURL string) (*model.NewsSource, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+newsSourceColumns+` FROM news_sources WHERE feed_url = $1`, feedURL,
	)
	source, err := scanNewsSource(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find news source by URL: %w", err)
	}
	return source, nil
}

// queryNewsSources は条件付きクエリでニュースソース一覧を取得する。
func (r *PostgresNewsSourceRepo) queryNewsSources(ctx context.Context, query string, args ...interface{}) ([]*model.NewsSource, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query news sources: %w", err)
	}
	defer rows.Close()

	var sources []*model.NewsSource
	for rows.Next() {
		source, err := scanNewsSource(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news source: %w", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate news sources: %w", err)
	}

	return sources, nil
}

// List は全ニュースソースを返す。
func (r *PostgresNewsSourceRepo) List(ctx context.Context) ([]*model.NewsSource, error) {
	return r.queryNewsSources(ctx,
		`SELECT `+newsSourceColumns+` FROM news_sources ORDER BY created_at DESC`,
	)
}

// ListActive はフェッチ対象（active）のニュースソースを返す。
func (r *PostgresNewsSourceRepo) ListActive(ctx context.Context) ([]*model.NewsSource, error) {
	return r.queryNewsSources(ctx,
		`SELECT `+newsSourceColumns+` FROM news_sources
		 WHERE fetch_status = 'active' ORDER BY created_at`,
	)
}

// UpdateFetchState はフェッチ結果に応じた状態を更新する。
func (r *PostgresNewsSourceRepo) UpdateFetchState(ctx context.Context, source *model.NewsSource) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE news_sources SET
		     title = $2, fetch_status = $3, consecutive_errors = $4,
		     error_message = $5, last_fetched_at = $6, updated_at = now()
		 WHERE id = $1`,
		source.ID, source.Title, source.FetchStatus, source.ConsecutiveErrors,
		source.ErrorMessage, source.LastFetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update news source state: %w", err)
	}
	return nil
}

// Delete は指定IDのニュースソースを削除する。関連記事はCASCADE削除される。
func (r *PostgresNewsSourceRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM news_sources WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete news source: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("news source not found: %s", id)
	}

	return nil
}

// PostgresNewsArticleRepo はPostgreSQLを使用したニュース記事リポジトリ。
type PostgresNewsArticleRepo struct {
	db *sql.DB
}

// NewPostgresNewsArticleRepo はPostgresNewsArticleRepoを生成する。
func NewPostgresNewsArticleRepo(db *sql.DB) *PostgresNewsArticleRepo {
	return &PostgresNewsArticleRepo{db: db}
}

// Upsert は記事を冪等に保存する。source_idとlinkの組で同一性を判定する。
// 新規保存した場合はtrueを返す。
func (r *PostgresNewsArticleRepo) Upsert(ctx context.Context, article *model.NewsArticle) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO news_articles (id, source_id, title, link, summary, published_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (source_id, link) DO NOTHING`,
		article.ID, article.SourceID, article.Title, article.Link,
		article.Summary, article.PublishedAt, article.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert news article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// ListRecent は公開日時の降順で最新記事を返す。
// locationが空でない場合はソースのlocationで絞り込む。
func (r *PostgresNewsArticleRepo) ListRecent(ctx context.Context, location string, limit int) ([]*model.NewsArticle, error) {
	query := `SELECT a.id, a.source_id, a.title, a.link, a.summary, a.published_at, a.created_at
	          FROM news_articles a
	          JOIN news_sources s ON s.id = a.source_id`
	args := []interface{}{}

	if location != "" {
		args = append(args, location)
		query += fmt.Sprintf(" WHERE s.location = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY a.published_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list news articles: %w", err)
	}
	defer rows.Close()

	var articles []*model.NewsArticle
	for rows.Next() {
		a := &model.NewsArticle{}
		if err := rows.Scan(&a.ID, &a.SourceID, &a.Title, &a.Link, &a.Summary, &a.PublishedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan news article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate news articles: %w", err)
	}

	return articles, nil
}

// DeleteOlderThan は指定日時より古い記事を削除し、削除件数を返す。
func (r *PostgresNewsArticleRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM news_articles WHERE published_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old news articles: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected, nil
}

// compile-time interface checks
var (
	_ NewsSourceRepository  = (*PostgresNewsSourceRepo)(nil)
	_ NewsArticleRepository = (*PostgresNewsArticleRepo)(nil)
)
