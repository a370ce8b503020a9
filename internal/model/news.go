// Package model はドメインモデルを定義する。
package model

import "time"

// NewsFetchStatus はニュースソースのフェッチ状態を表す。
type NewsFetchStatus string

const (
	// NewsFetchStatusActive はアクティブなフェッチ状態。
	NewsFetchStatusActive NewsFetchStatus = "active"
	// NewsFetchStatusError は連続エラーによる停止状態。
	NewsFetchStatusError NewsFetchStatus = "error"
)

// NewsSource は市場ニュースの取得元（RSS/Atomフィード）を表す。
// 管理者が登録し、ワーカーが定期フェッチする。
type NewsSource struct {
	ID                string
	FeedURL           string
	SiteURL           string
	Title             string
	Location          string
	FetchStatus       NewsFetchStatus
	ConsecutiveErrors int
	ErrorMessage      string
	LastFetchedAt     time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewsArticle は取得済みの市場ニュース記事を表す。
// Summaryはサニタイズ済みHTML。
type NewsArticle struct {
	ID          string
	SourceID    string
	Title       string
	Link        string
	Summary     string
	PublishedAt time.Time
	CreatedAt   time.Time
}
