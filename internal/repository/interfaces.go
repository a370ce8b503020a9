// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/sumika/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// List は全ユーザーを作成日時の降順で返す。管理画面用。
	List(ctx context.Context) ([]*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するauth_tokens、preferences、favoritesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// TokenRepository はBearerトークンの永続化インターフェース。
type TokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.AuthToken) error
	// Find は指定トークンを取得する。期限切れまたは未登録の場合はnilを返す。
	Find(ctx context.Context, token string) (*model.AuthToken, error)
	// Delete は指定トークンを削除する。対象が存在しなくてもエラーにしない。
	Delete(ctx context.Context, token string) error
	// DeleteByUserID は指定ユーザーの全トークンを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// PreferenceRepository はユーザー検索条件の永続化インターフェース。
type PreferenceRepository interface {
	// FindByUserID は指定ユーザーの検索条件を取得する。未保存の場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Preferences, error)
	// Upsert は検索条件を冪等に保存する。
	Upsert(ctx context.Context, prefs *model.Preferences) error
}

// PropertyRepository は物件データの永続化インターフェース。
type PropertyRepository interface {
	// FindByID は指定IDの物件を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Property, error)

	// List は検索条件に合致する物件を作成日時の降順で返す。
	// filterのnilフィールドは条件に含めない。
	List(ctx context.Context, filter model.PropertyFilter) ([]*model.Property, error)

	// Create は物件を作成する。
	Create(ctx context.Context, property *model.Property) error

	// Update は物件情報を上書き更新する。
	Update(ctx context.Context, property *model.Property) error

	// Delete は指定IDの物件を削除する。関連するfavoritesはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// FavoriteRepository はお気に入りの永続化インターフェース。
type FavoriteRepository interface {
	// Add はお気に入りを冪等に追加する。既に存在する場合は何もしない。
	Add(ctx context.Context, userID, propertyID string) error
	// Remove はお気に入りを削除する。対象が存在しなくてもエラーにしない。
	Remove(ctx context.Context, userID, propertyID string) error
	// ListPropertyIDs はユーザーのお気に入り物件IDを追加日時の降順で返す。
	ListPropertyIDs(ctx context.Context, userID string) ([]string, error)
}

// NewsSourceRepository は市場ニュースソースの永続化インターフェース。
type NewsSourceRepository interface {
	// Create はニュースソースを作成する。
	Create(ctx context.Context, source *model.NewsSource) error
	// FindByID は指定IDのニュースソースを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.NewsSource, error)
	// FindByFeedURL はフィードURLでニュースソースを検索する。見つからない場合はnilを返す。
	FindByFeedURL(ctx context.Context, feedURL string) (*model.NewsSource, error)
	// List は全ニュースソースを返す。
	List(ctx context.Context) ([]*model.NewsSource, error)
	// ListActive はフェッチ対象（active）のニュースソースを返す。
	ListActive(ctx context.Context) ([]*model.NewsSource, error)
	// UpdateFetchState はフェッチ結果に応じた状態を更新する。
	UpdateFetchState(ctx context.Context, source *model.NewsSource) error
	// Delete は指定IDのニュースソースを削除する。関連記事はCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// NewsArticleRepository は市場ニュース記事の永続化インターフェース。
type NewsArticleRepository interface {
	// Upsert は記事を冪等に保存する。source_idとlinkの組で同一性を判定する。
	// 新規保存した場合はtrueを返す。
	Upsert(ctx context.Context, article *model.NewsArticle) (bool, error)
	// ListRecent は公開日時の降順で最新記事を返す。
	// locationが空でない場合はソースのlocationで絞り込む。
	ListRecent(ctx context.Context, location string, limit int) ([]*model.NewsArticle, error)
	// DeleteOlderThan は指定日時より古い記事を削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
