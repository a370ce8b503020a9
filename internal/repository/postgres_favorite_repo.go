package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// Add はお気に入りを冪等に追加する。既に存在する場合は何もしない。
func (r *PostgresFavoriteRepo) Add(ctx context.Context, userID, propertyID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, property_id, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id, property_id) DO NOTHING`,
		userID, propertyID,
	)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove はお気に入りを削除する。対象が存在しなくてもエラーにしない。
func (r *PostgresFavoriteRepo) Remove(ctx context.Context, userID, propertyID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND property_id = $2`,
		userID, propertyID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// ListPropertyIDs はユーザーのお気に入り物件IDを追加日時の降順で返す。
func (r *PostgresFavoriteRepo) ListPropertyIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT property_id FROM favorites
		 WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	// 0件の場合もJSONで空配列として返せるよう空スライスを返す
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}

	return ids, nil
}

// compile-time interface check
var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
