package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/sumika/internal/model"
)

// PostgresPreferenceRepo はPostgreSQLを使用した検索条件リポジトリ。
type PostgresPreferenceRepo struct {
	db *sql.DB
}

// NewPostgresPreferenceRepo はPostgresPreferenceRepoを生成する。
func NewPostgresPreferenceRepo(db *sql.DB) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{db: db}
}

// FindByUserID は指定ユーザーの検索条件を取得する。未保存の場合はnilを返す。
func (r *PostgresPreferenceRepo) FindByUserID(ctx context.Context, userID string) (*model.Preferences, error) {
	prefs := &model.Preferences{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, location, budget_min, budget_max, property_type,
		        min_bedrooms, min_bathrooms, features, updated_at
		 FROM preferences WHERE user_id = $1`,
		userID,
	).Scan(
		&prefs.UserID, &prefs.Location, &prefs.Budget.Min, &prefs.Budget.Max,
		&prefs.PropertyType, &prefs.MinBedrooms, &prefs.MinBathrooms,
		pq.Array(&prefs.Features), &prefs.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find preferences: %w", err)
	}

	return prefs, nil
}

// Upsert は検索条件を冪等に保存する。
func (r *PostgresPreferenceRepo) Upsert(ctx context.Context, prefs *model.Preferences) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, location, budget_min, budget_max, property_type,
		                          min_bedrooms, min_bathrooms, features, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id) DO UPDATE SET
		     location = EXCLUDED.location,
		     budget_min = EXCLUDED.budget_min,
		     budget_max = EXCLUDED.budget_max,
		     property_type = EXCLUDED.property_type,
		     min_bedrooms = EXCLUDED.min_bedrooms,
		     min_bathrooms = EXCLUDED.min_bathrooms,
		     features = EXCLUDED.features,
		     updated_at = EXCLUDED.updated_at`,
		prefs.UserID, prefs.Location, prefs.Budget.Min, prefs.Budget.Max,
		prefs.PropertyType, prefs.MinBedrooms, prefs.MinBathrooms,
		pq.Array(prefs.Features), prefs.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PreferenceRepository = (*PostgresPreferenceRepo)(nil)
