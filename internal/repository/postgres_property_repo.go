package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/sumika/internal/model"
)

// defaultListLimit は物件一覧のデフォルト取得件数。
const defaultListLimit = 100

// PostgresPropertyRepo はPostgreSQLを使用した物件リポジトリ。
type PostgresPropertyRepo struct {
	db *sql.DB
}

// NewPostgresPropertyRepo はPostgresPropertyRepoを生成する。
func NewPostgresPropertyRepo(db *sql.DB) *PostgresPropertyRepo {
	return &PostgresPropertyRepo{db: db}
}

// FindByID は指定IDの物件を取得する。見つからない場合はnilを返す。
func (r *PostgresPropertyRepo) FindByID(ctx context.Context, id string) (*model.Property, error) {
	p := &model.Property{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, type, location, price,
		        bedrooms, bathrooms, features, image_url, created_at, updated_at
		 FROM properties WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.Title, &p.Description, &p.Type, &p.Location, &p.Price,
		&p.Bedrooms, &p.Bathrooms, pq.Array(&p.Features), &p.ImageURL,
		&p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find property by ID: %w", err)
	}

	return p, nil
}

// buildListQuery は検索条件から物件一覧のSQLとパラメータを構築する。
// filterのnilフィールドはWHERE句に含めない。
func buildListQuery(filter model.PropertyFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	addCondition := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Location != nil {
		addCondition("location = $%d", *filter.Location)
	}
	if filter.Type != nil {
		addCondition("type = $%d", *filter.Type)
	}
	if filter.MinPrice != nil {
		addCondition("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		addCondition("price <= $%d", *filter.MaxPrice)
	}
	if filter.Bedrooms != nil {
		addCondition("bedrooms >= $%d", *filter.Bedrooms)
	}
	if filter.Bathrooms != nil {
		addCondition("bathrooms >= $%d", *filter.Bathrooms)
	}
	if filter.Feature != nil {
		addCondition("$%d = ANY(features)", *filter.Feature)
	}

	query := `SELECT id, title, description, type, location, price,
	       bedrooms, bathrooms, features, image_url, created_at, updated_at
	FROM properties`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	return query, args
}

// List は検索条件に合致する物件を作成日時の降順で返す。
func (r *PostgresPropertyRepo) List(ctx context.Context, filter model.PropertyFilter) ([]*model.Property, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var properties []*model.Property
	for rows.Next() {
		p := &model.Property{}
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Type, &p.Location, &p.Price,
			&p.Bedrooms, &p.Bathrooms, pq.Array(&p.Features), &p.ImageURL,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate properties: %w", err)
	}

	return properties, nil
}

// Create は物件を作成する。
func (r *PostgresPropertyRepo) Create(ctx context.Context, property *model.Property) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (id, title, description, type, location, price,
		                         bedrooms, bathrooms, features, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		property.ID, property.Title, property.Description, property.Type,
		property.Location, property.Price, property.Bedrooms, property.Bathrooms,
		pq.Array(property.Features), property.ImageURL, property.CreatedAt, property.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

// Update は物件情報を上書き更新する。
func (r *PostgresPropertyRepo) Update(ctx context.Context, property *model.Property) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE properties SET
		     title = $2, description = $3, type = $4, location = $5, price = $6,
		     bedrooms = $7, bathrooms = $8, features = $9, image_url = $10, updated_at = $11
		 WHERE id = $1`,
		property.ID, property.Title, property.Description, property.Type,
		property.Location, property.Price, property.Bedrooms, property.Bathrooms,
		pq.Array(property.Features), property.ImageURL, property.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("property not found: %s", property.ID)
	}

	return nil
}

// Delete は指定IDの物件を削除する。関連するfavoritesはCASCADE削除される。
func (r *PostgresPropertyRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM properties WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("property not found: %s", id)
	}

	return nil
}

// compile-time interface check
var _ PropertyRepository = (*PostgresPropertyRepo)(nil)
