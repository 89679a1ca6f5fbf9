package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/category"
)

type categoryRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   null.Time `db:"created_at"`
	UpdatedAt   null.Time `db:"updated_at"`
}

func (row categoryRow) toCategory() category.Category {
	return category.Category{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

type categoryRepository struct {
	db *sqlx.DB
}

var _ category.Repository = (*categoryRepository)(nil)

func NewCategoryRepository(db *sqlx.DB) *categoryRepository {
	return &categoryRepository{db: db}
}

func (repo *categoryRepository) CheckNameUniqueness(ctx context.Context, name string, excludedCategories ...category.Category) error {
	exclIDs := make([]string, 0, len(excludedCategories))
	for _, cat := range excludedCategories {
		exclIDs = append(exclIDs, cat.ID)
	}

	query := "SELECT COUNT(*) FROM category WHERE lower(name) = lower(?)"
	args := []interface{}{name}
	if len(exclIDs) > 0 {
		var err error
		query, args, err = sqlx.In(query+" AND id NOT IN (?)", name, exclIDs)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	if count > 0 {
		return category.ErrNameExists
	}
	return nil
}

func (repo *categoryRepository) CreateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO category (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		cat.ID, cat.Name, cat.Description, cat.CreatedAt, cat.UpdatedAt,
	)
	if err != nil {
		return category.Category{}, errors.Wrap(err, "creating category")
	}
	return cat, nil
}

func (repo *categoryRepository) GetCategoryByID(ctx context.Context, id string) (category.Category, error) {
	var row categoryRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM category WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, errors.Wrap(err, "getting category")
	}
	return row.toCategory(), nil
}

func (repo *categoryRepository) GetCategoriesByID(ctx context.Context, ids []string) ([]category.Category, error) {
	if len(ids) == 0 {
		return []category.Category{}, nil
	}
	query, args, err := sqlx.In("SELECT * FROM category WHERE id IN (?) ORDER BY name", ids)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []categoryRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "getting categories")
	}

	cats := make([]category.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, row.toCategory())
	}
	return cats, nil
}

func (repo *categoryRepository) FilterCategories(ctx context.Context, filter category.QueryFilter, orderings ...core.DBOrdering) ([]category.Category, error) {
	query := "SELECT * FROM category"
	var args []interface{}

	if filter.Search != "" {
		query += " WHERE name ILIKE ? OR description ILIKE ?"
		search := "%" + filter.Search + "%"
		args = append(args, search, search)
	}
	query += orderBy(orderings, "name")

	var rows []categoryRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering categories")
	}

	cats := make([]category.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, row.toCategory())
	}
	return cats, nil
}

func (repo *categoryRepository) UpdateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	orig, err := repo.GetCategoryByID(ctx, cat.ID)
	if err != nil {
		return category.Category{}, err
	}
	merged := orig
	if cat.Name != "" {
		merged.Name = cat.Name
	}
	merged.Description = cat.Description
	if !cat.UpdatedAt.IsZero() {
		merged.UpdatedAt = cat.UpdatedAt
	}

	_, err = repo.db.ExecContext(ctx, `
		UPDATE category SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		merged.ID, merged.Name, merged.Description, merged.UpdatedAt,
	)
	if err != nil {
		return category.Category{}, errors.Wrap(err, "updating category")
	}
	return merged, nil
}

func (repo *categoryRepository) DeleteCategoriesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM category WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting categories")
	}
	return nil
}
