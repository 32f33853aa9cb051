package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/subtrack/internal/category"
	"github.com/MrJamesThe3rd/subtrack/internal/database"
	"github.com/MrJamesThe3rd/subtrack/internal/listing"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectCategoryColumns = `id, name, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (*category.Category, error) {
	var c category.Category
	if err := s.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *category.Category) error {
	query := `
		INSERT INTO recurring_categories (name, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query, c.Name).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return category.ErrDuplicateName
		}

		return fmt.Errorf("creating category: %w", err)
	}

	return nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	query := `SELECT ` + selectCategoryColumns + ` FROM recurring_categories WHERE id = $1`

	c, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, category.ErrNotFound
		}

		return nil, fmt.Errorf("getting category: %w", err)
	}

	return c, nil
}

var orderColumns = map[string]string{
	"name": "name",
}

func (s *Store) ListCategories(ctx context.Context, filter category.ListFilter) (listing.Result[*category.Category], error) {
	var result listing.Result[*category.Category]

	where := ` WHERE TRUE`

	var args []any

	if filter.Name != nil {
		args = append(args, "%"+database.EscapeLike(*filter.Name)+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recurring_categories`+where, args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("counting categories: %w", err)
	}

	query := `SELECT ` + selectCategoryColumns + ` FROM recurring_categories` + where +
		database.OrderBy(filter.Sort, orderColumns, "name ASC, id ASC")

	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return result, fmt.Errorf("scanning category: %w", err)
		}

		result.Items = append(result.Items, c)
	}

	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("iterating category rows: %w", err)
	}

	return result, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *category.Category) error {
	query := `
		UPDATE recurring_categories
		SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query, c.Name, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return category.ErrNotFound
		}

		if database.IsUniqueViolation(err) {
			return category.ErrDuplicateName
		}

		return fmt.Errorf("updating category: %w", err)
	}

	return nil
}

// DeleteCategory removes the row; the foreign key on recurring_expenses clears
// their category_id.
func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}

	if n == 0 {
		return category.ErrNotFound
	}

	return nil
}
