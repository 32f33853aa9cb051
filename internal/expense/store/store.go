package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/subtrack/internal/billing"
	"github.com/MrJamesThe3rd/subtrack/internal/category"
	"github.com/MrJamesThe3rd/subtrack/internal/database"
	"github.com/MrJamesThe3rd/subtrack/internal/expense"
	"github.com/MrJamesThe3rd/subtrack/internal/listing"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanExpense reads an expense row joined with its category.
// Expected column order: id, name, amount, currency, billing_interval, next_billing_date,
// category_id, category_name, is_active, notes, created_at, updated_at
func scanExpense(s scanner) (*expense.Expense, error) {
	var e expense.Expense

	var interval string

	var categoryName sql.NullString

	if err := s.Scan(
		&e.ID, &e.Name, &e.Amount, &e.Currency, &interval, &e.NextBillingDate,
		&e.CategoryID, &categoryName,
		&e.IsActive, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.Interval = billing.Interval(interval)

	if e.CategoryID != nil && categoryName.Valid {
		e.Category = &category.Category{
			ID:   *e.CategoryID,
			Name: categoryName.String,
		}
	}

	return &e, nil
}

const selectExpenseColumns = `
	e.id, e.name, e.amount, e.currency, e.billing_interval, e.next_billing_date,
	e.category_id, c.name AS category_name, e.is_active, e.notes, e.created_at, e.updated_at
`

const fromExpenses = `
	FROM recurring_expenses e
	LEFT JOIN recurring_categories c ON e.category_id = c.id
`

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	query := `
		INSERT INTO recurring_expenses
			(name, amount, currency, billing_interval, next_billing_date, category_id, is_active, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		e.Name,
		e.Amount,
		e.Currency,
		string(e.Interval),
		e.NextBillingDate,
		e.CategoryID,
		e.IsActive,
		e.Notes,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return expense.ErrUnknownCategory
		}

		return fmt.Errorf("creating recurring expense: %w", err)
	}

	return s.loadCategory(ctx, e)
}

func (s *Store) GetExpense(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + fromExpenses + ` WHERE e.id = $1`

	e, err := scanExpense(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("getting recurring expense: %w", err)
	}

	return e, nil
}

var orderColumns = map[string]string{
	"name":            "e.name",
	"amount":          "e.amount",
	"nextBillingDate": "e.next_billing_date",
	"isActive":        "e.is_active",
}

func (s *Store) ListExpenses(ctx context.Context, filter expense.ListFilter) (listing.Result[*expense.Expense], error) {
	var result listing.Result[*expense.Expense]

	where := ` WHERE TRUE`

	var args []any

	if filter.Name != nil {
		args = append(args, "%"+database.EscapeLike(*filter.Name)+"%")
		where += fmt.Sprintf(" AND e.name ILIKE $%d", len(args))
	}

	if filter.Currency != nil {
		args = append(args, *filter.Currency)
		where += fmt.Sprintf(" AND e.currency = $%d", len(args))
	}

	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where += fmt.Sprintf(" AND e.is_active = $%d", len(args))
	}

	countQuery := `SELECT COUNT(*) FROM recurring_expenses e` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("counting recurring expenses: %w", err)
	}

	query := `SELECT ` + selectExpenseColumns + fromExpenses + where +
		database.OrderBy(filter.Sort, orderColumns, "e.id ASC")

	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("listing recurring expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return result, fmt.Errorf("scanning recurring expense: %w", err)
		}

		result.Items = append(result.Items, e)
	}

	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("iterating recurring expense rows: %w", err)
	}

	return result, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *expense.Expense) error {
	query := `
		UPDATE recurring_expenses
		SET name = $1, amount = $2, currency = $3, billing_interval = $4, next_billing_date = $5,
			category_id = $6, is_active = $7, notes = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		e.Name,
		e.Amount,
		e.Currency,
		string(e.Interval),
		e.NextBillingDate,
		e.CategoryID,
		e.IsActive,
		e.Notes,
		e.ID,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return expense.ErrNotFound
		}

		if database.IsForeignKeyViolation(err) {
			return expense.ErrUnknownCategory
		}

		return fmt.Errorf("updating recurring expense: %w", err)
	}

	return s.loadCategory(ctx, e)
}

// UpdateNextBillingDate only moves the date forward so concurrent readers that
// computed an older catch-up never roll it back.
func (s *Store) UpdateNextBillingDate(ctx context.Context, id uuid.UUID, date time.Time) error {
	query := `
		UPDATE recurring_expenses
		SET next_billing_date = $1, updated_at = NOW()
		WHERE id = $2 AND next_billing_date < $1
	`

	if _, err := s.db.ExecContext(ctx, query, date, id); err != nil {
		return fmt.Errorf("updating next billing date: %w", err)
	}

	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting recurring expense: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting recurring expense: %w", err)
	}

	if n == 0 {
		return expense.ErrNotFound
	}

	return nil
}

func (s *Store) loadCategory(ctx context.Context, e *expense.Expense) error {
	e.Category = nil
	if e.CategoryID == nil {
		return nil
	}

	var name string

	err := s.db.QueryRowContext(ctx, `SELECT name FROM recurring_categories WHERE id = $1`, *e.CategoryID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			e.CategoryID = nil
			return nil
		}

		return fmt.Errorf("loading category: %w", err)
	}

	e.Category = &category.Category{ID: *e.CategoryID, Name: name}

	return nil
}
