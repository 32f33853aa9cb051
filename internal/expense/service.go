package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/MrJamesThe3rd/subtrack/internal/billing"
	"github.com/MrJamesThe3rd/subtrack/internal/listing"
	"github.com/MrJamesThe3rd/subtrack/internal/validation"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=expense
type Repository interface {
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error)
	ListExpenses(ctx context.Context, filter ListFilter) (listing.Result[*Expense], error)
	UpdateExpense(ctx context.Context, e *Expense) error
	UpdateNextBillingDate(ctx context.Context, id uuid.UUID, date time.Time) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a Service. now decides what "today" is for billing date
// catch-up; nil means time.Now.
func NewService(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{repo: repo, now: now}
}

type CreateParams struct {
	Name            string
	Amount          decimal.Decimal
	Currency        string
	Interval        billing.Interval
	NextBillingDate time.Time
	CategoryID      *uuid.UUID
	IsActive        *bool
	Notes           *string
}

// UpdateParams holds a partial update. Nil fields are left untouched.
// SetCategory distinguishes clearing the category (CategoryID nil) from not
// changing it.
type UpdateParams struct {
	Name            *string
	Amount          *decimal.Decimal
	Currency        *string
	Interval        *billing.Interval
	NextBillingDate *time.Time
	SetCategory     bool
	CategoryID      *uuid.UUID
	IsActive        *bool
	Notes           *string
}

type ListFilter struct {
	Name     *string
	Currency *string
	IsActive *bool
	Sort     *listing.Sort
	Page     listing.Page
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Expense, error) {
	e := &Expense{
		Name:            params.Name,
		Amount:          params.Amount,
		Currency:        params.Currency,
		Interval:        params.Interval,
		NextBillingDate: params.NextBillingDate,
		CategoryID:      params.CategoryID,
		IsActive:        true,
		Notes:           params.Notes,
	}

	if params.IsActive != nil {
		e.IsActive = *params.IsActive
	}

	if err := s.prepare(e); err != nil {
		return nil, err
	}

	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

// Get returns the expense with its billing date caught up to today.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	s.catchUp(ctx, e)

	return e, nil
}

// List returns one page of expenses, each with its billing date caught up.
func (s *Service) List(ctx context.Context, filter ListFilter) (listing.Result[*Expense], error) {
	filter.Page = filter.Page.Normalize()

	if filter.Currency != nil {
		filter.Currency = new(strings.ToUpper(strings.TrimSpace(*filter.Currency)))
	}

	result, err := s.repo.ListExpenses(ctx, filter)
	if err != nil {
		return result, err
	}

	for _, e := range result.Items {
		s.catchUp(ctx, e)
	}

	return result, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		e.Name = *params.Name
	}

	if params.Amount != nil {
		e.Amount = *params.Amount
	}

	if params.Currency != nil {
		e.Currency = *params.Currency
	}

	if params.Interval != nil {
		e.Interval = *params.Interval
	}

	if params.NextBillingDate != nil {
		e.NextBillingDate = *params.NextBillingDate
	}

	if params.SetCategory {
		e.CategoryID = params.CategoryID
		e.Category = nil
	}

	if params.IsActive != nil {
		e.IsActive = *params.IsActive
	}

	if params.Notes != nil {
		e.Notes = params.Notes
	}

	if err := s.prepare(e); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteExpense(ctx, id)
}

// prepare normalizes and validates e before it is written, and catches its
// billing date up so stored dates are never behind after a write.
func (s *Service) prepare(e *Expense) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))

	if e.Notes != nil && strings.TrimSpace(*e.Notes) == "" {
		e.Notes = nil
	}

	if err := validate(e); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	e.NextBillingDate = billing.Advance(e.NextBillingDate, e.Interval, billing.Today(s.now()))

	return nil
}

func validate(e *Expense) error {
	var errs []error

	if err := validation.Struct(e); err != nil {
		errs = append(errs, err)
	}

	if e.Amount.IsNegative() {
		errs = append(errs, errors.New("amount: this value should be either positive or zero"))
	}

	if !e.Amount.Equal(e.Amount.Round(2)) {
		errs = append(errs, errors.New("amount: at most 2 decimal places are allowed"))
	}

	if len(e.Currency) == 3 {
		if _, err := currency.ParseISO(e.Currency); err != nil {
			errs = append(errs, fmt.Errorf("currency: %q is not a valid currency", e.Currency))
		}
	}

	if e.NextBillingDate.IsZero() {
		errs = append(errs, errors.New("nextBillingDate: this value should not be null"))
	}

	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}

	return errors.New(strings.Join(msgs, "; "))
}

func (s *Service) catchUp(ctx context.Context, e *Expense) {
	next := billing.Advance(e.NextBillingDate, e.Interval, billing.Today(s.now()))
	if next.Equal(e.NextBillingDate) {
		return
	}

	// The caught-up date is returned either way; a failed write is retried on the next read.
	if err := s.repo.UpdateNextBillingDate(ctx, e.ID, next); err != nil {
		slog.ErrorContext(ctx, "failed to persist advanced billing date", "expense_id", e.ID, "error", err)
	} else {
		slog.DebugContext(ctx, "advanced billing date",
			"expense_id", e.ID, "from", e.NextBillingDate.Format(time.DateOnly), "to", next.Format(time.DateOnly))
	}

	e.NextBillingDate = next
}
