package expense

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/subtrack/internal/billing"
	"github.com/MrJamesThe3rd/subtrack/internal/category"
)

var (
	ErrNotFound        = errors.New("recurring expense not found")
	ErrInvalid         = errors.New("invalid recurring expense")
	ErrUnknownCategory = errors.New("category does not exist")
)

// Expense is a recurring expense such as a subscription or a bill.
type Expense struct {
	ID              uuid.UUID
	Name            string `validate:"required,max=255"`
	Amount          decimal.Decimal
	Currency        string           `validate:"required,len=3"`
	Interval        billing.Interval `validate:"required,oneof=weekly monthly quarterly yearly"`
	NextBillingDate time.Time
	CategoryID      *uuid.UUID
	Category        *category.Category // Loaded via JOIN
	IsActive        bool
	Notes           *string `validate:"omitempty,max=1024"`
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}
