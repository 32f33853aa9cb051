package expense

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/subtrack/internal/billing"
	"github.com/MrJamesThe3rd/subtrack/internal/expense"
	"github.com/MrJamesThe3rd/subtrack/internal/http/respond"
	"github.com/MrJamesThe3rd/subtrack/internal/listing"
)

type expenseResponse struct {
	ID              uuid.UUID         `json:"id"`
	Name            string            `json:"name"`
	Amount          string            `json:"amount"`
	Currency        string            `json:"currency"`
	Interval        billing.Interval  `json:"interval"`
	NextBillingDate string            `json:"nextBillingDate"`
	Category        *categoryResponse `json:"category"`
	IsActive        bool              `json:"isActive"`
	Notes           *string           `json:"notes"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       *time.Time        `json:"updatedAt,omitempty"`
}

type categoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func toResponse(e *expense.Expense) expenseResponse {
	resp := expenseResponse{
		ID:              e.ID,
		Name:            e.Name,
		Amount:          e.Amount.StringFixed(2),
		Currency:        e.Currency,
		Interval:        e.Interval,
		NextBillingDate: e.NextBillingDate.Format(time.DateOnly),
		IsActive:        e.IsActive,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}

	if e.Category != nil {
		resp.Category = &categoryResponse{
			ID:   e.Category.ID,
			Name: e.Category.Name,
		}
	}

	return resp
}

func toCollection(res listing.Result[*expense.Expense]) respond.Collection[expenseResponse] {
	member := make([]expenseResponse, len(res.Items))
	for i, e := range res.Items {
		member[i] = toResponse(e)
	}

	return respond.Collection[expenseResponse]{Member: member, TotalItems: res.Total}
}
