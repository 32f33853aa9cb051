package category

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/subtrack/internal/category"
	"github.com/MrJamesThe3rd/subtrack/internal/http/respond"
	"github.com/MrJamesThe3rd/subtrack/internal/listing"
)

type categoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func toResponse(c *category.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCollection(res listing.Result[*category.Category]) respond.Collection[categoryResponse] {
	member := make([]categoryResponse, len(res.Items))
	for i, c := range res.Items {
		member[i] = toResponse(c)
	}

	return respond.Collection[categoryResponse]{Member: member, TotalItems: res.Total}
}
