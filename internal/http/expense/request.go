package expense

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/subtrack/internal/billing"
)

type expenseRequest struct {
	Name            *string           `json:"name"`
	Amount          *decimal.Decimal  `json:"amount"`
	Currency        *string           `json:"currency"`
	Interval        *billing.Interval `json:"interval"`
	NextBillingDate *date             `json:"nextBillingDate"`
	Category        json.RawMessage   `json:"category"`
	IsActive        *bool             `json:"isActive"`
	Notes           *string           `json:"notes"`
}

// date accepts 2006-01-02 or a full RFC 3339 timestamp and keeps only the
// calendar day as written.
type date time.Time

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("nextBillingDate: %w", err)
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, s)
		if tsErr != nil {
			return fmt.Errorf("nextBillingDate: %q is not a date", s)
		}

		t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}

	*d = date(t)

	return nil
}

var errBadCategory = errors.New("category: expected an id, an IRI or null")

// categoryRef reads the category field. set reports whether the field was
// present; a present null gives set with a nil id.
func categoryRef(raw json.RawMessage) (id *uuid.UUID, set bool, err error) {
	if len(raw) == 0 {
		return nil, false, nil
	}

	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil || obj.ID == "" {
			return nil, false, errBadCategory
		}

		s = obj.ID
	}

	parsed, err := uuid.Parse(path.Base(strings.TrimSpace(s)))
	if err != nil {
		return nil, false, errBadCategory
	}

	return &parsed, true, nil
}

func (r expenseRequest) nextBillingDate() *time.Time {
	if r.NextBillingDate == nil {
		return nil
	}

	return new(time.Time(*r.NextBillingDate))
}
