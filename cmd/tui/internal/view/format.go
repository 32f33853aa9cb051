package view

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/subtrack/internal/billing"
	"github.com/MrJamesThe3rd/subtrack/internal/client"
)

const requestTimeout = 10 * time.Second

// FormatAmount renders an amount with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func FormatInterval(i billing.Interval) string {
	s := string(i)
	if s == "" {
		return ""
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

func FormatCategory(c *client.Category) string {
	if c == nil {
		return "-"
	}

	return c.Name
}

func FormatActive(active bool) string {
	if active {
		return "yes"
	}

	return "no"
}

// RequestCtx returns a context with a standard timeout for API calls.
func RequestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
