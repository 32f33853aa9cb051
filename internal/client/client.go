// Package client talks to the Subtrack API on behalf of the terminal
// dashboard. Authentication is handled by the session transport installed in
// the underlying http.Client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/subtrack/internal/billing"
	"github.com/MrJamesThe3rd/subtrack/internal/session"
)

// ErrUnauthorized is returned for any 401. By then the session has already
// been logged out.
var ErrUnauthorized = session.ErrUnauthorized

type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s", http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("api: %s", e.Message)
}

type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Expense struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	Interval        billing.Interval `json:"interval"`
	NextBillingDate string           `json:"nextBillingDate"`
	Category        *Category        `json:"category"`
	IsActive        bool             `json:"isActive"`
	Notes           *string          `json:"notes"`
}

// ExpenseInput is sent on create and on update. A nil Category clears it.
type ExpenseInput struct {
	Name            string           `json:"name"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	Interval        billing.Interval `json:"interval"`
	NextBillingDate string           `json:"nextBillingDate"`
	Category        *uuid.UUID       `json:"category"`
	IsActive        bool             `json:"isActive"`
	Notes           *string          `json:"notes"`
}

type Page[T any] struct {
	Member     []T `json:"member"`
	TotalItems int `json:"totalItems"`
}

type ListOptions struct {
	Name         string
	ActiveOnly   bool
	OrderBy      string
	Desc         bool
	Page         int
	ItemsPerPage int
}

func (o ListOptions) query() url.Values {
	q := url.Values{}

	if o.Name != "" {
		q.Set("name", o.Name)
	}

	if o.ActiveOnly {
		q.Set("isActive", "true")
	}

	if o.OrderBy != "" {
		dir := "asc"
		if o.Desc {
			dir = "desc"
		}

		q.Set("order["+o.OrderBy+"]", dir)
	}

	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}

	if o.ItemsPerPage > 0 {
		q.Set("itemsPerPage", strconv.Itoa(o.ItemsPerPage))
	}

	return q
}

type Me struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Exp       int64  `json:"exp"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) ListExpenses(ctx context.Context, opts ListOptions) (Page[Expense], error) {
	var out Page[Expense]
	err := c.do(ctx, http.MethodGet, "/recurring_expenses?"+opts.query().Encode(), nil, &out)

	return out, err
}

func (c *Client) CreateExpense(ctx context.Context, in ExpenseInput) (Expense, error) {
	var out Expense
	err := c.do(ctx, http.MethodPost, "/recurring_expenses", in, &out)

	return out, err
}

func (c *Client) UpdateExpense(ctx context.Context, id uuid.UUID, in ExpenseInput) (Expense, error) {
	var out Expense
	err := c.do(ctx, http.MethodPatch, "/recurring_expenses/"+id.String(), in, &out)

	return out, err
}

func (c *Client) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/recurring_expenses/"+id.String(), nil, nil)
}

func (c *Client) ListCategories(ctx context.Context, opts ListOptions) (Page[Category], error) {
	var out Page[Category]
	err := c.do(ctx, http.MethodGet, "/recurring_categories?"+opts.query().Encode(), nil, &out)

	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, name string) (Category, error) {
	var out Category
	err := c.do(ctx, http.MethodPost, "/recurring_categories", map[string]string{"name": name}, &out)

	return out, err
}

func (c *Client) RenameCategory(ctx context.Context, id uuid.UUID, name string) (Category, error) {
	var out Category
	err := c.do(ctx, http.MethodPatch, "/recurring_categories/"+id.String(), map[string]string{"name": name}, &out)

	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/recurring_categories/"+id.String(), nil, nil)
}

func (c *Client) Me(ctx context.Context) (Me, error) {
	var out Me
	err := c.do(ctx, http.MethodGet, "/me", nil, &out)

	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}

		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}

	return nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil {
		body.Message = strings.TrimSpace(string(data))
	}

	return &StatusError{StatusCode: resp.StatusCode, Message: body.Message}
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
