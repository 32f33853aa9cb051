// Package respond holds the JSON plumbing shared by the API handlers.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrJamesThe3rd/subtrack/internal/listing"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Collection is the envelope for list endpoints.
type Collection[T any] struct {
	Member     []T `json:"member"`
	TotalItems int `json:"totalItems"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Code: status, Message: message})
}

// Internal logs err and answers 500 without leaking its text.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "failed to handle request", "method", r.Method, "path", r.URL.Path, "error", err)
	Error(w, http.StatusInternalServerError, "Internal server error.")
}

// Decode reads a JSON body into v. Unknown fields are rejected.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}

	return nil
}

var ErrBadQuery = errors.New("invalid query parameter")

// Page reads page and itemsPerPage.
func Page(r *http.Request) (listing.Page, error) {
	var p listing.Page

	q := r.URL.Query()

	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return p, fmt.Errorf("%w: page", ErrBadQuery)
		}

		p.Number = n
	}

	if s := q.Get("itemsPerPage"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return p, fmt.Errorf("%w: itemsPerPage", ErrBadQuery)
		}

		p.Size = n
	}

	return p.Normalize(), nil
}

// Sort reads the first order[field]=asc|desc parameter whose field is in
// fields, checked in the order fields are given. Nil means no ordering.
func Sort(r *http.Request, fields ...string) (*listing.Sort, error) {
	q := r.URL.Query()

	for _, f := range fields {
		s := q.Get("order[" + f + "]")
		if s == "" {
			continue
		}

		dir, ok := listing.ParseDirection(s)
		if !ok {
			return nil, fmt.Errorf("%w: order[%s]", ErrBadQuery, f)
		}

		return &listing.Sort{Field: f, Direction: dir}, nil
	}

	return nil, nil
}

// String returns a trimmed non-empty query value, or nil.
func String(r *http.Request, key string) *string {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return nil
	}

	return &s
}

func Bool(r *http.Request, key string) (*bool, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}

	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadQuery, key)
	}

	return &b, nil
}
