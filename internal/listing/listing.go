package listing

import "strings"

const (
	DefaultPageSize = 30
	MaxPageSize     = 100
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(s)) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	}

	return "", false
}

// Sort orders a listing by a single field.
type Sort struct {
	Field     string
	Direction Direction
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize fills defaults and caps the page size.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}

	if p.Size < 1 {
		p.Size = DefaultPageSize
	}

	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}

	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	return p.Normalize().Size
}

// Result is one page of items plus the total number of matching items.
type Result[T any] struct {
	Items []T
	Total int
}
