package category

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("category not found")
	ErrInvalid       = errors.New("invalid category")
	ErrDuplicateName = errors.New("category name already exists")
)

// Category groups recurring expenses. Names are unique ignoring case.
type Category struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
