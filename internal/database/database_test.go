package database_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/subtrack/internal/database"
	"github.com/MrJamesThe3rd/subtrack/internal/listing"
)

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("creating category: %w", &pgconn.PgError{Code: "23505"})

	assert.True(t, database.IsUniqueViolation(wrapped))
	assert.False(t, database.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, database.IsUniqueViolation(errors.New("boom")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, database.IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, database.IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, database.EscapeLike(`50% off_now\`))
}

func TestOrderBy(t *testing.T) {
	columns := map[string]string{"name": "e.name"}

	type testCase struct {
		name string
		sort *listing.Sort
		want string
	}

	tests := []testCase{
		{name: "Default", sort: nil, want: " ORDER BY e.id"},
		{name: "Asc", sort: &listing.Sort{Field: "name", Direction: listing.Asc}, want: " ORDER BY e.name ASC, e.id"},
		{name: "Desc", sort: &listing.Sort{Field: "name", Direction: listing.Desc}, want: " ORDER BY e.name DESC, e.id"},
		{name: "UnknownField", sort: &listing.Sort{Field: "password", Direction: listing.Asc}, want: " ORDER BY e.id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, database.OrderBy(tt.sort, columns, "e.id"))
		})
	}
}
