package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MrJamesThe3rd/subtrack/internal/listing"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func New(connStr string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// IsUniqueViolation reports whether err comes from a violated unique constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsForeignKeyViolation reports whether err references a row that does not exist.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so user input matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// OrderBy builds an ORDER BY clause from a whitelisted sort field. Unknown
// fields fall back to the default ordering.
func OrderBy(sort *listing.Sort, columns map[string]string, fallback string) string {
	if sort == nil {
		return " ORDER BY " + fallback
	}

	col, ok := columns[sort.Field]
	if !ok {
		return " ORDER BY " + fallback
	}

	dir := "ASC"
	if sort.Direction == listing.Desc {
		dir = "DESC"
	}

	return fmt.Sprintf(" ORDER BY %s %s, %s", col, dir, fallback)
}
