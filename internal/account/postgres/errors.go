package postgres

import (
	"errors"
	"strings"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// TranslateWriteError maps unique-constraint violations on account columns to conflict errors.
// Anything else is returned unchanged.
func TranslateWriteError(err error) error {
	detail, ok := UniqueViolation(err)
	if !ok {
		return err
	}

	switch {
	case strings.Contains(detail, "username"):
		return internal.ErrUsernameTaken.WithCause(err)
	case strings.Contains(detail, "email"):
		return internal.ErrEmailTaken.WithCause(err)
	}
	return internal.ErrDuplicate.WithCause(err)
}

// UniqueViolation reports whether err is a unique-constraint failure from postgres, gorm or sqlite,
// returning text naming the offending constraint or columns.
func UniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		if pgErr.Code != uniqueViolation {
			return "", false
		}
		return pgErr.ConstraintName + " " + pgErr.Detail, true
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return err.Error(), true
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return err.Error(), true
	}
	return "", false
}
