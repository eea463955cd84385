package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/ensemble-api/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
	invalidTextCode         = "22P02"

	// connectionExceptionClass prefixes every class 08 code
	connectionExceptionClass = "08"
)

// MapError maps a database error to the matching store error, wrapping the
// original to keep its context.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", store.ErrNotConnected, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolationCode:
			return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
		case pgErr.Code == foreignKeyViolationCode:
			return fmt.Errorf("%w: foreign key violation (%s): %w", store.ErrInvalidEntity, pgErr.ConstraintName, err)
		case pgErr.Code == checkViolationCode:
			return fmt.Errorf("%w: check constraint violation (%s): %w", store.ErrInvalidEntity, pgErr.ConstraintName, err)
		case pgErr.Code == notNullViolationCode:
			return fmt.Errorf("%w: not null violation (%s): %w", store.ErrInvalidEntity, pgErr.ColumnName, err)
		case pgErr.Code == invalidTextCode:
			return fmt.Errorf("%w: %w", store.ErrMalformedFilter, err)
		case strings.HasPrefix(pgErr.Code, connectionExceptionClass):
			return fmt.Errorf("%w: %w", store.ErrNotConnected, err)
		}
	}

	return err
}

// CheckRowsAffected examines the number of rows affected by a database operation.
// If no rows were affected, it returns store.ErrNotFound.
func CheckRowsAffected(result sql.Result, entityName string) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if entityName == "" {
			return store.ErrNotFound
		}
		return fmt.Errorf("%w: %s not found", store.ErrNotFound, entityName)
	}

	return nil
}
