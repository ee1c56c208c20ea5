package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SQLSTATE codes the gateway classifies.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// mapError tags err with one of the package sentinels while keeping the
// driver error reachable through errors.As.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrForeignKey, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrDuplicate, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
